// Package config loads typed configuration structs from environment
// variables.
//
// Configuration is declared as struct fields tagged for
// github.com/caarlos0/env; a .env file in the working directory is applied
// once per process via github.com/joho/godotenv before the first parse, which
// keeps local development and production behaviour identical.
//
//	type ServiceConfig struct {
//	    Queue jobqueue.Config
//	    Redis redis.Config
//	}
//
//	var cfg ServiceConfig
//	config.MustLoad(&cfg)
package config
