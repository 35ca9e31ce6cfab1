// Package redis provides helpers for connecting to the Redis server shared by
// the backend services.
//
// The package wraps the go-redis client and adds a `Connect` function that
// retries the initial connection using the supplied configuration, plus a
// health-check helper for liveness and readiness probes. Configuration is
// described by the `Config` struct whose fields are populated from
// environment variables via pkg/config.
//
// # Usage
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// The connected client is typically handed to jobqueue.NewRedisStore.
//
// # Errors
//
// The package defines sentinel errors (e.g. ErrRedisNotReady) joined with the
// underlying go-redis errors via errors.Join, so both layers can be checked
// with errors.Is.
package redis
