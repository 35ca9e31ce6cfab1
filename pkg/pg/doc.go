// Package pg provides utilities for connecting to PostgreSQL with the pgx/v5
// driver: a Config struct populated from environment variables via
// pkg/config, a Connect function that opens a *pgxpool.Pool with retry, and a
// health-check helper.
//
// In this repo the pool is handed to jobqueue.NewPGStore for deployments that
// back the job queue with PostgreSQL instead of Redis; the queue owns its two
// tables and creates them via PGStore.EnsureSchema, so no migration tooling
// is involved.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
// # Error Handling
//
// Helpers such as [IsDuplicateKeyError] classify *pgconn.PgError values so
// business logic does not need to inspect SQLSTATE codes directly.
package pg
