// Package database manages the SQLite connection used by the readings store.
//
// It wraps database/sql with Hearth-specific setup: WAL mode, busy timeout,
// restricted file permissions, embedded schema migrations and health checks.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
