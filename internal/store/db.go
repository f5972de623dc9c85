package store

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// OpenDB opens a pooled MySQL connection using the FORMCALC_DB_*
// environment variables, with connection-pool settings mirroring a
// typical production setup: bounded pool size, lifetime recycling, and
// a startup ping to fail fast on a bad DSN.
func OpenDB() (*sql.DB, error) {
	host := envOr("FORMCALC_DB_HOST", "127.0.0.1")
	port := envOr("FORMCALC_DB_PORT", "3306")
	user := envOr("FORMCALC_DB_USER", "root")
	password := os.Getenv("FORMCALC_DB_PASSWORD")
	database := envOr("FORMCALC_DB_NAME", "formcalc")

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	return db, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
