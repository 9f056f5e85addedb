// Package adapter implements the concrete, database/sql-backed Connection
// Manager of §3.1: one Manager type, configured per dialect through Config
// and satisfying pool.Manager[*Connection], plus SQLExecutor, which
// satisfies migration.SqlExecutor against a real driver.
package adapter

import (
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect names the SQL dialect an adapter targets, matching the ddl
// package's Generator.Dialect() values.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// driverName maps a Dialect to the database/sql driver name registered by
// the blank imports above.
func (d Dialect) driverName() string {
	switch d {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite3"
	default:
		return string(d)
	}
}

// Config configures a single dialect connection: the DSN to dial and
// conservative per-connection lifetime bounds (HasExpired checks
// MaxLifetime; MaxIdleTime is carried but not read by this package), tuned
// per dialect the way the teacher's database_config.go tunes sql.DB pool
// limits per dialect.
type Config struct {
	Dialect     Dialect
	DSN         string
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// MySQLConfig returns MySQL-tuned defaults: longer-lived connections, the
// teacher's own MySQLConfig rationale ("MySQL handles longer connections
// well").
func MySQLConfig(dsn string) Config {
	return Config{Dialect: MySQL, DSN: dsn, MaxLifetime: 60 * time.Minute, MaxIdleTime: 30 * time.Minute}
}

// PostgresConfig returns PostgreSQL-tuned defaults.
func PostgresConfig(dsn string) Config {
	return Config{Dialect: Postgres, DSN: dsn, MaxLifetime: 45 * time.Minute, MaxIdleTime: 20 * time.Minute}
}

// SQLiteConfig returns SQLite-tuned defaults: SQLite connections can live
// long since there is no server-side connection churn to worry about.
func SQLiteConfig(dsn string) Config {
	return Config{Dialect: SQLite, DSN: dsn, MaxLifetime: 24 * time.Hour, MaxIdleTime: 2 * time.Hour}
}
