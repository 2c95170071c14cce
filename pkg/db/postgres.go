package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Conn describes how to reach Postgres when no DATABASE_URL is given.
type Conn struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Pool sizes the database/sql connection pool.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ResolveDSN prefers databaseURL and otherwise builds a postgresql:// URL from c.
func ResolveDSN(databaseURL string, c Conn) string {
	if databaseURL != "" {
		return databaseURL
	}

	u := url.URL{
		Scheme: "postgresql",
		Host:   orDefault(c.Host, "localhost") + ":" + orDefault(c.Port, "5432"),
		Path:   "/" + c.Name,
	}
	if c.Password == "" {
		// Local dev without a password.
		u.User = url.User(c.User)
	} else {
		u.User = url.UserPassword(c.User, c.Password)
	}
	q := url.Values{}
	q.Set("sslmode", orDefault(c.SSLMode, "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

// NewDB opens a pgx-backed *sql.DB, applies the pool settings and pings it with a
// short timeout to verify connectivity.
func NewDB(ctx context.Context, dsn string, pool Pool) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

func orDefault(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
