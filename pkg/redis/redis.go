package redispkg

import (
	"context"
	"crypto/tls"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

const defaultAddr = "redis:6379"

// ParseRedisURL splits a REDIS_URL-like string into its parts. Accepts either a
// plain `host:port` or a `redis://`/`rediss://` URL; rediss means TLS.
func ParseRedisURL(raw string) (addr, password string, db int, useTLS bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultAddr, "", 0, false
	}

	if !strings.HasPrefix(raw, "redis://") && !strings.HasPrefix(raw, "rediss://") {
		return raw, "", 0, false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw, "", 0, false
	}

	addr = u.Host
	if addr == "" {
		addr = defaultAddr
	}
	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			password = pw
		}
	}
	if p := strings.Trim(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	return addr, password, db, u.Scheme == "rediss"
}

// NewClient builds a redis client from a REDIS_URL-like string. It disables
// maintnotifications to avoid handshake attempts on servers that don't implement
// the subcommand.
func NewClient(raw string) *redis.Client {
	addr, password, db, useTLS := ParseRedisURL(raw)

	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	}
	if useTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)
	// warm up (best-effort)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = client.Ping(ctx).Err()
	return client
}
