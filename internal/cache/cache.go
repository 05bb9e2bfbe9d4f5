package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/metrics"
)

// Store is a JSON value cache. Implementations must treat a missing key as
// (false, nil), never as an error.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

const DefaultTTL = time.Hour

// PrefixReport namespaces every cached report page.
const PrefixReport = "report:"

// EventKey is the detail entry of one event. Participation changes drop it too.
func EventKey(id int64) string { return Key("event", id) }

// Key joins an operation name and its arguments with ":".
func Key(op string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, op)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}

// ParamsKey derives a stable key from request parameters regardless of the
// order they arrived in.
func ParamsKey(op string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vals := append([]string(nil), params[k]...)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(vals, ","))
		b.WriteByte('&')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return Key(op, hex.EncodeToString(sum[:]))
}

// ReadThrough serves key from store, or computes, stores and returns the value.
// Cache failures are logged and degrade to compute.
func ReadThrough[T any](ctx context.Context, store Store, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if store == nil {
		return compute(ctx)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	var cached T
	found, err := store.Get(ctx, key, &cached)
	switch {
	case err != nil:
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		zlog.Warn().Err(err).Str("key", key).Msg("cache get failed")
	case found:
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		zlog.Debug().Str("key", key).Msg("cache hit")
		return cached, nil
	default:
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		zlog.Debug().Str("key", key).Msg("cache miss")
	}

	val, err := compute(ctx)
	if err != nil {
		return val, err
	}
	if err := store.Set(ctx, key, val, ttl); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return val, nil
}

// Invalidate drops exact keys and every key under the given prefixes.
// It runs after mutations and never fails the caller.
func Invalidate(ctx context.Context, store Store, keys []string, prefixes ...string) {
	if store == nil {
		return
	}
	if len(keys) > 0 {
		if err := store.Delete(ctx, keys...); err != nil {
			zlog.Warn().Err(err).Strs("keys", keys).Msg("cache invalidate failed")
		}
	}
	for _, p := range prefixes {
		if err := store.DeletePrefix(ctx, p); err != nil {
			zlog.Warn().Err(err).Str("prefix", p).Msg("cache prefix invalidate failed")
		}
	}
}
