package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	c := NewRedisCache(client, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := c.Get(ctx, "abc:de")
	require.NoError(t, err)
	assert.Nil(t, got)

	want := sampleDiagnosis("Magnesiummangel")
	require.NoError(t, c.Put(ctx, "abc:de", want))

	got, err = c.Get(ctx, "abc:de")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	c := NewRedisCache(client, time.Hour, nil)

	require.NoError(t, c.Put(ctx, "k", sampleDiagnosis("x")))
	assert.Equal(t, time.Hour, mr.TTL("growdoctor:diagnosis:k"))

	mr.FastForward(2 * time.Hour)
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	evicted, err := c.EvictExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, evicted)
}

func TestRedisCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	c := NewRedisCache(client, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, mr.Set("growdoctor:diagnosis:k", "{not json"))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheIncompleteEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	c := NewRedisCache(client, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for name, raw := range map[string]string{
		"no diagnosis":     `{"key":"k"}`,
		"no main problem":  `{"key":"k","diagnosis":{"severity_indicator":"red"}}`,
		"unknown severity": `{"key":"k","diagnosis":{"main_problem":"Kaliummangel","severity_indicator":"blue"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, mr.Set("growdoctor:diagnosis:k", raw))

			got, err := c.Get(ctx, "k")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestRedisCacheUnavailable(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	c := NewRedisCache(client, time.Hour, nil)
	mr.Close()

	_, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Put(ctx, "k", sampleDiagnosis("x")))
}
