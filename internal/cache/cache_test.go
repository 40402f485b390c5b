package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, m.Delete(ctx, "k", "missing"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "forever", []byte("2"), 0))

	now = now.Add(2 * time.Second)

	_, err := m.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 1, m.Len(), "expired entry is dropped on access")

	got, err := m.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, 0))
	buf[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, SetJSON(ctx, m, "stats", map[string]int{"ADMIN": 2}, time.Minute))

	var got map[string]int
	require.NoError(t, GetJSON(ctx, m, "stats", &got))
	assert.Equal(t, 2, got["ADMIN"])

	assert.ErrorIs(t, GetJSON(ctx, m, "nope", &got), ErrMiss)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	r := NewRedis(client, "zascita:")

	_, err := r.Get(ctx, "fires")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, r.Set(ctx, "fires", []byte(`{"type":"FeatureCollection"}`), time.Minute))
	assert.True(t, mr.Exists("zascita:fires"))

	got, err := r.Get(ctx, "fires")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection"}`, string(got))

	mr.FastForward(2 * time.Minute)
	_, err = r.Get(ctx, "fires")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, r.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, r.Delete(ctx, "a"))
	assert.False(t, mr.Exists("zascita:a"))
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	r, err := DialRedis(context.Background(), addr, "", 0, "")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	mr.Close()
	_, err = DialRedis(context.Background(), addr, "", 0, "")
	assert.Error(t, err)
}
