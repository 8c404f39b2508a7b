package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache_Expiry(t *testing.T) {
	c := NewTTLCache()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "b", []byte("2"), 0))

	b, ok, err := c.GetBytes(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), b)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.GetBytes(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = c.GetBytes(ctx, "b")
	assert.True(t, ok, "zero ttl never expires")
}

func TestTTLCache_Sweep(t *testing.T) {
	c := NewTTLCache()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	_ = c.SetBytes(ctx, "a", []byte("1"), time.Second)
	_ = c.SetBytes(ctx, "b", []byte("2"), time.Hour)

	now = now.Add(time.Minute)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
}

func TestTTLCache_CopiesValue(t *testing.T) {
	c := NewTTLCache()
	v := []byte("abc")
	_ = c.SetBytes(context.Background(), "k", v, 0)
	v[0] = 'x'

	b, _, _ := c.GetBytes(context.Background(), "k")

	assert.Equal(t, []byte("abc"), b)
}

func TestKey(t *testing.T) {
	a := Key("rank", []byte(`{"x":1}`))

	assert.Equal(t, a, Key("rank", []byte(`{"x":1}`)))
	assert.NotEqual(t, a, Key("rank", []byte(`{"x":2}`)))
	assert.NotEqual(t, a, Key("regime", []byte(`{"x":1}`)))
	assert.Len(t, a, len("rank:")+64)
}
