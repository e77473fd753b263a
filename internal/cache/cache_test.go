package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("hc")

	_, err := c.Get(ctx, "missing")
	require.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))
	ok, _ = c.Exists(ctx, "k")
	require.False(t, ok)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, "memory", st.Driver)
	require.EqualValues(t, 1, st.Hits)
	require.EqualValues(t, 1, st.Misses)
}

func TestMemory_TTLExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	require.NoError(t, c.Set(ctx, "short", "x", 20*time.Millisecond))
	require.Eventually(t, func() bool {
		_, err := c.Get(ctx, "short")
		return IsNotFound(err)
	}, time.Second, 10*time.Millisecond)
}

func TestNew_Drivers(t *testing.T) {
	c, err := New(context.Background(), Config{Driver: ""})
	require.NoError(t, err)
	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Close())

	_, err = New(context.Background(), Config{Driver: "memcached"})
	require.Error(t, err)
}

func TestPrefixed(t *testing.T) {
	require.Equal(t, "k", prefixed("", "k"))
	require.Equal(t, "hc:k", prefixed("hc", "k"))
}
