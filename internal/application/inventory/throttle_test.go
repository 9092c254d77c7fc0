package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryThrottle_VentanaYReset(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	th := NewMemoryThrottle(time.Hour)
	th.now = func() time.Time { return now }

	ok, err := th.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = th.Allow(ctx, "k")
	assert.False(t, ok, "segunda alerta dentro de la ventana")

	now = now.Add(61 * time.Minute)
	ok, _ = th.Allow(ctx, "k")
	assert.True(t, ok, "la ventana expiró")

	had, err := th.Reset(ctx, "k")
	require.NoError(t, err)
	assert.True(t, had)

	had, _ = th.Reset(ctx, "k")
	assert.False(t, had)

	ok, _ = th.Allow(ctx, "k")
	assert.True(t, ok)
}

func TestMemoryThrottle_ResetDeClaveVencida(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	th := NewMemoryThrottle(time.Minute)
	th.now = func() time.Time { return now }

	_, _ = th.Allow(ctx, "k")
	now = now.Add(2 * time.Minute)

	had, err := th.Reset(ctx, "k")
	require.NoError(t, err)
	assert.False(t, had)
}
