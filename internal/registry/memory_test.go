package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jmehdipour/micromdm-webhook/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_UpsertThenGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, udid := range []string{"ABC123", "", "  odd udid  "} {
		created, err := m.Upsert(ctx, udid, true)
		require.NoError(t, err)
		assert.True(t, created, udid)

		d, ok, err := m.Get(ctx, udid)
		require.NoError(t, err)
		require.True(t, ok, udid)
		assert.Equal(t, model.Device{UDID: udid, Enrolled: true}, d)
	}
}

func TestMemory_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, err := m.Upsert(ctx, "ABC123", true)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.Upsert(ctx, "ABC123", false)
	require.NoError(t, err)
	assert.False(t, created)

	d, ok, err := m.Get(ctx, "ABC123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, d.Enrolled)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_GetAbsent(t *testing.T) {
	d, ok, err := NewMemory().Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, model.Device{}, d)
}

func TestMemory_ConcurrentUpsertCreatesOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	const workers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := m.Upsert(ctx, "SAME", i%2 == 0)
			assert.NoError(t, err)
			if c {
				mu.Lock()
				created++
				mu.Unlock()
			}
			_, _ = m.Upsert(ctx, fmt.Sprintf("dev-%d", i), true)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers+1, m.Len())
}
