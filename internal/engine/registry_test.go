package engine_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardsim/internal/engine"
	"wardsim/internal/testutil"
)

func newRegistrySession(t *testing.T, id string) *engine.Session {
	t.Helper()
	start := mustTime(t, "2024-03-15T20:00:00")
	src := testutil.NewFakeTimeSource(mustTime(t, "2024-06-01T09:00:00"))
	return engine.NewSession(id, "night_shift", engine.NewClock(start, src))
}

func TestRegistryAddGet(t *testing.T) {
	reg := engine.NewRegistry()
	sess := newRegistrySession(t, "sess_1")
	reg.Add(sess)

	got, err := reg.Get("sess_1")
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := engine.NewRegistry()

	_, err := reg.Get("sess_missing")
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
	assert.Equal(t, engine.ErrCodeSessionNotFound, engine.CodeOf(err))
}

func TestRegistryDelete(t *testing.T) {
	reg := engine.NewRegistry()
	reg.Add(newRegistrySession(t, "sess_1"))

	require.NoError(t, reg.Delete("sess_1"))
	assert.Equal(t, 0, reg.Count())

	err := reg.Delete("sess_1")
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestRegistryList(t *testing.T) {
	reg := engine.NewRegistry()
	reg.Add(newRegistrySession(t, "sess_1"))
	reg.Add(newRegistrySession(t, "sess_2"))

	states := reg.List()
	require.Len(t, states, 2)
	ids := map[string]bool{}
	for _, st := range states {
		ids[st.SessionID] = true
	}
	assert.True(t, ids["sess_1"])
	assert.True(t, ids["sess_2"])
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := engine.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("sess_%d", n)
			reg.Add(newRegistrySession(t, id))
			_, _ = reg.Get(id)
			_ = reg.List()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, reg.Count())
}
