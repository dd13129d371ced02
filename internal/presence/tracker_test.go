package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinCountsEveryCall(t *testing.T) {
	tr := NewTracker(nil)
	for i := 1; i <= 5; i++ {
		assert.Equal(t, i, tr.Join("R"))
	}
	assert.Equal(t, 5, tr.Count("R"))
}

func TestLeaveNeverGoesNegative(t *testing.T) {
	tr := NewTracker(nil)

	assert.Equal(t, 0, tr.Leave("empty"))
	assert.Equal(t, 0, tr.Count("empty"))
	assert.False(t, tr.Has("empty"))
	assert.Equal(t, 0, tr.Len())
}

func TestStudioScenario(t *testing.T) {
	tr := NewTracker(nil)

	tr.Join("studio-1")
	tr.Join("studio-1")
	tr.Join("studio-1")
	tr.Leave("studio-1")
	assert.Equal(t, 2, tr.Count("studio-1"))

	tr.Join("studio-2")
	tr.Leave("studio-2")
	assert.Equal(t, 0, tr.Count("studio-2"))
	assert.False(t, tr.Has("studio-2"), "room at zero must be removed")
	assert.True(t, tr.Has("studio-1"))
	assert.Equal(t, 1, tr.Len())
}

func TestCountDoesNotMutate(t *testing.T) {
	tr := NewTracker(nil)
	for range 3 {
		assert.Equal(t, 0, tr.Count("ghost"))
	}
	assert.False(t, tr.Has("ghost"))
}

func TestApply(t *testing.T) {
	tr := NewTracker(nil)

	n, applied := tr.Apply("r", ActionJoin)
	assert.True(t, applied)
	assert.Equal(t, 1, n)

	n, applied = tr.Apply("r", Action("wave"))
	assert.False(t, applied)
	assert.Equal(t, 1, n)

	n, applied = tr.Apply("r", ActionLeave)
	assert.True(t, applied)
	assert.Equal(t, 0, n)
	assert.False(t, tr.Has("r"))
}

func TestConcurrentJoinLeave(t *testing.T) {
	tr := NewTracker(nil)

	const workers = 50
	var wg sync.WaitGroup
	for range workers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tr.Join("busy")
			tr.Join("busy")
		}()
		go func() {
			defer wg.Done()
			tr.Join("other")
		}()
	}
	wg.Wait()
	require.Equal(t, 2*workers, tr.Count("busy"))

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Leave("busy")
		}()
	}
	wg.Wait()
	assert.Equal(t, workers, tr.Count("busy"))
	assert.Equal(t, workers, tr.Count("other"))
}

type recordingObserver struct {
	mu      sync.Mutex
	updates []int
}

func (r *recordingObserver) SetViewers(_ string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, n)
}

func TestObserverSeesEveryChange(t *testing.T) {
	obs := &recordingObserver{}
	tr := NewTracker(obs)

	tr.Join("r")
	tr.Join("r")
	tr.Leave("r")
	tr.Leave("r")
	tr.Leave("r") // already absent, nothing to report

	assert.Equal(t, []int{1, 2, 1, 0}, obs.updates)
}
