package props

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gainUpdate struct {
	Gain float32
}

func TestPublishSkippedWhenAlreadyClean(t *testing.T) {
	s := NewSlot[gainUpdate]()
	s.Clean().TestAndSetClean() // mark clean without a prior dirty mutation
	calls := 0
	s.Publish(func(u *gainUpdate) { calls++ })
	assert.Equal(t, 0, calls, "publish must no-op when the clean flag was already set")
}

func TestPublishThenAcquireSeesSnapshot(t *testing.T) {
	s := NewSlot[gainUpdate]()
	s.Clean().MarkDirty()
	s.Publish(func(u *gainUpdate) { u.Gain = 0.5 })

	var got gainUpdate
	applied := false
	s.Acquire(func(u *gainUpdate) {
		got = *u
		applied = true
	})
	require.True(t, applied)
	assert.Equal(t, float32(0.5), got.Gain)
}

func TestAcquireWithNothingPublishedIsNoop(t *testing.T) {
	s := NewSlot[gainUpdate]()
	calls := 0
	s.Acquire(func(u *gainUpdate) { calls++ })
	assert.Equal(t, 0, calls)
}

func TestRecycledStructIsReusedAcrossPublishAcquire(t *testing.T) {
	s := NewSlot[gainUpdate]()

	s.Clean().MarkDirty()
	s.Publish(func(u *gainUpdate) { u.Gain = 1 })
	var first *gainUpdate
	s.Acquire(func(u *gainUpdate) { first = u })

	s.Clean().MarkDirty()
	s.Publish(func(u *gainUpdate) { u.Gain = 2 })
	var second *gainUpdate
	s.Acquire(func(u *gainUpdate) { second = u })

	assert.Same(t, first, second, "the free-list should recycle the same struct")
}

func TestProcessUpdatesSetsPropsClean(t *testing.T) {
	s := NewSlot[gainUpdate]()
	s.Clean().MarkDirty()
	require.False(t, s.Clean().IsClean())
	s.Publish(func(u *gainUpdate) {})
	assert.True(t, s.Clean().IsClean())
}

func TestGenerationEvenOutsideMixOddWithin(t *testing.T) {
	var g Generation
	assert.Equal(t, uint64(0), g.Load())
	g.EnterMix()
	assert.Equal(t, uint64(1), g.Load()%2)
	g.ExitMix()
	assert.Equal(t, uint64(0), g.Load()%2)
}

func TestStableSnapshotWaitsForEvenGeneration(t *testing.T) {
	var g Generation
	g.EnterMix() // odd: a reader must block until ExitMix

	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan struct{})
	go func() {
		defer wg.Done()
		g.StableSnapshot(func() {})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("StableSnapshot returned while generation was odd")
	default:
	}

	g.ExitMix()
	wg.Wait()
}
