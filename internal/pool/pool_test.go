package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct{ n int }

func TestAllocFreeAllocRoundTrip(t *testing.T) {
	p := New[widget]()

	h1, w1 := p.Alloc()
	w1.n = 7
	require.Equal(t, 1, p.Len())

	require.NoError(t, p.Free(h1))
	require.Equal(t, 0, p.Len())

	h2, w2 := p.Alloc()
	w2.n = 9
	assert.Equal(t, h1, h2, "freed handle should be reused by the next Alloc")

	got, ok := p.Get(h2)
	require.True(t, ok)
	assert.Equal(t, 9, got.n)
}

func TestDoubleFreeRejected(t *testing.T) {
	p := New[widget]()
	h, _ := p.Alloc()
	require.NoError(t, p.Free(h))
	assert.Error(t, p.Free(h))
}

func TestStaleHandleAfterFree(t *testing.T) {
	p := New[widget]()
	h, _ := p.Alloc()
	require.NoError(t, p.Free(h))

	_, ok := p.Get(h)
	assert.False(t, ok, "a freed handle must never resolve to a live object")
}

func TestSlabOverflowAllocatesNewSlab(t *testing.T) {
	p := New[widget]()
	handles := make([]Handle, 0, slotsPerSlab+5)
	for i := 0; i < slotsPerSlab+5; i++ {
		h, w := p.Alloc()
		w.n = i
		handles = append(handles, h)
	}
	require.Equal(t, slotsPerSlab+5, p.Len())

	seen := map[Handle]bool{}
	for _, h := range handles {
		assert.False(t, seen[h], "handle %#x allocated twice", uint32(h))
		seen[h] = true
	}
}

func TestEachVisitsOnlyLiveSlots(t *testing.T) {
	p := New[widget]()
	h1, w1 := p.Alloc()
	w1.n = 1
	h2, w2 := p.Alloc()
	w2.n = 2
	require.NoError(t, p.Free(h1))

	seen := map[int]bool{}
	p.Each(func(h Handle, w *widget) {
		seen[w.n] = true
		assert.Equal(t, h2, h)
	})
	assert.Equal(t, map[int]bool{2: true}, seen)
}
