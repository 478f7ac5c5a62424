package dedupe

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Seen(t *testing.T) {
	f := NewFilter(100, 0.01)

	assert.False(t, f.Seen("QAB1CD2EF3"))
	assert.True(t, f.Seen("QAB1CD2EF3"))
	assert.False(t, f.Seen("QAB1CD2EF4"))
	assert.Equal(t, 2, f.Stats().Tracked)
}

func TestFilter_EmptyReferenceNeverDuplicate(t *testing.T) {
	f := NewFilter(10, 0.01)
	assert.False(t, f.Seen(""))
	assert.False(t, f.Seen(""))
	assert.Equal(t, 0, f.Stats().Tracked)
}

func TestFilter_Defaults(t *testing.T) {
	f := NewFilter(0, 2)
	assert.Equal(t, DefaultCapacity, f.capacity)
	assert.Equal(t, DefaultFalsePositiveRate, f.fpRate)
}

func TestFilter_ForgetAndReset(t *testing.T) {
	f := NewFilter(10, 0.01)
	f.Seen("ABCDEFGH1")
	f.Forget("ABCDEFGH1")
	assert.False(t, f.Seen("ABCDEFGH1"), "forgotten reference is accepted again")
	assert.True(t, f.Seen("ABCDEFGH1"))

	f.Reset()
	assert.Equal(t, Stats{}, f.Stats())
	assert.False(t, f.Seen("ABCDEFGH1"))
}

func TestFilter_NoFalseDuplicatesWhenOverfilled(t *testing.T) {
	// A tiny filter saturates quickly; the exact set must still keep every
	// distinct reference unique.
	f := NewFilter(8, 0.5)
	for i := 0; i < 500; i++ {
		assert.False(t, f.Seen(fmt.Sprintf("REF%08d", i)))
	}
	s := f.Stats()
	assert.Equal(t, 500, s.Tracked)
	assert.Equal(t, uint64(500), s.PrefilterRejected+s.FalsePositives)
}

func TestFilter_Concurrent(t *testing.T) {
	f := NewFilter(1000, 0.01)
	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := 0

	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if !f.Seen(fmt.Sprintf("REF%08d", i)) {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, fresh)
}
