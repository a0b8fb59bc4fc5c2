package dedupe

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddFirstSightThenDuplicate(t *testing.T) {
	c := New(8)

	assert.True(t, c.Add("trace-a", "span-1"))
	assert.False(t, c.Add("trace-a", "span-1"))
	assert.True(t, c.Add("trace-a", "span-2"))
	assert.True(t, c.Add("trace-b", "span-1"), "same span id under another trace is distinct")
	assert.Equal(t, 3, c.Len())
}

func TestAddEmptyTraceSkipsDedup(t *testing.T) {
	c := New(8)

	assert.True(t, c.Add("", "span-1"))
	assert.True(t, c.Add("", "span-1"), "no trace id means every sighting is new")
	assert.Equal(t, 0, c.Len())
}

func TestFIFOEviction(t *testing.T) {
	c := New(3)

	c.Add("t", "1")
	c.Add("t", "2")
	c.Add("t", "3")
	assert.Equal(t, 3, c.Len())

	// Inserting a fourth evicts the oldest pair.
	assert.True(t, c.Add("t", "4"))
	assert.Equal(t, 3, c.Len())

	// The evicted pair counts as new again; the younger ones are still known.
	assert.True(t, c.Add("t", "1"))
	assert.False(t, c.Add("t", "3"))
	assert.False(t, c.Add("t", "4"))
}

func TestReset(t *testing.T) {
	c := New(4)
	c.Add("t", "1")
	c.Add("t", "2")

	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Add("t", "1"))
}

func TestConcurrentAddClaimsOnce(t *testing.T) {
	c := New(128)

	const goroutines = 32
	var firsts atomic.Int64
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Add("trace-x", "span-contested") {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), firsts.Load(), "exactly one goroutine may claim a span")
}

func TestConcurrentAddDistinctSpans(t *testing.T) {
	c := New(1024)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 32 {
				c.Add("trace-y", fmt.Sprintf("span-%d-%d", i, j))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 16*32, c.Len())
}
