package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_StartsAtEpoch(t *testing.T) {
	clock := NewFakeClock(time.Time{})
	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch, clock.Now(), "time does not move on its own")
}

func TestFakeClock_Advance(t *testing.T) {
	clock := NewFakeClock(Epoch)

	got := clock.Advance(300 * time.Millisecond)
	assert.Equal(t, Epoch.Add(300*time.Millisecond), got)
	assert.Equal(t, got, clock.Now())

	clock.Set(Epoch)
	assert.Equal(t, Epoch, clock.Now())
}

func TestFakeClock_ConcurrentAdvance(t *testing.T) {
	clock := NewFakeClock(Epoch)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Advance(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
}

func TestSequenceIDs_NodePrefix(t *testing.T) {
	ids := NewSequenceIDs("node")
	assert.Equal(t, "node-1", ids.NewID())
	assert.Equal(t, "node-2", ids.NewID())

	ids.Reset()
	assert.Equal(t, "node-1", ids.NewID())

	assert.Equal(t, "id-1", NewSequenceIDs("").NewID())
}
