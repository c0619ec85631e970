package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator_AddAndFlush(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(PushSent, 3)
	acc.Add(PushSent, 2)
	acc.Add(PushCleaned, 1)

	counters := acc.Flush()
	assert.Equal(t, int64(5), counters[PushSent])
	assert.Equal(t, int64(1), counters[PushCleaned])

	// Flush resets.
	assert.Empty(t, acc.Flush())
	assert.Equal(t, int64(0), acc.Get(PushSent))
}

func TestAccumulator_NilReceiverIsNoop(t *testing.T) {
	var acc *Accumulator
	assert.NotPanics(t, func() { acc.Add(PushSent, 1) })
}

func TestAccumulator_ConcurrentAdds(t *testing.T) {
	acc := NewAccumulator()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc.Add(NotificationsWritten, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), acc.Get(NotificationsWritten))
}
