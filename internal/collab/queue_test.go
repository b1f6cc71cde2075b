package collab

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalQueue_FIFO(t *testing.T) {
	q := NewSignalQueue()
	q.Emit(Signal{Kind: SignalCombat, ID: "pirate_ambush", Seq: 1})
	q.Emit(Signal{Kind: SignalPuzzle, ID: "airlock_cipher", Seq: 2})

	s, ok := q.TryNext()
	require.True(t, ok)
	assert.Equal(t, "pirate_ambush", s.ID)

	s, ok = q.TryNext()
	require.True(t, ok)
	assert.Equal(t, "airlock_cipher", s.ID)

	_, ok = q.TryNext()
	assert.False(t, ok)
}

func TestSignalQueue_Drain(t *testing.T) {
	q := NewSignalQueue()
	for i := int64(1); i <= 3; i++ {
		q.Emit(Signal{Kind: SignalCombat, ID: "e", Seq: i})
	}

	got := q.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, int64(3), got[2].Seq)
	assert.Equal(t, 0, q.Len())
}

func TestSignalQueue_WaitWakesConsumer(t *testing.T) {
	q := NewSignalQueue()
	done := make(chan Signal, 1)

	go func() {
		for {
			if s, ok := q.TryNext(); ok {
				done <- s
				return
			}
			<-q.Wait()
		}
	}()

	q.Emit(Signal{Kind: SignalEnding, ID: "void_collapse"})

	select {
	case s := <-done:
		assert.Equal(t, "void_collapse", s.ID)
	case <-time.After(time.Second):
		t.Fatal("consumer was not woken")
	}
}

func TestSignalQueue_CloseDropsLaterSignals(t *testing.T) {
	q := NewSignalQueue()
	q.Close()
	q.Close()
	q.Emit(Signal{Kind: SignalCombat, ID: "late"})
	assert.Equal(t, 0, q.Len())

	_, open := <-q.Wait()
	assert.False(t, open)
}

func TestSignalQueue_ConcurrentEmit(t *testing.T) {
	q := NewSignalQueue()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Emit(Signal{Kind: SignalPuzzle, ID: "p"})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, q.Len())
}
