package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := New[int]()
	assert.True(t, q.IsEmpty())

	for i := 1; i <= 3; i++ {
		q.Enqueue(i)
	}
	require.Equal(t, 3, q.Len())

	front, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, front)

	for want := 1; want <= 3; want++ {
		got, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestBoundedQueueDropsOldest(t *testing.T) {
	q := NewBounded[string](2)
	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")

	assert.Equal(t, []string{"b", "c"}, q.Items())
}

func TestQueueReadySignal(t *testing.T) {
	q := New[int]()
	q.Enqueue(1)

	select {
	case <-q.Ready():
	default:
		t.Fatal("expected ready signal after enqueue")
	}
}

func TestQueueConcurrentEnqueue(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Enqueue(j)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, q.Len())
}
