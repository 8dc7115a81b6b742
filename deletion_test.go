package hellfire

import (
	"testing"
)

func TestDeletionQueueFlushOrder(t *testing.T) {
	var q DeletionQueue
	var order []int

	q.Push(func() { order = append(order, 1) })
	q.Push(func() { order = append(order, 2) })
	q.Push(func() { order = append(order, 3) })

	q.Flush()

	if len(order) != 3 {
		t.Fatalf("expected 3 actions to run, got %d", len(order))
	}
	for i, want := range []int{3, 2, 1} {
		if order[i] != want {
			t.Errorf("action %d ran as %d, want %d", i, order[i], want)
		}
	}
}

func TestDeletionQueueReuse(t *testing.T) {
	var q DeletionQueue
	count := 0

	q.Push(func() { count++ })
	q.Flush()
	q.Flush()

	if count != 1 {
		t.Errorf("expected action to run once, ran %d times", count)
	}

	q.Push(func() { count++ })
	if q.Len() != 1 {
		t.Errorf("expected 1 queued action after reuse, got %d", q.Len())
	}
	q.Flush()

	if count != 2 {
		t.Errorf("expected 2 runs total, got %d", count)
	}
}

func TestDeletionQueueEmptyFlush(t *testing.T) {
	var q DeletionQueue
	q.Flush()

	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}
