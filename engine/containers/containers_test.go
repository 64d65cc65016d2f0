package containers

import (
	"errors"
	"testing"
)

func TestRingQueueOrder(t *testing.T) {
	rq := NewRingQueue[int](3)
	for i := 1; i <= 3; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := rq.Enqueue(4); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("enqueue on full queue:\nhave %v\nwant %v", err, ErrQueueFull)
	}
	for want := 1; want <= 3; want++ {
		have, err := rq.Dequeue()
		if err != nil || have != want {
			t.Fatalf("dequeue:\nhave %d, %v\nwant %d, nil", have, err, want)
		}
	}
	if _, err := rq.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("dequeue on empty queue:\nhave %v\nwant %v", err, ErrQueueEmpty)
	}
}

func TestRingQueuePushDropsOldest(t *testing.T) {
	rq := NewRingQueue[int](3)
	for i := 1; i <= 5; i++ {
		rq.Push(i)
	}
	var have []int
	rq.Each(func(v int) { have = append(have, v) })
	want := []int{3, 4, 5}
	if len(have) != len(want) {
		t.Fatalf("len:\nhave %v\nwant %v", have, want)
	}
	for i := range want {
		if have[i] != want[i] {
			t.Fatalf("contents:\nhave %v\nwant %v", have, want)
		}
	}
}

func TestStackLIFO(t *testing.T) {
	s := NewStack[uint32]()
	s.Push(4)
	s.Push(7)
	if top, ok := s.Peek(); !ok || top != 7 {
		t.Fatalf("peek:\nhave %d, %v\nwant 7, true", top, ok)
	}
	if v, _ := s.Pop(); v != 7 {
		t.Fatalf("first pop:\nhave %d\nwant 7", v)
	}
	if v, _ := s.Pop(); v != 4 {
		t.Fatalf("second pop:\nhave %d\nwant 4", v)
	}
	if _, ok := s.Pop(); ok {
		t.Fatalf("pop on empty stack reported ok")
	}
	s.Push(1)
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("len after clear:\nhave %d\nwant 0", s.Len())
	}
}
