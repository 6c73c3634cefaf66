package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/teampulse/internal/domain/model"
)

func job(group string) model.RefreshJob {
	return model.RefreshJob{JobID: "job-" + group, GroupID: group, Reason: model.ReasonContribution, EnqueuedAt: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, job("Group_A")) {
		t.Fatal("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.GroupID != "Group_A" {
		t.Errorf("expected Group_A, got %v", got.GroupID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_CoalescesPendingGroup(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if !q.Enqueue(ctx, job("Group_A")) {
			t.Fatalf("enqueue %d: expected pending group to be absorbed", i)
		}
	}
	if l := q.Len(ctx); l != 1 {
		t.Fatalf("expected one pending job, got %d", l)
	}

	dctx, cancel := context.WithCancel(ctx)
	<-q.Dequeue(dctx)
	cancel()
	if !q.Enqueue(ctx, job("Group_A")) {
		t.Fatal("expected group to be accepted again after dequeue")
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("g1")) || !q.Enqueue(ctx, job("g2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, job("g3")) {
		t.Error("expected enqueue to fail when full")
	}
	if err := Reject(q, "g3"); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const producers, groupsEach = 10, 20
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < groupsEach; j++ {
				for !q.Enqueue(ctx, job(fmt.Sprintf("g%d_%d", id, j))) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	var mu sync.Mutex
	seen := make(map[string]bool)
	for i := 0; i < 4; i++ {
		go func() {
			for j := range q.Dequeue(ctx) {
				mu.Lock()
				seen[j.GroupID] = true
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == producers*groupsEach {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected %d distinct groups, consumed %d", producers*groupsEach, n)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("g1")) || !q.Enqueue(ctx, job("g2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, job("g3")) {
		t.Error("expected enqueue to fail after closing")
	}
	if err := Reject(q, "g3"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	drained := 0
	timeout := time.After(time.Second)
	ch := q.Dequeue(ctx)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if drained != 2 {
					t.Errorf("expected 2 drained jobs, got %d", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained++
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
