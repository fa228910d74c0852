// Package pool provides the single bounded worker pool shared by every level
// of fan-out in a run: one task per list item, and one task per byte range
// inside an item.
package pool

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the total number of tasks in flight. Outer work enters through
// Submit and waits for a free slot; inner work enters through ForkJoin from a
// goroutine that already owns a slot.
type Pool struct {
	sem  *semaphore.Weighted
	size int
	wg   sync.WaitGroup
}

func New(size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}, nil
}

func (p *Pool) Size() int {
	return p.size
}

// Submit blocks until a slot is free, then runs task on its own goroutine.
// The only error is ctx ending before a slot was obtained.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		task()
	}()
	return nil
}

// Wait blocks until every submitted task has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// ForkJoin runs task(0..n-1) and returns once all of them finished. Each
// index gets its own goroutine when a slot is free; otherwise it runs on the
// calling goroutine, whose slot it borrows. In-flight work therefore never
// exceeds the pool size and nested fan-out cannot starve on its parent.
func (p *Pool) ForkJoin(n int, task func(i int)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if p.sem.TryAcquire(1) {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer p.sem.Release(1)
				task(i)
			}(i)
			continue
		}
		task(i)
	}
	wg.Wait()
}
