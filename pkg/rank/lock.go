package rank

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ownerLocks serializes ranking runs per owner. Entries are dropped once no
// caller holds or waits on them.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*ownerLock)}
}

// acquire blocks until owner's lock is free or ctx is done. The returned
// func releases it.
func (l *ownerLocks) acquire(ctx context.Context, owner string) (func(), error) {
	l.mu.Lock()
	ol, ok := l.locks[owner]
	if !ok {
		ol = &ownerLock{sem: semaphore.NewWeighted(1)}
		l.locks[owner] = ol
	}
	ol.refs++
	l.mu.Unlock()

	if err := ol.sem.Acquire(ctx, 1); err != nil {
		l.drop(owner, ol)
		return nil, err
	}
	return func() {
		ol.sem.Release(1)
		l.drop(owner, ol)
	}, nil
}

func (l *ownerLocks) drop(owner string, ol *ownerLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ol.refs--
	if ol.refs == 0 {
		delete(l.locks, owner)
	}
}

func (l *ownerLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
