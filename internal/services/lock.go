package services

import (
	"sync"
	"time"

	apperrors "tirelire/internal/errors"
)

// lockTable serializes mutations per aggregate (a wallet, a
// transaction's split-set). Operations on different keys proceed
// independently; operations on the same key queue up to a wait budget
// and then fail with Busy so the caller can retry.
type lockTable struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[string]*lockEntry)}
}

// aggregateLocks is shared by every service instance in the process, so
// two services built over the same database still serialize the same
// aggregate. Keys are namespaced per aggregate kind ("wallet:", "split:").
// Locks are in-process only; a multi-process deployment needs external
// serialization.
var aggregateLocks = newLockTable()

// acquire blocks until the key's lock is held or the wait budget runs
// out. On success it returns a release function that must be called
// exactly once.
func (t *lockTable) acquire(key string, wait time.Duration) (func(), error) {
	t.mu.Lock()
	e, ok := t.entries[key]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		t.entries[key] = e
	}
	e.refs++
	t.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			t.put(key, e)
		}, nil
	case <-timer.C:
		t.put(key, e)
		return nil, apperrors.ErrBusy
	}
}

// put drops one reference and garbage-collects idle entries.
func (t *lockTable) put(key string, e *lockEntry) {
	t.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(t.entries, key)
	}
	t.mu.Unlock()
}

// acquireAll locks multiple keys in sorted order so two operations
// touching the same pair of aggregates can never deadlock.
func (t *lockTable) acquireAll(keys []string, wait time.Duration) (func(), error) {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	releases := make([]func(), 0, len(sorted))
	for _, key := range sorted {
		release, err := t.acquire(key, wait)
		if err != nil {
			for i := len(releases) - 1; i >= 0; i-- {
				releases[i]()
			}
			return nil, err
		}
		releases = append(releases, release)
	}
	return func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}, nil
}
