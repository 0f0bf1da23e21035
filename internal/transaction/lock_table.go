package transaction

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kestreldb/kestrel/internal/file"
)

// ErrLockAbort is returned when a lock could not be granted within the
// wait deadline. The caller should roll back its transaction.
var ErrLockAbort = errors.New("lock abort: wait deadline exceeded")

// ErrLockNotHeld is returned when unlocking a block with no lock entry.
var ErrLockNotHeld = errors.New("lock not held")

const maxLockWaitTime = 10 * time.Second

// LockTable grants shared and exclusive locks on blocks. One instance
// is shared by every transaction in the process: it is the single
// scheduler of lock conflicts.
//
// Each entry counts holders: a positive value is the number of shared
// holders, -1 is one exclusive holder, absence means unlocked.
// Deadlocks are broken by timeout: a request that waits longer than the
// deadline fails with ErrLockAbort.
type LockTable struct {
	locks   map[file.BlockID]int
	waiters map[file.BlockID]chan struct{}
	maxWait time.Duration
	mu      sync.Mutex
}

func NewLockTable() *LockTable {
	return &LockTable{
		locks:   make(map[file.BlockID]int),
		waiters: make(map[file.BlockID]chan struct{}),
		maxWait: maxLockWaitTime,
	}
}

// SLock acquires a shared lock on blk, waiting while an exclusive lock
// is held.
func (lt *LockTable) SLock(blk file.BlockID) error {
	deadline := time.Now().Add(lt.maxWait)

	for {
		lt.mu.Lock()
		if !lt.hasXLock(blk) {
			lt.locks[blk]++
			lt.mu.Unlock()
			return nil
		}
		waiter := lt.waiter(blk)
		lt.mu.Unlock()

		if err := awaitNotify(waiter, deadline); err != nil {
			logrus.WithField("block", blk.String()).Warn("shared lock wait timed out")
			return errors.Wrapf(err, "slock %v", blk)
		}
	}
}

// XLock upgrades to an exclusive lock on blk. The caller must already
// hold a shared lock; XLock waits until it is the only holder left and
// then replaces its shared lock with the exclusive one.
func (lt *LockTable) XLock(blk file.BlockID) error {
	deadline := time.Now().Add(lt.maxWait)

	for {
		lt.mu.Lock()
		if !lt.hasOtherSLocks(blk) {
			lt.locks[blk] = -1
			lt.mu.Unlock()
			return nil
		}
		waiter := lt.waiter(blk)
		lt.mu.Unlock()

		if err := awaitNotify(waiter, deadline); err != nil {
			logrus.WithField("block", blk.String()).Warn("exclusive lock wait timed out")
			return errors.Wrapf(err, "xlock %v", blk)
		}
	}
}

// Unlock releases one hold on blk: the exclusive lock, or one of the
// shared locks. Waiters on the block are notified.
func (lt *LockTable) Unlock(blk file.BlockID) error {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	val, exists := lt.locks[blk]
	if !exists {
		return errors.Wrapf(ErrLockNotHeld, "unlock %v", blk)
	}

	if val > 1 {
		lt.locks[blk] = val - 1
	} else {
		delete(lt.locks, blk)
	}

	if waiter, ok := lt.waiters[blk]; ok {
		close(waiter)
		delete(lt.waiters, blk)
	}

	return nil
}

// HasXLock reports whether blk is exclusively locked.
func (lt *LockTable) HasXLock(blk file.BlockID) bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.hasXLock(blk)
}

// HasSLock reports whether blk has at least one shared holder.
func (lt *LockTable) HasSLock(blk file.BlockID) bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.locks[blk] > 0
}

func (lt *LockTable) hasXLock(blk file.BlockID) bool {
	return lt.locks[blk] < 0
}

// hasOtherSLocks reports whether any transaction besides the upgrading
// caller holds a shared lock on blk.
func (lt *LockTable) hasOtherSLocks(blk file.BlockID) bool {
	return lt.locks[blk] > 1
}

// waiter returns the notification channel for blk, creating it on
// first use. Assumes the mutex is held.
func (lt *LockTable) waiter(blk file.BlockID) chan struct{} {
	if lt.waiters[blk] == nil {
		lt.waiters[blk] = make(chan struct{}, 1)
	}
	return lt.waiters[blk]
}

// awaitNotify blocks until the waiter channel fires or the deadline
// passes, in which case it returns ErrLockAbort.
func awaitNotify(waiter chan struct{}, deadline time.Time) error {
	timeout := time.Until(deadline)
	if timeout <= 0 {
		return ErrLockAbort
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-waiter:
		return nil
	case <-timer.C:
		return ErrLockAbort
	}
}
