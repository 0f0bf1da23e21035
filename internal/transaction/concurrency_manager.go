package transaction

import (
	"sync"

	"github.com/kestreldb/kestrel/internal/file"
)

type lockType string

const (
	sharedLock    lockType = "S"
	exclusiveLock lockType = "X"
)

// ConcurrencyManager implements strict two-phase locking for one
// transaction. It remembers which locks the transaction already holds
// so a block is never locked twice, and releases everything at once
// when the transaction completes. All ConcurrencyManagers share the
// process-wide LockTable.
type ConcurrencyManager struct {
	lockTable *LockTable
	locks     map[file.BlockID]lockType
	mu        sync.Mutex
}

func NewConcurrencyManager(lockTable *LockTable) *ConcurrencyManager {
	return &ConcurrencyManager{
		lockTable: lockTable,
		locks:     make(map[file.BlockID]lockType),
	}
}

// SLock obtains a shared lock on blk unless the transaction already
// holds a lock on it.
func (cm *ConcurrencyManager) SLock(blk file.BlockID) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	return cm.sLock(blk)
}

// XLock obtains an exclusive lock on blk. A shared lock is acquired
// first, then upgraded; the lock table grants the upgrade once no other
// transaction holds the block.
func (cm *ConcurrencyManager) XLock(blk file.BlockID) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.locks[blk] == exclusiveLock {
		return nil
	}

	if err := cm.sLock(blk); err != nil {
		return err
	}
	if err := cm.lockTable.XLock(blk); err != nil {
		return err
	}
	cm.locks[blk] = exclusiveLock
	return nil
}

// Release gives back every lock the transaction holds.
func (cm *ConcurrencyManager) Release() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for blk := range cm.locks {
		if err := cm.lockTable.Unlock(blk); err != nil {
			return err
		}
	}
	cm.locks = make(map[file.BlockID]lockType)

	return nil
}

// sLock assumes the manager's mutex is held.
func (cm *ConcurrencyManager) sLock(blk file.BlockID) error {
	if _, held := cm.locks[blk]; held {
		return nil
	}

	if err := cm.lockTable.SLock(blk); err != nil {
		return err
	}
	cm.locks[blk] = sharedLock
	return nil
}
