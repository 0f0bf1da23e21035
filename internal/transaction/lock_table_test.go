package transaction

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestreldb/kestrel/internal/file"
)

func TestLockTable_SharedLocksCoexist(t *testing.T) {
	lt := NewLockTable()
	blk := file.NewBlockID("testfile", 1)

	var wg sync.WaitGroup
	const holders = 5
	for range holders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, lt.SLock(blk))
		}()
	}
	wg.Wait()

	assert.True(t, lt.HasSLock(blk))
	assert.False(t, lt.HasXLock(blk))

	for range holders {
		require.NoError(t, lt.Unlock(blk))
	}
	assert.False(t, lt.HasSLock(blk))
}

func TestLockTable_UpgradeWaitsForOtherSharers(t *testing.T) {
	lt := NewLockTable()
	blk := file.NewBlockID("testfile", 1)

	// The upgrader's own shared lock plus two others.
	require.NoError(t, lt.SLock(blk))
	require.NoError(t, lt.SLock(blk))
	require.NoError(t, lt.SLock(blk))

	upgraded := make(chan error, 1)
	go func() {
		upgraded <- lt.XLock(blk)
	}()

	time.Sleep(100 * time.Millisecond)
	select {
	case <-upgraded:
		t.Fatal("exclusive lock granted while other sharers remain")
	default:
	}

	// Release the two other sharers; the upgrade should go through.
	require.NoError(t, lt.Unlock(blk))
	require.NoError(t, lt.Unlock(blk))

	require.NoError(t, <-upgraded)
	assert.True(t, lt.HasXLock(blk))

	// The exclusive lock absorbed the upgrader's shared lock: one
	// unlock releases everything.
	require.NoError(t, lt.Unlock(blk))
	assert.False(t, lt.HasXLock(blk))
	assert.False(t, lt.HasSLock(blk))
}

func TestLockTable_SharedWaitsForExclusive(t *testing.T) {
	lt := NewLockTable()
	blk := file.NewBlockID("testfile", 1)

	require.NoError(t, lt.SLock(blk))
	require.NoError(t, lt.XLock(blk))

	granted := make(chan error, 1)
	go func() {
		granted <- lt.SLock(blk)
	}()

	time.Sleep(100 * time.Millisecond)
	select {
	case <-granted:
		t.Fatal("shared lock granted while exclusive lock held")
	default:
	}

	require.NoError(t, lt.Unlock(blk))
	require.NoError(t, <-granted)
	assert.True(t, lt.HasSLock(blk))
}

func TestLockTable_WaitTimesOut(t *testing.T) {
	lt := NewLockTable()
	lt.maxWait = 200 * time.Millisecond
	blk := file.NewBlockID("testfile", 1)

	require.NoError(t, lt.SLock(blk))
	require.NoError(t, lt.XLock(blk))

	start := time.Now()
	err := lt.SLock(blk)
	assert.ErrorIs(t, err, ErrLockAbort)
	assert.GreaterOrEqual(t, time.Since(start), lt.maxWait)

	// An upgrade blocked by other sharers times out the same way.
	blk2 := file.NewBlockID("testfile", 2)
	require.NoError(t, lt.SLock(blk2))
	require.NoError(t, lt.SLock(blk2))
	err = lt.XLock(blk2)
	assert.ErrorIs(t, err, ErrLockAbort)
}

func TestLockTable_UnlockWithoutLock(t *testing.T) {
	lt := NewLockTable()
	err := lt.Unlock(file.NewBlockID("testfile", 9))
	assert.ErrorIs(t, err, ErrLockNotHeld)
}

func TestLockTable_EndOfFileSentinelIsPerFile(t *testing.T) {
	lt := NewLockTable()
	eofA := file.NewBlockID("filea", endOfFileBlockNum)
	eofB := file.NewBlockID("fileb", endOfFileBlockNum)

	require.NoError(t, lt.SLock(eofA))
	require.NoError(t, lt.XLock(eofA))

	// Locking the end of one file does not affect another.
	require.NoError(t, lt.SLock(eofB))
	assert.True(t, lt.HasXLock(eofA))
	assert.True(t, lt.HasSLock(eofB))
}
