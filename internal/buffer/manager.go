package buffer

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kestreldb/kestrel/internal/file"
	"github.com/kestreldb/kestrel/internal/log"
)

// ErrBufferAbort is returned when a pin request could not be satisfied
// within the wait deadline. The caller should roll back its transaction.
var ErrBufferAbort = errors.New("buffer abort: no buffer available")

const maxWaitTime = 10 * time.Second

// Manager maintains a fixed pool of frames. Pinning a block either
// finds the frame already holding it or claims an unpinned frame,
// flushing the frame's previous contents if dirty. When every frame is
// pinned, Pin waits up to the deadline before giving up.
type Manager struct {
	pool         []*Buffer
	numAvailable int
	maxWait      time.Duration
	mu           sync.Mutex
	cond         *sync.Cond
}

func NewManager(fm *file.Manager, lm *log.Manager, numBuffers int) (*Manager, error) {
	if numBuffers <= 0 {
		return nil, errors.New("buffer pool size must be positive")
	}

	pool := make([]*Buffer, 0, numBuffers)
	for range numBuffers {
		pool = append(pool, NewBuffer(fm, lm))
	}

	bm := &Manager{
		pool:         pool,
		numAvailable: numBuffers,
		maxWait:      maxWaitTime,
	}
	bm.cond = sync.NewCond(&bm.mu)
	return bm, nil
}

// Available returns the number of unpinned frames.
func (bm *Manager) Available() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.numAvailable
}

// FlushAll writes out every frame dirtied by the given transaction.
func (bm *Manager) FlushAll(txNum int) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for _, buff := range bm.pool {
		if buff.ModifyingTx() == txNum {
			if err := buff.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Unpin releases one pin on the frame. A frame whose pin count drops to
// zero becomes a replacement candidate and waiters are woken.
func (bm *Manager) Unpin(buff *Buffer) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	buff.unpin()
	if !buff.IsPinned() {
		bm.numAvailable++
		bm.cond.Broadcast()
	}
}

// Pin pins a frame to the given block, waiting up to the deadline for a
// frame to become available. Returns ErrBufferAbort on timeout.
func (bm *Manager) Pin(blk file.BlockID) (*Buffer, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	start := time.Now()
	buff, err := bm.tryToPin(blk)
	if err != nil {
		return nil, err
	}

	for buff == nil && time.Since(start) < bm.maxWait {
		// sync.Cond has no timed wait, so arrange a wakeup to re-check
		// the deadline.
		go func() {
			time.Sleep(100 * time.Millisecond)
			bm.cond.Broadcast()
		}()

		bm.cond.Wait()
		buff, err = bm.tryToPin(blk)
		if err != nil {
			return nil, err
		}
	}

	if buff == nil {
		logrus.WithField("block", blk.String()).Warn("pin timed out waiting for a free buffer")
		return nil, errors.Wrapf(ErrBufferAbort, "pin %v", blk)
	}
	return buff, nil
}

// tryToPin pins the block if a frame can be found for it right now.
// Returns nil when every frame is pinned. Assumes the mutex is held.
func (bm *Manager) tryToPin(blk file.BlockID) (*Buffer, error) {
	buff := bm.findExistingBuffer(blk)
	if buff == nil {
		buff = bm.chooseUnpinnedBuffer()
		if buff == nil {
			return nil, nil
		}
		if err := buff.assignToBlock(blk); err != nil {
			return nil, err
		}
	}

	if !buff.IsPinned() {
		bm.numAvailable--
	}
	buff.pin()

	return buff, nil
}

func (bm *Manager) findExistingBuffer(blk file.BlockID) *Buffer {
	for _, b := range bm.pool {
		if b.Block() != nil && b.Block().Equals(blk) {
			return b
		}
	}
	return nil
}

// chooseUnpinnedBuffer returns the first unpinned frame in scan order.
func (bm *Manager) chooseUnpinnedBuffer() *Buffer {
	for _, b := range bm.pool {
		if !b.IsPinned() {
			return b
		}
	}
	return nil
}
