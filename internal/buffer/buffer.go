package buffer

import (
	"github.com/pkg/errors"

	"github.com/kestreldb/kestrel/internal/file"
	"github.com/kestreldb/kestrel/internal/log"
)

// ErrNoAssignedBlock is returned when a dirty frame is flushed without
// a block assigned to it.
var ErrNoAssignedBlock = errors.New("buffer has no assigned block")

// Buffer is one frame of the buffer pool: a page plus the identity of
// the block it holds, its pin count, and the transaction and LSN of the
// latest modification. txNum is -1 while the frame is clean, lsn is -1
// until a logged modification happens.
type Buffer struct {
	fm       *file.Manager
	lm       *log.Manager
	contents *file.Page
	blk      *file.BlockID
	pins     int
	txNum    int
	lsn      int
}

func NewBuffer(fm *file.Manager, lm *log.Manager) *Buffer {
	return &Buffer{
		fm:       fm,
		lm:       lm,
		contents: file.NewPage(fm.BlockSize()),
		txNum:    -1,
		lsn:      -1,
	}
}

// Contents returns the page held by this frame.
func (b *Buffer) Contents() *file.Page {
	return b.contents
}

// Block returns the block currently assigned to this frame, or nil.
func (b *Buffer) Block() *file.BlockID {
	return b.blk
}

func (b *Buffer) IsPinned() bool {
	return b.pins > 0
}

// SetModified marks the frame dirty on behalf of txNum. A non-negative
// lsn records the most recent logged change, so that flushing the frame
// forces the log that far first.
func (b *Buffer) SetModified(txNum int, lsn int) {
	b.txNum = txNum
	if lsn >= 0 {
		b.lsn = lsn
	}
}

// ModifyingTx returns the transaction that dirtied this frame, or -1.
func (b *Buffer) ModifyingTx() int {
	return b.txNum
}

// assignToBlock flushes any pending change and then loads the given
// block into the frame.
func (b *Buffer) assignToBlock(blk file.BlockID) error {
	if err := b.flush(); err != nil {
		return err
	}
	b.blk = &blk
	if err := b.fm.Read(blk, b.contents); err != nil {
		return errors.Wrapf(err, "load %v into buffer", blk)
	}
	b.pins = 0
	return nil
}

// flush writes the frame's page to disk if it is dirty. The log is
// flushed up to the frame's LSN first, preserving the write-ahead
// discipline.
func (b *Buffer) flush() error {
	if b.txNum < 0 {
		return nil
	}
	if b.blk == nil {
		return ErrNoAssignedBlock
	}
	if err := b.lm.Flush(b.lsn); err != nil {
		return err
	}
	if err := b.fm.Write(*b.blk, b.contents); err != nil {
		return err
	}
	b.txNum = -1
	return nil
}

func (b *Buffer) pin() {
	b.pins++
}

func (b *Buffer) unpin() {
	b.pins--
}
