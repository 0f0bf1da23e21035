package transaction

import (
	"github.com/kestreldb/kestrel/internal/buffer"
	"github.com/kestreldb/kestrel/internal/file"
)

// BufferList tracks the buffers a transaction has pinned. Each call to
// Pin records one pin; the matching Unpin releases exactly one, and the
// buffer manager pin is given back only when the last one goes.
type BufferList struct {
	bm      *buffer.Manager
	buffers map[file.BlockID]*buffer.Buffer
	pins    map[file.BlockID]int
}

func NewBufferList(bm *buffer.Manager) *BufferList {
	return &BufferList{
		bm:      bm,
		buffers: make(map[file.BlockID]*buffer.Buffer),
		pins:    make(map[file.BlockID]int),
	}
}

// GetBuffer returns the pinned buffer holding blk, or nil if the
// transaction has not pinned it.
func (bl *BufferList) GetBuffer(blk file.BlockID) *buffer.Buffer {
	return bl.buffers[blk]
}

// Pin pins blk and records the pin. Repeated pins of the same block
// reuse the buffer manager pin.
func (bl *BufferList) Pin(blk file.BlockID) (*buffer.Buffer, error) {
	if count, pinned := bl.pins[blk]; pinned {
		bl.pins[blk] = count + 1
		return bl.buffers[blk], nil
	}

	buff, err := bl.bm.Pin(blk)
	if err != nil {
		return nil, err
	}
	bl.buffers[blk] = buff
	bl.pins[blk] = 1
	return buff, nil
}

// Unpin removes one recorded pin of blk, releasing the buffer when the
// count reaches zero.
func (bl *BufferList) Unpin(blk file.BlockID) {
	count, pinned := bl.pins[blk]
	if !pinned {
		return
	}

	if count > 1 {
		bl.pins[blk] = count - 1
		return
	}

	bl.bm.Unpin(bl.buffers[blk])
	delete(bl.buffers, blk)
	delete(bl.pins, blk)
}

// UnpinAll releases every outstanding pin the transaction holds.
func (bl *BufferList) UnpinAll() {
	for _, buff := range bl.buffers {
		bl.bm.Unpin(buff)
	}
	bl.buffers = make(map[file.BlockID]*buffer.Buffer)
	bl.pins = make(map[file.BlockID]int)
}
