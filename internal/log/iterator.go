package log

import (
	"github.com/kestreldb/kestrel/internal/file"
)

// Iterator walks the log records from newest to oldest: it starts at
// the boundary of the current block, advances record by record toward
// the end of the block, then moves to the previous block, stopping
// after block 0.
type Iterator struct {
	fm         *file.Manager
	blk        file.BlockID
	page       *file.Page
	currentPos int
}

func newIterator(fm *file.Manager, blk file.BlockID) (*Iterator, error) {
	it := &Iterator{
		fm:   fm,
		blk:  blk,
		page: file.NewPage(fm.BlockSize()),
	}
	if err := it.moveToBlock(blk); err != nil {
		return nil, err
	}
	return it, nil
}

// HasNext reports whether another record is available, either in the
// current block or in an earlier one.
func (it *Iterator) HasNext() bool {
	return it.currentPos < it.fm.BlockSize() || it.blk.Number() > 0
}

// Next returns the next record, moving to the previous block when the
// current one is exhausted.
func (it *Iterator) Next() ([]byte, error) {
	if it.currentPos >= it.fm.BlockSize() {
		it.blk = file.NewBlockID(it.blk.Filename(), it.blk.Number()-1)
		if err := it.moveToBlock(it.blk); err != nil {
			return nil, err
		}
	}

	rec, err := it.page.GetBytes(it.currentPos)
	if err != nil {
		return nil, err
	}
	it.currentPos += file.IntSize + len(rec)
	return rec, nil
}

// moveToBlock reads blk and positions the iterator at its boundary,
// the newest record of that block.
func (it *Iterator) moveToBlock(blk file.BlockID) error {
	if err := it.fm.Read(blk, it.page); err != nil {
		return err
	}
	boundary, err := it.page.GetInt(0)
	if err != nil {
		return err
	}
	it.currentPos = boundary
	return nil
}
