package transaction

import (
	"github.com/kestreldb/kestrel/internal/file"
	"github.com/kestreldb/kestrel/internal/log"
)

// SetIntRecord logs an integer modification. It stores the value that
// was overwritten, so undoing the record restores the block to its
// state before the change.
// On-disk layout:
// [tag(4)] [txnum(4)] [filename(4+len)] [blknum(4)] [offset(4)] [oldval(4)]
type SetIntRecord struct {
	txNum    int
	blk      file.BlockID
	offset   int
	oldValue int
}

func newSetIntRecord(p *file.Page) (*SetIntRecord, error) {
	txNumPos := recordTypeSize
	txNum, err := p.GetInt(txNumPos)
	if err != nil {
		return nil, err
	}

	filenamePos := txNumPos + file.IntSize
	filename, err := p.GetString(filenamePos)
	if err != nil {
		return nil, err
	}

	blkNumPos := filenamePos + file.MaxLength(len(filename))
	blkNum, err := p.GetInt(blkNumPos)
	if err != nil {
		return nil, err
	}

	offsetPos := blkNumPos + file.IntSize
	offset, err := p.GetInt(offsetPos)
	if err != nil {
		return nil, err
	}

	oldValue, err := p.GetInt(offsetPos + file.IntSize)
	if err != nil {
		return nil, err
	}

	return &SetIntRecord{
		txNum:    txNum,
		blk:      file.NewBlockID(filename, blkNum),
		offset:   offset,
		oldValue: oldValue,
	}, nil
}

func (r *SetIntRecord) Op() RecordType {
	return LogRecordSetInt
}

func (r *SetIntRecord) TxNumber() int {
	return r.txNum
}

// Undo writes the old value back to the block. The write is not logged:
// restart recovery re-applies undos from the log instead.
func (r *SetIntRecord) Undo(tx *Transaction) error {
	if _, err := tx.Pin(r.blk); err != nil {
		return err
	}
	defer tx.Unpin(r.blk)

	return tx.SetInt(r.blk, r.offset, r.oldValue, false)
}

// WriteSetIntRecord appends a set-int record to the log and returns its
// LSN. oldValue is the value about to be overwritten.
func WriteSetIntRecord(lm *log.Manager, txNum int, blk file.BlockID, offset int, oldValue int) (int, error) {
	txNumPos := recordTypeSize
	filenamePos := txNumPos + file.IntSize
	blkNumPos := filenamePos + file.MaxLength(len(blk.Filename()))
	offsetPos := blkNumPos + file.IntSize
	oldValuePos := offsetPos + file.IntSize

	p := file.NewPage(oldValuePos + file.IntSize)
	if err := p.SetInt(0, int(LogRecordSetInt)); err != nil {
		return 0, err
	}
	if err := p.SetInt(txNumPos, txNum); err != nil {
		return 0, err
	}
	if err := p.SetString(filenamePos, blk.Filename()); err != nil {
		return 0, err
	}
	if err := p.SetInt(blkNumPos, blk.Number()); err != nil {
		return 0, err
	}
	if err := p.SetInt(offsetPos, offset); err != nil {
		return 0, err
	}
	if err := p.SetInt(oldValuePos, oldValue); err != nil {
		return 0, err
	}

	return lm.Append(p.Contents())
}
