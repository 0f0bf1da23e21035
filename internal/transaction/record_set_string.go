package transaction

import (
	"github.com/kestreldb/kestrel/internal/file"
	"github.com/kestreldb/kestrel/internal/log"
)

// SetStringRecord logs a string modification, storing the overwritten
// value for undo.
// On-disk layout:
// [tag(4)] [txnum(4)] [filename(4+len)] [blknum(4)] [offset(4)] [oldval(4+len)]
type SetStringRecord struct {
	txNum    int
	blk      file.BlockID
	offset   int
	oldValue string
}

func newSetStringRecord(p *file.Page) (*SetStringRecord, error) {
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

	oldValue, err := p.GetString(offsetPos + file.IntSize)
	if err != nil {
		return nil, err
	}

	return &SetStringRecord{
		txNum:    txNum,
		blk:      file.NewBlockID(filename, blkNum),
		offset:   offset,
		oldValue: oldValue,
	}, nil
}

func (r *SetStringRecord) Op() RecordType {
	return LogRecordSetString
}

func (r *SetStringRecord) TxNumber() int {
	return r.txNum
}

// Undo writes the old value back to the block, unlogged.
func (r *SetStringRecord) Undo(tx *Transaction) error {
	if _, err := tx.Pin(r.blk); err != nil {
		return err
	}
	defer tx.Unpin(r.blk)

	return tx.SetString(r.blk, r.offset, r.oldValue, false)
}

// WriteSetStringRecord appends a set-string record to the log and
// returns its LSN. oldValue is the value about to be overwritten.
func WriteSetStringRecord(lm *log.Manager, txNum int, blk file.BlockID, offset int, oldValue string) (int, error) {
	txNumPos := recordTypeSize
	filenamePos := txNumPos + file.IntSize
	blkNumPos := filenamePos + file.MaxLength(len(blk.Filename()))
	offsetPos := blkNumPos + file.IntSize
	oldValuePos := offsetPos + file.IntSize

	p := file.NewPage(oldValuePos + file.MaxLength(len(oldValue)))
	if err := p.SetInt(0, int(LogRecordSetString)); err != nil {
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
	if err := p.SetString(oldValuePos, oldValue); err != nil {
		return 0, err
	}

	return lm.Append(p.Contents())
}
