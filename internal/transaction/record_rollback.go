package transaction

import (
	"github.com/kestreldb/kestrel/internal/file"
	"github.com/kestreldb/kestrel/internal/log"
)

// RollbackRecord marks a transaction as rolled back.
// On-disk layout: [tag(4)] [txnum(4)]
type RollbackRecord struct {
	txNum int
}

func newRollbackRecord(p *file.Page) (*RollbackRecord, error) {
	txNum, err := p.GetInt(recordTypeSize)
	if err != nil {
		return nil, err
	}
	return &RollbackRecord{txNum: txNum}, nil
}

func (r *RollbackRecord) Op() RecordType {
	return LogRecordRollback
}

func (r *RollbackRecord) TxNumber() int {
	return r.txNum
}

func (r *RollbackRecord) Undo(tx *Transaction) error {
	return nil
}

// WriteRollbackRecord appends a rollback record for txNum to the log
// and returns its LSN.
func WriteRollbackRecord(lm *log.Manager, txNum int) (int, error) {
	p := file.NewPage(recordTypeSize + file.IntSize)
	if err := p.SetInt(0, int(LogRecordRollback)); err != nil {
		return 0, err
	}
	if err := p.SetInt(recordTypeSize, txNum); err != nil {
		return 0, err
	}
	return lm.Append(p.Contents())
}
