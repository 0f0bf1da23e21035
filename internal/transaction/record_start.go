package transaction

import (
	"github.com/kestreldb/kestrel/internal/file"
	"github.com/kestreldb/kestrel/internal/log"
)

// StartRecord marks the beginning of a transaction. Rollback scans the
// log backward until it reaches this record.
// On-disk layout: [tag(4)] [txnum(4)]
type StartRecord struct {
	txNum int
}

func newStartRecord(p *file.Page) (*StartRecord, error) {
	txNum, err := p.GetInt(recordTypeSize)
	if err != nil {
		return nil, err
	}
	return &StartRecord{txNum: txNum}, nil
}

func (r *StartRecord) Op() RecordType {
	return LogRecordStart
}

func (r *StartRecord) TxNumber() int {
	return r.txNum
}

func (r *StartRecord) Undo(tx *Transaction) error {
	return nil
}

// WriteStartRecord appends a start record for txNum to the log and
// returns its LSN.
func WriteStartRecord(lm *log.Manager, txNum int) (int, error) {
	p := file.NewPage(recordTypeSize + file.IntSize)
	if err := p.SetInt(0, int(LogRecordStart)); err != nil {
		return 0, err
	}
	if err := p.SetInt(recordTypeSize, txNum); err != nil {
		return 0, err
	}
	return lm.Append(p.Contents())
}
