package transaction

import (
	"github.com/kestreldb/kestrel/internal/file"
	"github.com/kestreldb/kestrel/internal/log"
)

// CommitRecord marks a transaction as committed. The transaction is
// durable once this record is on disk.
// On-disk layout: [tag(4)] [txnum(4)]
type CommitRecord struct {
	txNum int
}

func newCommitRecord(p *file.Page) (*CommitRecord, error) {
	txNum, err := p.GetInt(recordTypeSize)
	if err != nil {
		return nil, err
	}
	return &CommitRecord{txNum: txNum}, nil
}

func (r *CommitRecord) Op() RecordType {
	return LogRecordCommit
}

func (r *CommitRecord) TxNumber() int {
	return r.txNum
}

func (r *CommitRecord) Undo(tx *Transaction) error {
	return nil
}

// WriteCommitRecord appends a commit record for txNum to the log and
// returns its LSN.
func WriteCommitRecord(lm *log.Manager, txNum int) (int, error) {
	p := file.NewPage(recordTypeSize + file.IntSize)
	if err := p.SetInt(0, int(LogRecordCommit)); err != nil {
		return 0, err
	}
	if err := p.SetInt(recordTypeSize, txNum); err != nil {
		return 0, err
	}
	return lm.Append(p.Contents())
}
