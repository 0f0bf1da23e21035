package transaction

import (
	"github.com/kestreldb/kestrel/internal/file"
	"github.com/kestreldb/kestrel/internal/log"
)

// CheckpointRecord marks a point in the log above which every
// transaction has completed. Restart recovery stops here.
// On-disk layout: [tag(4)]
type CheckpointRecord struct{}

func newCheckpointRecord() *CheckpointRecord {
	return &CheckpointRecord{}
}

func (r *CheckpointRecord) Op() RecordType {
	return LogRecordCheckpoint
}

// TxNumber returns -1: a checkpoint belongs to no transaction.
func (r *CheckpointRecord) TxNumber() int {
	return -1
}

func (r *CheckpointRecord) Undo(tx *Transaction) error {
	return nil
}

// WriteCheckpointRecord appends a checkpoint record to the log and
// returns its LSN.
func WriteCheckpointRecord(lm *log.Manager) (int, error) {
	p := file.NewPage(recordTypeSize)
	if err := p.SetInt(0, int(LogRecordCheckpoint)); err != nil {
		return 0, err
	}
	return lm.Append(p.Contents())
}
