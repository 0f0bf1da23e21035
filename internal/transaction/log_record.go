package transaction

import (
	"github.com/pkg/errors"

	"github.com/kestreldb/kestrel/internal/file"
)

// ErrUnknownLogRecord is returned when a log record carries a tag
// outside the known set. Recovery treats this as fatal.
var ErrUnknownLogRecord = errors.New("unknown log record type")

// RecordType is the discriminator stored in the first 4 bytes of every
// log record.
type RecordType int

const (
	LogRecordCheckpoint RecordType = 0
	LogRecordStart      RecordType = 1
	LogRecordCommit     RecordType = 2
	LogRecordRollback   RecordType = 3
	LogRecordSetInt     RecordType = 4
	LogRecordSetString  RecordType = 5
)

// recordTypeSize is the width of the tag on disk.
const recordTypeSize = file.IntSize

// LogRecord is one entry of the write-ahead log. Update records carry
// enough state to undo themselves; the others have a no-op Undo.
type LogRecord interface {
	Op() RecordType
	TxNumber() int
	Undo(tx *Transaction) error
}

// CreateLogRecord decodes the record serialized in b.
func CreateLogRecord(b []byte) (LogRecord, error) {
	p := file.NewPageFromBytes(b)

	op, err := p.GetInt(0)
	if err != nil {
		return nil, err
	}

	switch RecordType(op) {
	case LogRecordCheckpoint:
		return newCheckpointRecord(), nil
	case LogRecordStart:
		return newStartRecord(p)
	case LogRecordCommit:
		return newCommitRecord(p)
	case LogRecordRollback:
		return newRollbackRecord(p)
	case LogRecordSetInt:
		return newSetIntRecord(p)
	case LogRecordSetString:
		return newSetStringRecord(p)
	default:
		return nil, errors.Wrapf(ErrUnknownLogRecord, "tag %d", op)
	}
}
