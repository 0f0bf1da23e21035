package transaction

import (
	"github.com/kestreldb/kestrel/internal/buffer"
	"github.com/kestreldb/kestrel/internal/log"
)

// RecoveryManager implements undo-only write-ahead logging for one
// transaction. Every modification is logged with its old value before
// the page changes; commit forces dirty pages out before the commit
// record, so restart never needs to redo anything. Only uncommitted
// work is undone.
//
// Each transaction has its own RecoveryManager; they share the log and
// buffer managers. The bootstrap layer also creates one, through a
// dedicated transaction, to recover after a crash.
type RecoveryManager struct {
	txNum int
	tx    *Transaction
	lm    *log.Manager
	bm    *buffer.Manager
}

// NewRecoveryManager creates the manager and writes the transaction's
// start record.
func NewRecoveryManager(tx *Transaction, txNum int, lm *log.Manager, bm *buffer.Manager) (*RecoveryManager, error) {
	rm := &RecoveryManager{
		txNum: txNum,
		tx:    tx,
		lm:    lm,
		bm:    bm,
	}
	if _, err := WriteStartRecord(lm, txNum); err != nil {
		return nil, err
	}
	return rm, nil
}

// Commit flushes the transaction's dirty buffers, writes a commit
// record, and forces it to disk. The transaction is durable once Commit
// returns.
func (rm *RecoveryManager) Commit() error {
	if err := rm.bm.FlushAll(rm.txNum); err != nil {
		return err
	}
	lsn, err := WriteCommitRecord(rm.lm, rm.txNum)
	if err != nil {
		return err
	}
	return rm.lm.Flush(lsn)
}

// Rollback undoes the transaction's modifications, then flushes its
// buffers and writes a rollback record.
func (rm *RecoveryManager) Rollback() error {
	if err := rm.doRollback(); err != nil {
		return err
	}
	if err := rm.bm.FlushAll(rm.txNum); err != nil {
		return err
	}
	lsn, err := WriteRollbackRecord(rm.lm, rm.txNum)
	if err != nil {
		return err
	}
	return rm.lm.Flush(lsn)
}

// Recover restores the database after a restart: every modification of
// every unfinished transaction is undone, then a checkpoint record
// marks the log position so later recoveries can stop here.
func (rm *RecoveryManager) Recover() error {
	if err := rm.doRecover(); err != nil {
		return err
	}
	if err := rm.bm.FlushAll(rm.txNum); err != nil {
		return err
	}
	lsn, err := WriteCheckpointRecord(rm.lm)
	if err != nil {
		return err
	}
	return rm.lm.Flush(lsn)
}

// SetInt logs an integer modification before it happens: the current
// value at offset is read from the buffer and written to the log as the
// undo value. Returns the record's LSN. The page mutation itself is
// done by the transaction after this call.
func (rm *RecoveryManager) SetInt(buff *buffer.Buffer, offset int) (int, error) {
	oldValue, err := buff.Contents().GetInt(offset)
	if err != nil {
		return 0, err
	}
	return WriteSetIntRecord(rm.lm, rm.txNum, *buff.Block(), offset, oldValue)
}

// SetString logs a string modification before it happens, symmetric
// with SetInt.
func (rm *RecoveryManager) SetString(buff *buffer.Buffer, offset int) (int, error) {
	oldValue, err := buff.Contents().GetString(offset)
	if err != nil {
		return 0, err
	}
	return WriteSetStringRecord(rm.lm, rm.txNum, *buff.Block(), offset, oldValue)
}

// doRollback walks the log newest to oldest, undoing each of this
// transaction's records until its start record.
func (rm *RecoveryManager) doRollback() error {
	it, err := rm.lm.Iterator()
	if err != nil {
		return err
	}

	for it.HasNext() {
		raw, err := it.Next()
		if err != nil {
			return err
		}
		rec, err := CreateLogRecord(raw)
		if err != nil {
			return err
		}

		if rec.TxNumber() != rm.txNum {
			continue
		}
		if rec.Op() == LogRecordStart {
			return nil
		}
		if err := rec.Undo(rm.tx); err != nil {
			return err
		}
	}
	return nil
}

// doRecover walks the log newest to oldest, undoing every record whose
// transaction has no commit or rollback record, until a checkpoint or
// the start of the log.
func (rm *RecoveryManager) doRecover() error {
	it, err := rm.lm.Iterator()
	if err != nil {
		return err
	}

	finished := make(map[int]struct{})
	for it.HasNext() {
		raw, err := it.Next()
		if err != nil {
			return err
		}
		rec, err := CreateLogRecord(raw)
		if err != nil {
			return err
		}

		switch rec.Op() {
		case LogRecordCheckpoint:
			return nil
		case LogRecordCommit, LogRecordRollback:
			finished[rec.TxNumber()] = struct{}{}
		default:
			if _, done := finished[rec.TxNumber()]; !done {
				if err := rec.Undo(rm.tx); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
