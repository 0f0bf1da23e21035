package transaction

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kestreldb/kestrel/internal/buffer"
	"github.com/kestreldb/kestrel/internal/file"
	"github.com/kestreldb/kestrel/internal/log"
)

// endOfFileBlockNum is the sentinel block number used to lock the end
// of a file. Size reads it with a shared lock; Append takes it
// exclusively, serializing file growth.
const endOfFileBlockNum = -1

// Transaction is the unit of work the engine exposes to higher layers.
// It composes concurrency control (strict two-phase locking through the
// shared lock table), recovery (undo-only write-ahead logging), and
// buffer pinning. Every read takes a shared lock on the block first,
// every write an exclusive one; locks are released together at commit
// or rollback.
type Transaction struct {
	fm *file.Manager
	lm *log.Manager
	bm *buffer.Manager

	concurMgr   *ConcurrencyManager
	recoveryMgr *RecoveryManager

	txNum   int
	buffers *BufferList
}

// NewTransaction starts a transaction: it draws the next number from
// seq and writes the start record.
func NewTransaction(fm *file.Manager, lm *log.Manager, bm *buffer.Manager, lockTable *LockTable, seq *Sequence) (*Transaction, error) {
	tx := &Transaction{
		fm:        fm,
		lm:        lm,
		bm:        bm,
		concurMgr: NewConcurrencyManager(lockTable),
		txNum:     seq.Next(),
		buffers:   NewBufferList(bm),
	}

	rm, err := NewRecoveryManager(tx, tx.txNum, lm, bm)
	if err != nil {
		return nil, errors.Wrapf(err, "start transaction %d", tx.txNum)
	}
	tx.recoveryMgr = rm

	return tx, nil
}

// TxNumber returns the transaction's number.
func (t *Transaction) TxNumber() int {
	return t.txNum
}

// Commit makes the transaction's modifications durable, then releases
// its locks and pins.
func (t *Transaction) Commit() error {
	if err := t.recoveryMgr.Commit(); err != nil {
		return errors.Wrapf(err, "commit transaction %d", t.txNum)
	}
	if err := t.concurMgr.Release(); err != nil {
		return errors.Wrapf(err, "release locks of transaction %d", t.txNum)
	}
	t.buffers.UnpinAll()

	logrus.WithField("tx", t.txNum).Debug("transaction committed")
	return nil
}

// Rollback undoes the transaction's modifications, then releases its
// locks and pins.
func (t *Transaction) Rollback() error {
	if err := t.recoveryMgr.Rollback(); err != nil {
		return errors.Wrapf(err, "rollback transaction %d", t.txNum)
	}
	if err := t.concurMgr.Release(); err != nil {
		return errors.Wrapf(err, "release locks of transaction %d", t.txNum)
	}
	t.buffers.UnpinAll()

	logrus.WithField("tx", t.txNum).Debug("transaction rolled back")
	return nil
}

// Recover runs restart recovery: it flushes this transaction's buffers
// and undoes every modification left behind by unfinished transactions.
// The bootstrap layer calls it once, before accepting new work.
func (t *Transaction) Recover() error {
	if err := t.bm.FlushAll(t.txNum); err != nil {
		return err
	}
	if err := t.recoveryMgr.Recover(); err != nil {
		return errors.Wrapf(err, "recover in transaction %d", t.txNum)
	}

	logrus.WithField("tx", t.txNum).Info("restart recovery complete")
	return nil
}

// Pin pins the block for the duration of the transaction (or until the
// matching Unpin).
func (t *Transaction) Pin(blk file.BlockID) (*buffer.Buffer, error) {
	return t.buffers.Pin(blk)
}

// Unpin releases one pin of the block.
func (t *Transaction) Unpin(blk file.BlockID) {
	t.buffers.Unpin(blk)
}

// GetInt reads the integer at offset of blk under a shared lock.
func (t *Transaction) GetInt(blk file.BlockID, offset int) (int, error) {
	if err := t.concurMgr.SLock(blk); err != nil {
		return 0, err
	}
	buff, err := t.pinnedBuffer(blk)
	if err != nil {
		return 0, err
	}
	return buff.Contents().GetInt(offset)
}

// GetString reads the string at offset of blk under a shared lock.
func (t *Transaction) GetString(blk file.BlockID, offset int) (string, error) {
	if err := t.concurMgr.SLock(blk); err != nil {
		return "", err
	}
	buff, err := t.pinnedBuffer(blk)
	if err != nil {
		return "", err
	}
	return buff.Contents().GetString(offset)
}

// SetInt writes val at offset of blk under an exclusive lock. When
// okToLog is set, the old value is logged first so the write can be
// undone; unlogged writes are used by undo itself.
func (t *Transaction) SetInt(blk file.BlockID, offset int, val int, okToLog bool) error {
	if err := t.concurMgr.XLock(blk); err != nil {
		return err
	}
	buff, err := t.pinnedBuffer(blk)
	if err != nil {
		return err
	}

	lsn := -1
	if okToLog {
		lsn, err = t.recoveryMgr.SetInt(buff, offset)
		if err != nil {
			return err
		}
	}
	if err := buff.Contents().SetInt(offset, val); err != nil {
		return err
	}
	buff.SetModified(t.txNum, lsn)
	return nil
}

// SetString writes val at offset of blk under an exclusive lock,
// symmetric with SetInt.
func (t *Transaction) SetString(blk file.BlockID, offset int, val string, okToLog bool) error {
	if err := t.concurMgr.XLock(blk); err != nil {
		return err
	}
	buff, err := t.pinnedBuffer(blk)
	if err != nil {
		return err
	}

	lsn := -1
	if okToLog {
		lsn, err = t.recoveryMgr.SetString(buff, offset)
		if err != nil {
			return err
		}
	}
	if err := buff.Contents().SetString(offset, val); err != nil {
		return err
	}
	buff.SetModified(t.txNum, lsn)
	return nil
}

// Size returns the number of blocks in the file, under a shared lock on
// the file's end-of-file marker.
func (t *Transaction) Size(filename string) (int, error) {
	eofBlk := file.NewBlockID(filename, endOfFileBlockNum)
	if err := t.concurMgr.SLock(eofBlk); err != nil {
		return 0, err
	}
	return t.fm.Length(filename)
}

// Append extends the file by one block, under an exclusive lock on the
// file's end-of-file marker.
func (t *Transaction) Append(filename string) (file.BlockID, error) {
	eofBlk := file.NewBlockID(filename, endOfFileBlockNum)
	if err := t.concurMgr.XLock(eofBlk); err != nil {
		return file.BlockID{}, err
	}
	return t.fm.Append(filename)
}

// BlockSize returns the engine's block size.
func (t *Transaction) BlockSize() int {
	return t.fm.BlockSize()
}

// AvailableBuffers returns the number of unpinned frames in the pool.
func (t *Transaction) AvailableBuffers() int {
	return t.bm.Available()
}

// pinnedBuffer returns the buffer the transaction pinned for blk.
func (t *Transaction) pinnedBuffer(blk file.BlockID) (*buffer.Buffer, error) {
	buff := t.buffers.GetBuffer(blk)
	if buff == nil {
		return nil, errors.Errorf("block %v is not pinned by transaction %d", blk, t.txNum)
	}
	return buff, nil
}
