package db

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kestreldb/kestrel/internal/buffer"
	"github.com/kestreldb/kestrel/internal/config"
	"github.com/kestreldb/kestrel/internal/file"
	"github.com/kestreldb/kestrel/internal/log"
	"github.com/kestreldb/kestrel/internal/transaction"
)

// DB wires the storage engine together: the file, log and buffer
// managers plus the process-wide lock table and transaction number
// sequence that every transaction shares.
type DB struct {
	fm        *file.Manager
	lm        *log.Manager
	bm        *buffer.Manager
	lockTable *transaction.LockTable
	txSeq     *transaction.Sequence
}

// Open creates or opens the database described by cfg. Opening an
// existing database runs restart recovery before returning, so the
// engine is consistent by the time the caller sees it.
func Open(cfg *config.Config) (*DB, error) {
	fm, err := file.NewManager(cfg.DataDir, cfg.BlockSize)
	if err != nil {
		return nil, errors.Wrap(err, "open file manager")
	}

	lm, err := log.NewManager(fm, cfg.LogFile)
	if err != nil {
		return nil, errors.Wrap(err, "open log manager")
	}

	bm, err := buffer.NewManager(fm, lm, cfg.BufferPoolSize)
	if err != nil {
		return nil, errors.Wrap(err, "open buffer manager")
	}

	db := &DB{
		fm:        fm,
		lm:        lm,
		bm:        bm,
		lockTable: transaction.NewLockTable(),
		txSeq:     transaction.NewSequence(),
	}

	if fm.IsNew() {
		logrus.WithField("dir", cfg.DataDir).Info("creating new database")
		return db, nil
	}

	logrus.WithField("dir", cfg.DataDir).Info("recovering existing database")
	tx, err := db.NewTx()
	if err != nil {
		return nil, err
	}
	if err := tx.Recover(); err != nil {
		return nil, err
	}
	// Commit releases the locks the undo pass acquired.
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return db, nil
}

// NewTx starts a transaction against this database.
func (db *DB) NewTx() (*transaction.Transaction, error) {
	return transaction.NewTransaction(db.fm, db.lm, db.bm, db.lockTable, db.txSeq)
}

// FileManager exposes the file manager to higher layers.
func (db *DB) FileManager() *file.Manager {
	return db.fm
}

// LogManager exposes the log manager to higher layers.
func (db *DB) LogManager() *log.Manager {
	return db.lm
}

// BufferManager exposes the buffer manager to higher layers.
func (db *DB) BufferManager() *buffer.Manager {
	return db.bm
}

// Close flushes the log tail and closes every file handle. Transactions
// still in flight are not waited for.
func (db *DB) Close() error {
	if err := db.lm.Close(); err != nil {
		return err
	}
	return db.fm.Close()
}
