package log

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/kestreldb/kestrel/internal/file"
)

// Manager is responsible for writing log records into the log file.
// The tail of the log is kept in an in-memory page and written to disk
// when needed.
//
// Within a block, records are written back to front: the first 4 bytes
// of the block hold the boundary, the offset of the most recently
// written record, and new records are placed just below it. Records in
// a block are therefore iterated newest-first.
type Manager struct {
	fm           *file.Manager
	logFile      string
	logPage      *file.Page
	currentBlk   file.BlockID
	latestLSN    int
	lastSavedLSN int
	mu           sync.Mutex
}

// NewManager creates the manager for the given log file. If the file is
// empty a first block is allocated; otherwise the last existing block
// becomes the current one.
func NewManager(fm *file.Manager, logFile string) (*Manager, error) {
	lm := &Manager{
		fm:      fm,
		logFile: logFile,
		logPage: file.NewPage(fm.BlockSize()),
	}

	logSize, err := fm.Length(logFile)
	if err != nil {
		return nil, errors.Wrapf(err, "size log file %s", logFile)
	}

	if logSize == 0 {
		lm.currentBlk, err = lm.appendNewBlock()
		if err != nil {
			return nil, err
		}
	} else {
		lm.currentBlk = file.NewBlockID(logFile, logSize-1)
		if err := fm.Read(lm.currentBlk, lm.logPage); err != nil {
			return nil, errors.Wrapf(err, "read last log block %v", lm.currentBlk)
		}
	}

	return lm, nil
}

// Append adds a record to the log and returns its LSN. The record is
// not guaranteed to be on disk until a later Flush covering that LSN.
func (lm *Manager) Append(logrec []byte) (int, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	boundary, err := lm.logPage.GetInt(0)
	if err != nil {
		return 0, err
	}
	bytesNeeded := len(logrec) + file.IntSize

	// The record must fit between the boundary word and the current
	// boundary. Otherwise move to a new block.
	if boundary-bytesNeeded < file.IntSize {
		if err := lm.flush(); err != nil {
			return 0, err
		}
		lm.currentBlk, err = lm.appendNewBlock()
		if err != nil {
			return 0, err
		}
		boundary, err = lm.logPage.GetInt(0)
		if err != nil {
			return 0, err
		}
	}

	recpos := boundary - bytesNeeded
	if err := lm.logPage.SetBytes(recpos, logrec); err != nil {
		return 0, err
	}
	if err := lm.logPage.SetInt(0, recpos); err != nil {
		return 0, err
	}
	lm.latestLSN++

	return lm.latestLSN, nil
}

// Flush ensures that the record with the given LSN, and everything
// appended before it, is on disk. This is the write-ahead commit point.
func (lm *Manager) Flush(lsn int) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lsn >= lm.lastSavedLSN {
		return lm.flush()
	}
	return nil
}

// Iterator flushes the log and returns an iterator over its records,
// newest first.
func (lm *Manager) Iterator() (*Iterator, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if err := lm.flush(); err != nil {
		return nil, err
	}
	return newIterator(lm.fm, lm.currentBlk)
}

// Close flushes the tail of the log.
func (lm *Manager) Close() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	return lm.flush()
}

// appendNewBlock extends the log file by one block whose boundary is
// set to the block size, meaning no records yet. Assumes the mutex is
// held.
func (lm *Manager) appendNewBlock() (file.BlockID, error) {
	blk, err := lm.fm.Append(lm.logFile)
	if err != nil {
		return file.BlockID{}, errors.Wrapf(err, "extend log file %s", lm.logFile)
	}
	if err := lm.logPage.SetInt(0, lm.fm.BlockSize()); err != nil {
		return file.BlockID{}, err
	}
	if err := lm.fm.Write(blk, lm.logPage); err != nil {
		return file.BlockID{}, errors.Wrapf(err, "init log block %v", blk)
	}
	return blk, nil
}

// flush writes the current log page to disk. Assumes the mutex is held.
func (lm *Manager) flush() error {
	if err := lm.fm.Write(lm.currentBlk, lm.logPage); err != nil {
		return errors.Wrapf(err, "flush log block %v", lm.currentBlk)
	}
	lm.lastSavedLSN = lm.latestLSN
	return nil
}
