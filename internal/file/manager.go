package file

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Manager handles the interaction with the OS file system. Each named
// database file is a flat file divided into fixed-size blocks; block N
// occupies bytes [N*blockSize, (N+1)*blockSize).
//
// All operations are serialized by a single mutex. Block I/O is not the
// hot path compared to buffer hits, so a coarse lock is sufficient.
type Manager struct {
	dbDir     string
	blockSize int
	isNew     bool
	openFiles map[string]*os.File
	mu        sync.Mutex
}

// NewManager creates a file manager for the given directory, creating
// the directory if it does not exist. Leftover temporary files from a
// previous run (any file whose name begins with "temp") are removed.
func NewManager(dbDir string, blockSize int) (*Manager, error) {
	_, err := os.Stat(dbDir)
	isNew := os.IsNotExist(err)
	if isNew {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, errors.Wrapf(err, "create database directory %s", dbDir)
		}
	}

	entries, err := os.ReadDir(dbDir)
	if err != nil {
		return nil, errors.Wrapf(err, "scan database directory %s", dbDir)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "temp") {
			if err := os.Remove(filepath.Join(dbDir, entry.Name())); err != nil {
				return nil, errors.Wrapf(err, "remove temp file %s", entry.Name())
			}
		}
	}

	return &Manager{
		dbDir:     dbDir,
		blockSize: blockSize,
		isNew:     isNew,
		openFiles: make(map[string]*os.File),
	}, nil
}

// BlockSize returns the size of a block in bytes.
func (fm *Manager) BlockSize() int {
	return fm.blockSize
}

// IsNew reports whether the database directory was created by this
// manager. The bootstrap layer uses it to decide whether restart
// recovery is needed.
func (fm *Manager) IsNew() bool {
	return fm.isNew
}

// Read reads the contents of the given block into p. A block beyond the
// current end of file reads as zeroes: any bytes not present on disk
// are zero-filled.
func (fm *Manager) Read(blk BlockID, p *Page) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if blk.Number() < 0 {
		return errors.Errorf("read %v: negative block number", blk)
	}

	f, err := fm.getFile(blk.Filename())
	if err != nil {
		return err
	}

	buf := p.Contents()
	n, err := f.ReadAt(buf, int64(blk.Number()*fm.blockSize))
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrapf(err, "read %v", blk)
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}

	return nil
}

// Write writes the contents of p to the given block.
func (fm *Manager) Write(blk BlockID, p *Page) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if blk.Number() < 0 {
		return errors.Errorf("write %v: negative block number", blk)
	}

	f, err := fm.getFile(blk.Filename())
	if err != nil {
		return err
	}

	if _, err := f.WriteAt(p.Contents(), int64(blk.Number()*fm.blockSize)); err != nil {
		return errors.Wrapf(err, "write %v", blk)
	}

	return nil
}

// Append extends the file by one zeroed block and returns its BlockID.
func (fm *Manager) Append(filename string) (BlockID, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	newBlkNum, err := fm.length(filename)
	if err != nil {
		return BlockID{}, err
	}
	blk := NewBlockID(filename, newBlkNum)

	f, err := fm.getFile(filename)
	if err != nil {
		return BlockID{}, err
	}

	empty := make([]byte, fm.blockSize)
	if _, err := f.WriteAt(empty, int64(blk.Number()*fm.blockSize)); err != nil {
		return BlockID{}, errors.Wrapf(err, "append %v", blk)
	}

	return blk, nil
}

// Length returns the number of blocks in the given file.
func (fm *Manager) Length(filename string) (int, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	return fm.length(filename)
}

// length assumes the mutex is held.
func (fm *Manager) length(filename string) (int, error) {
	f, err := fm.getFile(filename)
	if err != nil {
		return 0, err
	}

	fi, err := f.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "stat %s", filename)
	}

	bs := int64(fm.blockSize)
	return int((fi.Size() + bs - 1) / bs), nil
}

// Close closes every open file handle.
func (fm *Manager) Close() error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	for name, f := range fm.openFiles {
		if err := f.Close(); err != nil {
			return errors.Wrapf(err, "close %s", name)
		}
		delete(fm.openFiles, name)
	}
	return nil
}

// getFile returns the open handle for filename, opening (and creating)
// the file on first use. Assumes the mutex is held.
func (fm *Manager) getFile(filename string) (*os.File, error) {
	if f, ok := fm.openFiles[filename]; ok {
		return f, nil
	}

	f, err := os.OpenFile(filepath.Join(fm.dbDir, filename), os.O_RDWR|os.O_CREATE|os.O_SYNC, 0666)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", filename)
	}
	fm.openFiles[filename] = f

	return f, nil
}
