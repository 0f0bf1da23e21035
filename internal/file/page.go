package file

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrPageOverflow is returned when an access would run past the end of
// the page. Pages are fixed-size and never grow.
var ErrPageOverflow = errors.New("page access exceeds page size")

// IntSize is the number of bytes used to store an integer on a page.
const IntSize = 4

// MaxLength returns the number of page bytes needed to store a string
// of the given byte length: a 4-byte length prefix plus the bytes.
func MaxLength(strlen int) int {
	return IntSize + strlen
}

// Page is the in-memory image of a disk block. All multibyte values are
// big-endian; byte arrays and strings are stored with a 4-byte length
// prefix.
type Page struct {
	buf []byte
}

// NewPage creates an empty page of the given block size.
func NewPage(blockSize int) *Page {
	return &Page{
		buf: make([]byte, blockSize),
	}
}

// NewPageFromBytes wraps an existing byte slice as a page. The page
// shares the slice with the caller.
func NewPageFromBytes(b []byte) *Page {
	return &Page{
		buf: b,
	}
}

// Contents returns the underlying byte slice.
func (p *Page) Contents() []byte {
	return p.buf
}

// GetInt reads the big-endian integer stored at offset.
func (p *Page) GetInt(offset int) (int, error) {
	if offset < 0 || offset+IntSize > len(p.buf) {
		return 0, errors.Wrapf(ErrPageOverflow, "read int at offset %d of %d-byte page", offset, len(p.buf))
	}
	return int(int32(binary.BigEndian.Uint32(p.buf[offset : offset+IntSize]))), nil
}

// SetInt writes val as a big-endian integer at offset.
func (p *Page) SetInt(offset int, val int) error {
	if offset < 0 || offset+IntSize > len(p.buf) {
		return errors.Wrapf(ErrPageOverflow, "write int at offset %d of %d-byte page", offset, len(p.buf))
	}
	binary.BigEndian.PutUint32(p.buf[offset:offset+IntSize], uint32(int32(val)))
	return nil
}

// GetBytes reads the length-prefixed byte array stored at offset.
// The returned slice aliases the page buffer.
func (p *Page) GetBytes(offset int) ([]byte, error) {
	length, err := p.GetInt(offset)
	if err != nil {
		return nil, err
	}
	start := offset + IntSize
	if length < 0 || start+length > len(p.buf) {
		return nil, errors.Wrapf(ErrPageOverflow, "read %d bytes at offset %d of %d-byte page", length, offset, len(p.buf))
	}
	return p.buf[start : start+length], nil
}

// SetBytes writes val at offset as a 4-byte length prefix followed by
// the raw bytes.
func (p *Page) SetBytes(offset int, val []byte) error {
	if offset < 0 || offset+MaxLength(len(val)) > len(p.buf) {
		return errors.Wrapf(ErrPageOverflow, "write %d bytes at offset %d of %d-byte page", len(val), offset, len(p.buf))
	}
	if err := p.SetInt(offset, len(val)); err != nil {
		return err
	}
	copy(p.buf[offset+IntSize:], val)
	return nil
}

// GetString reads the length-prefixed UTF-8 string stored at offset.
func (p *Page) GetString(offset int) (string, error) {
	b, err := p.GetBytes(offset)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SetString writes val at offset as length-prefixed UTF-8 bytes.
func (p *Page) SetString(offset int, val string) error {
	return p.SetBytes(offset, []byte(val))
}
