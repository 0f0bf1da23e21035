package file

import "fmt"

// BlockID identifies one fixed-size block within a named file.
// It is a value type: two BlockIDs are equal when both the filename and
// the block number match, so a BlockID can be used directly as a map key.
type BlockID struct {
	filename string
	number   int
}

// NewBlockID creates a BlockID for the given file and block number.
func NewBlockID(filename string, number int) BlockID {
	return BlockID{
		filename: filename,
		number:   number,
	}
}

// Filename returns the name of the file containing this block.
func (b BlockID) Filename() string {
	return b.filename
}

// Number returns the block number within the file.
func (b BlockID) Number() int {
	return b.number
}

func (b BlockID) Equals(other BlockID) bool {
	return b == other
}

func (b BlockID) String() string {
	return fmt.Sprintf("[file %s, block %d]", b.filename, b.number)
}
