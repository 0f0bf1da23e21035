package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, blockSize int) *Manager {
	t.Helper()
	fm, err := NewManager(t.TempDir(), blockSize)
	require.NoError(t, err)
	t.Cleanup(func() { fm.Close() })
	return fm
}

func TestManager_WriteAndRead(t *testing.T) {
	fm := newTestManager(t, 400)

	blk := NewBlockID("testfile", 2)
	p1 := NewPage(fm.BlockSize())
	pos1 := 88
	require.NoError(t, p1.SetString(pos1, "abcdefghijklm"))
	pos2 := pos1 + MaxLength(len("abcdefghijklm"))
	require.NoError(t, p1.SetInt(pos2, 345))
	require.NoError(t, fm.Write(blk, p1))

	p2 := NewPage(fm.BlockSize())
	require.NoError(t, fm.Read(blk, p2))

	str, err := p2.GetString(pos1)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijklm", str)
	val, err := p2.GetInt(pos2)
	require.NoError(t, err)
	assert.Equal(t, 345, val)
}

func TestManager_ReadPastEndIsZeroFilled(t *testing.T) {
	fm := newTestManager(t, 64)

	p := NewPage(fm.BlockSize())
	for i := range p.Contents() {
		p.Contents()[i] = 0xFF
	}
	require.NoError(t, fm.Read(NewBlockID("emptyfile", 5), p))
	for i, b := range p.Contents() {
		require.Zero(t, b, "byte %d should be zero-filled", i)
	}
}

func TestManager_AppendAndLength(t *testing.T) {
	fm := newTestManager(t, 128)

	length, err := fm.Length("growing")
	require.NoError(t, err)
	assert.Equal(t, 0, length)

	blk, err := fm.Append("growing")
	require.NoError(t, err)
	assert.Equal(t, 0, blk.Number())

	blk, err = fm.Append("growing")
	require.NoError(t, err)
	assert.Equal(t, 1, blk.Number())

	length, err = fm.Length("growing")
	require.NoError(t, err)
	assert.Equal(t, 2, length)
}

func TestManager_IsNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	fm, err := NewManager(dir, 128)
	require.NoError(t, err)
	assert.True(t, fm.IsNew())
	fm.Close()

	fm, err = NewManager(dir, 128)
	require.NoError(t, err)
	assert.False(t, fm.IsNew())
	fm.Close()
}

func TestManager_RemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "temp_scratch"), []byte("x"), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kept"), []byte("x"), 0666))

	fm, err := NewManager(dir, 128)
	require.NoError(t, err)
	defer fm.Close()

	_, err = os.Stat(filepath.Join(dir, "temp_scratch"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "kept"))
	assert.NoError(t, err)
}
