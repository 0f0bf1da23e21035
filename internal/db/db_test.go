package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestreldb/kestrel/internal/config"
	"github.com/kestreldb/kestrel/internal/file"
)

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.DataDir = dir
	cfg.BufferPoolSize = 4
	return cfg
}

func TestOpen_NewDatabase(t *testing.T) {
	engine, err := Open(testConfig(t.TempDir() + "/db"))
	require.NoError(t, err)
	defer engine.Close()

	assert.True(t, engine.FileManager().IsNew())
	assert.Equal(t, 4, engine.BufferManager().Available())
}

func TestOpen_ReopenRecoversAndKeepsCommittedData(t *testing.T) {
	dir := t.TempDir() + "/db"
	blk := file.NewBlockID("testfile", 0)

	engine, err := Open(testConfig(dir))
	require.NoError(t, err)

	tx, err := engine.NewTx()
	require.NoError(t, err)
	_, err = tx.Pin(blk)
	require.NoError(t, err)
	require.NoError(t, tx.SetInt(blk, 80, 42, true))
	require.NoError(t, tx.Commit())

	// An uncommitted change left hanging at shutdown.
	tx2, err := engine.NewTx()
	require.NoError(t, err)
	_, err = tx2.Pin(blk)
	require.NoError(t, err)
	require.NoError(t, tx2.SetInt(blk, 80, 99, true))
	require.NoError(t, engine.BufferManager().FlushAll(tx2.TxNumber()))
	require.NoError(t, engine.Close())

	// Reopen: recovery runs inside Open and undoes tx2.
	engine2, err := Open(testConfig(dir))
	require.NoError(t, err)
	defer engine2.Close()
	assert.False(t, engine2.FileManager().IsNew())

	tx3, err := engine2.NewTx()
	require.NoError(t, err)
	_, err = tx3.Pin(blk)
	require.NoError(t, err)
	val, err := tx3.GetInt(blk, 80)
	require.NoError(t, err)
	assert.Equal(t, 42, val)
	require.NoError(t, tx3.Commit())
}
