package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestreldb/kestrel/internal/file"
)

func TestLogRecord_SetIntRoundTrip(t *testing.T) {
	env := newTestEnv(t, t.TempDir())

	blk := file.NewBlockID("datafile", 3)
	_, err := WriteSetIntRecord(env.lm, 7, blk, 80, 42)
	require.NoError(t, err)

	it, err := env.lm.Iterator()
	require.NoError(t, err)
	raw, err := it.Next()
	require.NoError(t, err)

	rec, err := CreateLogRecord(raw)
	require.NoError(t, err)
	setInt, ok := rec.(*SetIntRecord)
	require.True(t, ok)

	assert.Equal(t, LogRecordSetInt, setInt.Op())
	assert.Equal(t, 7, setInt.TxNumber())
	assert.True(t, setInt.blk.Equals(blk))
	assert.Equal(t, 80, setInt.offset)
	assert.Equal(t, 42, setInt.oldValue)
}

func TestLogRecord_SetStringRoundTrip(t *testing.T) {
	env := newTestEnv(t, t.TempDir())

	blk := file.NewBlockID("datafile", 0)
	_, err := WriteSetStringRecord(env.lm, 12, blk, 100, "previous")
	require.NoError(t, err)

	it, err := env.lm.Iterator()
	require.NoError(t, err)
	raw, err := it.Next()
	require.NoError(t, err)

	rec, err := CreateLogRecord(raw)
	require.NoError(t, err)
	setString, ok := rec.(*SetStringRecord)
	require.True(t, ok)

	assert.Equal(t, LogRecordSetString, setString.Op())
	assert.Equal(t, 12, setString.TxNumber())
	assert.True(t, setString.blk.Equals(blk))
	assert.Equal(t, 100, setString.offset)
	assert.Equal(t, "previous", setString.oldValue)
}

func TestLogRecord_LifecycleRecords(t *testing.T) {
	env := newTestEnv(t, t.TempDir())

	_, err := WriteStartRecord(env.lm, 5)
	require.NoError(t, err)
	_, err = WriteCommitRecord(env.lm, 5)
	require.NoError(t, err)
	_, err = WriteRollbackRecord(env.lm, 6)
	require.NoError(t, err)
	_, err = WriteCheckpointRecord(env.lm)
	require.NoError(t, err)

	it, err := env.lm.Iterator()
	require.NoError(t, err)

	wantOps := []RecordType{LogRecordCheckpoint, LogRecordRollback, LogRecordCommit, LogRecordStart}
	wantTxs := []int{-1, 6, 5, 5}
	for i, wantOp := range wantOps {
		require.True(t, it.HasNext())
		raw, err := it.Next()
		require.NoError(t, err)
		rec, err := CreateLogRecord(raw)
		require.NoError(t, err)
		assert.Equal(t, wantOp, rec.Op())
		assert.Equal(t, wantTxs[i], rec.TxNumber())
	}
}

func TestLogRecord_UnknownTag(t *testing.T) {
	p := file.NewPage(file.IntSize)
	require.NoError(t, p.SetInt(0, 99))

	_, err := CreateLogRecord(p.Contents())
	assert.ErrorIs(t, err, ErrUnknownLogRecord)
}
