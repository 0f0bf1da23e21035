package transaction

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestreldb/kestrel/internal/buffer"
	"github.com/kestreldb/kestrel/internal/file"
	"github.com/kestreldb/kestrel/internal/log"
)

type testEnv struct {
	fm        *file.Manager
	lm        *log.Manager
	bm        *buffer.Manager
	lockTable *LockTable
	seq       *Sequence
}

// newTestEnv builds a fresh engine over dir. Opening a second env over
// the same directory simulates a process restart: the first env's
// in-memory state is simply dropped.
func newTestEnv(t *testing.T, dir string) *testEnv {
	t.Helper()

	fm, err := file.NewManager(dir, 400)
	require.NoError(t, err)
	t.Cleanup(func() { fm.Close() })

	lm, err := log.NewManager(fm, "testlog")
	require.NoError(t, err)

	bm, err := buffer.NewManager(fm, lm, 8)
	require.NoError(t, err)

	return &testEnv{
		fm:        fm,
		lm:        lm,
		bm:        bm,
		lockTable: NewLockTable(),
		seq:       NewSequence(),
	}
}

func (env *testEnv) newTx(t *testing.T) *Transaction {
	t.Helper()
	tx, err := NewTransaction(env.fm, env.lm, env.bm, env.lockTable, env.seq)
	require.NoError(t, err)
	return tx
}
