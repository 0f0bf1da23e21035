package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kestrel.ini")
	content := `[storage]
data_dir = /var/lib/kestrel
block_size = 800
buffer_pool_size = 16

[logging]
level = debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/kestrel", cfg.DataDir)
	assert.Equal(t, 800, cfg.BlockSize)
	assert.Equal(t, 16, cfg.BufferPoolSize)
	assert.Equal(t, DefaultLogFile, cfg.LogFile)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingKeysFallBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kestrel.ini")
	require.NoError(t, os.WriteFile(path, []byte("[storage]\n"), 0666))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_RejectsInvalidSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kestrel.ini")
	require.NoError(t, os.WriteFile(path, []byte("[storage]\nblock_size = 0\n"), 0666))

	_, err := Load(path)
	assert.Error(t, err)
}
