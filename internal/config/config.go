package config

import (
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// Defaults used when no config file is given or a key is absent.
const (
	DefaultDataDir        = "./kestrel_data"
	DefaultBlockSize      = 400
	DefaultBufferPoolSize = 8
	DefaultLogFile        = "kestrel.log"
	DefaultLogLevel       = "info"
)

// Config carries the engine parameters supplied by the host: where the
// data lives, the block size, the buffer pool size and the name of the
// write-ahead log file.
type Config struct {
	DataDir        string
	BlockSize      int
	BufferPoolSize int
	LogFile        string
	LogLevel       string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:        DefaultDataDir,
		BlockSize:      DefaultBlockSize,
		BufferPoolSize: DefaultBufferPoolSize,
		LogFile:        DefaultLogFile,
		LogLevel:       DefaultLogLevel,
	}
}

// Load reads an ini file and overlays it on the defaults:
//
//	[storage]
//	data_dir         = /var/lib/kestrel
//	block_size       = 400
//	buffer_pool_size = 8
//	log_file         = kestrel.log
//
//	[logging]
//	level = info
func Load(path string) (*Config, error) {
	raw, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}

	cfg := Default()

	storage := raw.Section("storage")
	cfg.DataDir = storage.Key("data_dir").MustString(cfg.DataDir)
	cfg.BlockSize = storage.Key("block_size").MustInt(cfg.BlockSize)
	cfg.BufferPoolSize = storage.Key("buffer_pool_size").MustInt(cfg.BufferPoolSize)
	cfg.LogFile = storage.Key("log_file").MustString(cfg.LogFile)

	cfg.LogLevel = raw.Section("logging").Key("level").MustString(cfg.LogLevel)

	if cfg.BlockSize <= 0 {
		return nil, errors.Errorf("block_size must be positive, got %d", cfg.BlockSize)
	}
	if cfg.BufferPoolSize <= 0 {
		return nil, errors.Errorf("buffer_pool_size must be positive, got %d", cfg.BufferPoolSize)
	}

	return cfg, nil
}
