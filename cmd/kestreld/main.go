package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/kestreldb/kestrel/internal/config"
	"github.com/kestreldb/kestrel/internal/db"
)

func main() {
	configPath := flag.String("config", "", "path to the ini config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logrus.WithError(err).Fatal("failed to load config")
		}
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("invalid log level")
	}
	logrus.SetLevel(level)

	engine, err := db.Open(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open database")
	}

	logrus.WithFields(logrus.Fields{
		"dir":        cfg.DataDir,
		"block_size": cfg.BlockSize,
		"buffers":    cfg.BufferPoolSize,
	}).Info("kestrel ready")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logrus.Info("shutting down")
	if err := engine.Close(); err != nil {
		logrus.WithError(err).Fatal("failed to close database")
	}
}
