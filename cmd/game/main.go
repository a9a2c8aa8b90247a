package main

import (
	"bufio"
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/tomz197/chaosjump/internal/config"
	"github.com/tomz197/chaosjump/internal/logging"
	"github.com/tomz197/chaosjump/internal/loop"
)

// defaultLogFile replaces stderr, which the game draws over.
const defaultLogFile = "chaosjump.log"

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if slices.Equal(cfg.Log.Paths, []string{"stderr"}) {
		cfg.Log.Paths = []string{defaultLogFile}
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	reader := bufio.NewReader(os.Stdin)
	err = loop.Run(reader, os.Stdout, loop.Options{
		Config:    cfg,
		Logger:    logger,
		AllowHost: true,
	})
	if err != nil {
		logger.Error("game error", zap.Error(err))
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}
