package main

import (
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	// Setup structured logging; replaced once the log level is known
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := loadDotEnv(".env"); err != nil {
		slog.Error("Failed to load environment file", "error", err)
		os.Exit(1)
	}

	var opts Options
	parser, err := NewParser(&opts, os.Stdout)
	if err != nil {
		slog.Error("Failed to build command line parser", "error", err)
		os.Exit(1)
	}

	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		// go-flags has already printed the error
		os.Exit(1)
	}
}
