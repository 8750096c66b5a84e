package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/app"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/config"
)

func main() {
	var err error
	var fileName string
	var cfg config.Config
	flag.StringVar(&fileName, "f", "", "Configuration file")
	flag.Parse()

	// Check if the configuration file is provided
	if fileName == "" {
		fmt.Fprintf(os.Stderr, "Configuration file not provided. Exit 1")
		fmt.Fprintf(os.Stderr, "\nUsage:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Read the configuration file
	if cfg, err = config.ReadYamlCnxFile(fileName); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading configuration file: %s\n", err.Error())
		os.Exit(1)
	}
	// Initialize the logger
	l, closeLog, err := initTrace(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %s\n", err.Error())
		os.Exit(1)
	}
	defer closeLog()

	// Handle SIGTERM/SIGINT
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	SetupCloseHandler(cancelFunc, l)

	// Create the app
	a, err := app.NewApp(ctx, cfg)
	if err != nil {
		l.Error("error creating the app", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error creating the app: %s\n", err.Error())
		os.Exit(1)
	}
	a.SetLogger(l)

	if err := a.Run(); err != nil {
		l.Error("error running the app", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}

// SetupCloseHandler cancels the run context on SIGTERM/SIGINT.
func SetupCloseHandler(cancelFunc context.CancelFunc, log *slog.Logger) {
	c := make(chan os.Signal, 5)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-c
		log.Info("signal received", slog.String("signal", s.String()))
		cancelFunc()
	}()
}

// initTrace initializes the logger. The terminal belongs to the UI, so logs
// go to the configured file (or are discarded when none is set).
func initTrace(cfg config.Config) (*slog.Logger, func(), error) {
	handlerOptions := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}

	switch cfg.LogLevel {
	case "debug":
		handlerOptions.Level = slog.LevelDebug
		handlerOptions.AddSource = true
	case "info":
		handlerOptions.Level = slog.LevelInfo
	case "warn":
		handlerOptions.Level = slog.LevelWarn
	case "error":
		handlerOptions.Level = slog.LevelError
	default:
		handlerOptions.Level = slog.LevelInfo
	}

	var w io.Writer = io.Discard
	closeLog := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closeLog = func() { _ = f.Close() }
	}

	handler := slog.NewTextHandler(w, handlerOptions)
	logger := slog.New(handler)
	return logger, closeLog, nil
}
