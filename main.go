package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"slack-upload/internal/config"
	"slack-upload/internal/logging"
	"slack-upload/internal/runtime"

	flags "github.com/jessevdk/go-flags"
)

var BuildVersion = "dev"

const (
	exitOK           = 0
	exitUploadFailed = 1
	exitUsage        = 2
)

func main() {
	opts, err := config.ParseOptions(nil)
	if err != nil {
		// go-flags has already printed the error or help text.
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			os.Exit(exitOK)
		}
		os.Exit(exitUsage)
	}

	rootCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(rootCtx, opts)
	stopSignals()
	os.Exit(code)
}

func run(ctx context.Context, opts config.Options) int {
	logger := logging.New(opts.Debug)
	defer func() {
		_ = logger.Close()
	}()
	if opts.LogFile != "" {
		if err := logger.EnableFilePersistence(opts.LogFile, 0); err != nil {
			logger.Warn("failed to enable file log persistence", logging.Field("error", err))
		}
	}
	logger.Debug("starting slack-upload", logging.Field("version", BuildVersion))

	service, err := runtime.NewService(opts, logger)
	if err != nil {
		logger.Error("invalid options", logging.Field("error", err))
		return exitUsage
	}
	if err := service.RunContext(ctx); err != nil {
		return exitUploadFailed
	}
	return exitOK
}
