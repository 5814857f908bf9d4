package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	app "github.com/okian/audioquery/internal/app"
	"github.com/okian/audioquery/internal/config"
	"github.com/okian/audioquery/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		// Use stderr for startup errors since the logger may not be configured yet
		os.Stderr.WriteString("audioquery: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// run starts the daemon and blocks until ctx is canceled or a quit message arrives.
func run(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("audioquery", pflag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.StringP("config", "c", "", "YAML config file (default $"+config.EnvConfigFile+")")
	logLevel := fs.String("log-level", "", "log level override: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: audioquery [flags] [query path] [port] [interface]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// Load configuration (defaults -> optional file -> env -> positional args)
	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.ApplyArgs(fs.Args()); err != nil {
		return err
	}

	if err := logger.InitWithWriter(out, cfg.LogFormat); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(app.WithConfig(cfg), app.WithLogger(log))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	if err := svc.Run(ctx); err != nil {
		return err
	}
	log.Info(context.Background(), "audioquery exiting")
	return nil
}
