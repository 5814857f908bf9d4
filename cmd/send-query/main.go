package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/audioquery/internal/sendquery"
	"github.com/okian/audioquery/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg, err := sendquery.ParseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	if cfg == nil {
		return
	}

	stats, err := sendquery.Send(ctx, cfg)
	if err != nil {
		logger.Get().Error(ctx, "send failed", logger.Error(err), logger.Int("sent", stats.Sent))
		os.Exit(1)
	}
	logger.Get().Info(ctx, "done",
		logger.Int("sent", stats.Sent),
		logger.Int("acked", stats.Acked),
		logger.Int("rejected", stats.Rejected),
	)
}
