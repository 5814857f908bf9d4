package sendquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/hypebeast/go-osc/osc"

	"github.com/okian/audioquery/pkg/logger"
)

// Send delivers every keyword, then the quit message if requested.
func Send(ctx context.Context, cfg *Config) (Stats, error) {
	if cfg.WSURL != "" {
		return sendWS(ctx, cfg)
	}
	return sendOSC(ctx, cfg)
}

func sendOSC(ctx context.Context, cfg *Config) (Stats, error) {
	log := logger.Named("send-query")
	client := osc.NewClient(cfg.Host, cfg.Port)
	var stats Stats

	for i, kw := range cfg.Keywords {
		if err := pause(ctx, cfg.Interval, i); err != nil {
			return stats, err
		}
		if err := client.Send(osc.NewMessage(cfg.QueryPath, kw)); err != nil {
			return stats, fmt.Errorf("send %q: %w", kw, err)
		}
		stats.Sent++
		log.Info(ctx, "query sent", logger.String("path", cfg.QueryPath), logger.String("keyword", kw))
	}

	if cfg.Quit {
		if err := pause(ctx, cfg.Interval, len(cfg.Keywords)); err != nil {
			return stats, err
		}
		if err := client.Send(osc.NewMessage(cfg.QuitPath)); err != nil {
			return stats, fmt.Errorf("send quit: %w", err)
		}
		stats.Sent++
		log.Info(ctx, "quit sent", logger.String("path", cfg.QuitPath))
	}
	return stats, nil
}

func sendWS(ctx context.Context, cfg *Config) (Stats, error) {
	log := logger.Named("send-query")
	var stats Stats

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout+time.Duration(len(cfg.Keywords))*cfg.Interval)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, cfg.WSURL, nil)
	if err != nil {
		return stats, fmt.Errorf("dial %s: %w", cfg.WSURL, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	for i, kw := range cfg.Keywords {
		if err := pause(ctx, cfg.Interval, i); err != nil {
			return stats, err
		}
		if err := conn.Write(ctx, websocket.MessageText, []byte(kw)); err != nil {
			return stats, fmt.Errorf("send %q: %w", kw, err)
		}
		stats.Sent++

		_, reply, err := conn.Read(ctx)
		if err != nil {
			return stats, fmt.Errorf("read ack for %q: %w", kw, err)
		}
		if strings.HasPrefix(string(reply), "error") {
			stats.Rejected++
			log.Warn(ctx, "query rejected", logger.String("keyword", kw), logger.String("reply", string(reply)))
			continue
		}
		stats.Acked++
		log.Info(ctx, "query queued", logger.String("keyword", kw))
	}
	return stats, nil
}

// pause waits d before every message but the first.
func pause(ctx context.Context, d time.Duration, i int) error {
	if i == 0 || d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
