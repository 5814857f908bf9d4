// Package sendquery sends text queries to a running audioquery daemon.
package sendquery

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"
)

// Default flag values.
const (
	defaultHost     = "127.0.0.1"
	defaultPort     = 7777
	defaultPath     = "/query"
	defaultQuitPath = "/quit"
	defaultTimeout  = 5 * time.Second
)

// ErrUsage is returned when the arguments cannot be used.
var ErrUsage = errors.New("usage")

// ParseArgs builds a Config from command-line arguments. Positional
// arguments are keywords. It returns (nil, nil) when help was requested.
func ParseArgs(args []string, out io.Writer) (*Config, error) {
	cfg := &Config{}
	fs := pflag.NewFlagSet("send-query", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVarP(&cfg.Host, "host", "H", defaultHost, "daemon host")
	fs.IntVarP(&cfg.Port, "port", "p", defaultPort, "daemon UDP port")
	fs.StringVar(&cfg.QueryPath, "path", defaultPath, "OSC query address")
	fs.StringVar(&cfg.QuitPath, "quit-path", defaultQuitPath, "OSC quit address")
	fs.BoolVarP(&cfg.Quit, "quit", "q", false, "send a quit message after the queries")
	fs.DurationVarP(&cfg.Interval, "interval", "i", 0, "pause between messages")
	fs.StringVar(&cfg.WSURL, "ws", "", "admin websocket URL, e.g. ws://127.0.0.1:9780/ws")
	fs.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "websocket timeout")
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: send-query [flags] keyword [keyword...]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	cfg.Keywords = fs.Args()

	if len(cfg.Keywords) == 0 && !cfg.Quit {
		return nil, fmt.Errorf("%w: nothing to send", ErrUsage)
	}
	if cfg.WSURL != "" && cfg.Quit {
		return nil, fmt.Errorf("%w: --quit needs OSC", ErrUsage)
	}
	return cfg, nil
}
