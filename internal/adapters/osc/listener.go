// Package osc receives OSC messages over UDP and routes them to a handler.
//
// The listener runs on a single goroutine. Each drain cycle reads messages
// until one read waits longer than the poll timeout; every query message is
// handled to completion before the next read, so queries never overlap.
package osc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"github.com/okian/audioquery/internal/domain/model"
	"github.com/okian/audioquery/pkg/logger"
	"github.com/okian/audioquery/pkg/metrics"
)

// Signal tells the run loop whether to keep going.
type Signal int

const (
	// Continue keeps the loop running.
	Continue Signal = iota
	// Stop ends Run.
	Stop
)

// Origins used for metrics.
const (
	originOSC   = "osc"
	originInbox = "inbox"
)

// HandlerFunc processes one query message.
type HandlerFunc func(ctx context.Context, msg model.Message)

// Inbox is a non-blocking message source, such as the websocket queue.
type Inbox interface {
	TryDequeue() (model.Message, bool)
}

// Listener owns the UDP socket.
type Listener struct {
	conn      *net.UDPConn
	handler   HandlerFunc
	inbox     Inbox
	queryPath string
	quitPath  string
	poll      time.Duration
	log       logger.Logger
	buf       []byte

	timedOut  bool
	closeOnce sync.Once
}

// Listen binds host:port. An empty host listens on all interfaces.
func Listen(host string, port int, handler HandlerFunc, opts ...Option) (*Listener, error) {
	l := &Listener{
		handler:   handler,
		queryPath: DefaultQueryPath,
		quitPath:  DefaultQuitPath,
		poll:      defaultPoll,
		log:       logger.Named("osc"),
		buf:       make([]byte, defaultBufferSize),
	}
	for _, opt := range opts {
		opt(l)
	}

	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBind, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBind, err)
	}
	l.conn = conn
	return l, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() *net.UDPAddr {
	addr, _ := l.conn.LocalAddr().(*net.UDPAddr)
	return addr
}

// Run serves until ctx is done, a quit message arrives or the socket is closed.
func (l *Listener) Run(ctx context.Context) error {
	l.log.Info(ctx, "listening for OSC queries",
		logger.String("addr", l.conn.LocalAddr().String()),
		logger.String("query_path", l.queryPath),
		logger.String("quit_path", l.quitPath),
	)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if l.drain(ctx) == Stop {
			return nil
		}
	}
}

// Close closes the socket. It is safe to call more than once.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.conn.Close()
	})
	return err
}

// drain handles requests until one poll times out.
func (l *Listener) drain(ctx context.Context) Signal {
	metrics.RecordDrainCycle()
	l.timedOut = false
	for !l.timedOut {
		if l.handleRequest(ctx) == Stop || ctx.Err() != nil {
			return Stop
		}
	}
	return Continue
}

// handleRequest processes at most one message, preferring the inbox.
func (l *Listener) handleRequest(ctx context.Context) Signal {
	if l.inbox != nil {
		if m, ok := l.inbox.TryDequeue(); ok {
			return l.route(ctx, m, originInbox)
		}
	}

	if err := l.conn.SetReadDeadline(time.Now().Add(l.poll)); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return Stop
		}
	}
	n, src, err := l.conn.ReadFromUDP(l.buf)
	if err != nil {
		var ne net.Error
		switch {
		case errors.As(err, &ne) && ne.Timeout():
		case errors.Is(err, net.ErrClosed):
			return Stop
		default:
			l.log.Warn(ctx, "socket read failed", logger.Error(err))
		}
		l.timedOut = true
		return Continue
	}

	pkt, err := osc.ParsePacket(string(l.buf[:n]))
	if err != nil {
		l.log.Warn(ctx, "malformed OSC packet", logger.String("from", src.String()), logger.Error(err))
		metrics.RecordErrorByComponent("osc", "malformed_packet")
		return Continue
	}
	return l.dispatch(ctx, pkt, src.String())
}

func (l *Listener) dispatch(ctx context.Context, pkt osc.Packet, source string) Signal {
	switch p := pkt.(type) {
	case *osc.Message:
		return l.route(ctx, model.Message{Path: p.Address, Args: p.Arguments, Source: source}, originOSC)
	case *osc.Bundle:
		for _, m := range p.Messages {
			if l.dispatch(ctx, m, source) == Stop {
				return Stop
			}
		}
		for _, b := range p.Bundles {
			if l.dispatch(ctx, b, source) == Stop {
				return Stop
			}
		}
	}
	return Continue
}

func (l *Listener) route(ctx context.Context, m model.Message, origin string) Signal {
	switch {
	case m.Path == l.queryPath:
		metrics.RecordQueryReceived(origin)
		l.handle(ctx, m)
		return Continue
	case l.quitPath != "" && m.Path == l.quitPath:
		l.log.Info(ctx, "quit requested", logger.String("from", m.Source))
		return Stop
	default:
		l.log.Debug(ctx, "ignoring message", logger.String("path", m.Path), logger.String("from", m.Source))
		return Continue
	}
}

// handle runs the handler for one query. A panic ends that query only.
func (l *Listener) handle(ctx context.Context, m model.Message) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("osc", "handler_panic")
			l.log.Error(ctx, "query handler panicked",
				logger.String("from", m.Source),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())),
			)
		}
	}()
	l.handler(ctx, m)
}
