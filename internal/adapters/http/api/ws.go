package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"

	"github.com/okian/audioquery/internal/adapters/mq/queue"
	"github.com/okian/audioquery/internal/domain/model"
	"github.com/okian/audioquery/pkg/logger"
)

const (
	wsReadLimit = 4 << 10
	ackQueued   = "queued"
)

// handleWebsocket turns every text frame into a query message. Frames are
// acknowledged with "queued" or "error: <reason>"; the query itself runs
// later on the listener goroutine.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	log := logger.Named("api")
	// Requests without an Origin header (non-browser clients) are accepted;
	// browsers must come from the same host or a configured pattern.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		log.Warn(r.Context(), "websocket accept failed", logger.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")
	conn.SetReadLimit(wsReadLimit)

	ctx := r.Context()
	source := "ws:" + r.RemoteAddr
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 {
				log.Debug(ctx, "websocket read ended", logger.String("from", source), logger.Error(err))
			}
			return
		}

		reply := ackQueued
		if err := s.accept(ctx, typ, data, source); err != nil {
			reply = "error: " + err.Error()
			log.Warn(ctx, "websocket query rejected", logger.String("from", source), logger.Error(err))
		}
		if err := conn.Write(ctx, websocket.MessageText, []byte(reply)); err != nil {
			return
		}
	}
}

func (s *Server) accept(ctx context.Context, typ websocket.MessageType, data []byte, source string) error {
	if typ != websocket.MessageText {
		return fmt.Errorf("%w: binary frame", ErrBadRequest)
	}
	keyword := string(data)
	if strings.TrimSpace(keyword) == "" {
		return fmt.Errorf("%w: empty query", ErrBadRequest)
	}

	err := s.inbox.Enqueue(ctx, model.Message{Path: s.queryPath, Args: []any{keyword}, Source: source})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, queue.ErrFull):
		return fmt.Errorf("%w: %w", ErrBackpressure, err)
	default:
		return err
	}
}
