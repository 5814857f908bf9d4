package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/okian/audioquery/internal/adapters/http/api"
	"github.com/okian/audioquery/internal/adapters/mq/queue"
	"github.com/okian/audioquery/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type mockInbox struct {
	mu       sync.Mutex
	enqueued []model.Message
	err      error
}

func (m *mockInbox) Enqueue(_ context.Context, msg model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, msg)
	return nil
}

func (m *mockInbox) messages() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Message(nil), m.enqueued...)
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func newTestServer(t *testing.T, inbox api.Enqueuer, opts ...api.Option) *httptest.Server {
	t.Helper()
	stats := &mockStatsProvider{stats: map[string]any{"started": true, "played": 3}}
	mux := http.NewServeMux()
	api.NewServer(inbox, stats, opts...).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) (*websocket.Conn, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

func roundTrip(ctx context.Context, conn *websocket.Conn, typ websocket.MessageType, payload string) string {
	if err := conn.Write(ctx, typ, []byte(payload)); err != nil {
		return "write failed: " + err.Error()
	}
	_, reply, err := conn.Read(ctx)
	if err != nil {
		return "read failed: " + err.Error()
	}
	return string(reply)
}

func TestServer_HTTPEndpoints(t *testing.T) {
	Convey("Given a registered admin server", t, func() {
		srv := newTestServer(t, &mockInbox{})

		Convey("Then /healthz serves Prometheus metrics", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "text/plain")
		})

		Convey("Then /stats serves the provider's stats as JSON", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var body map[string]any
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body["started"], ShouldEqual, true)
			So(body["played"], ShouldEqual, float64(3))
		})

		Convey("Then /stats rejects other methods", func() {
			resp, err := http.Post(srv.URL+"/stats", "text/plain", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Then /openapi.yaml serves the embedded document", func() {
			resp, err := http.Get(srv.URL + "/openapi.yaml")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "yaml")
			body, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			So(string(body), ShouldContainSubstring, "/stats")
		})
	})
}

func TestServer_Websocket(t *testing.T) {
	Convey("Given a websocket client", t, func() {
		inbox := &mockInbox{}
		srv := newTestServer(t, inbox, api.WithQueryPath("/play"))
		conn, ctx := dialWS(t, srv)

		Convey("When it sends a keyword", func() {
			reply := roundTrip(ctx, conn, websocket.MessageText, "rain storm")

			Convey("Then the query is queued under the query path", func() {
				So(reply, ShouldEqual, "queued")
				msgs := inbox.messages()
				So(len(msgs), ShouldEqual, 1)
				So(msgs[0].Path, ShouldEqual, "/play")
				So(msgs[0].Args, ShouldResemble, []any{"rain storm"})
				So(msgs[0].Source, ShouldStartWith, "ws:")
			})
		})

		Convey("When it sends a blank or binary frame", func() {
			So(roundTrip(ctx, conn, websocket.MessageText, "  "), ShouldStartWith, "error:")
			So(roundTrip(ctx, conn, websocket.MessageBinary, "rain"), ShouldStartWith, "error:")

			Convey("Then nothing is queued and the connection stays usable", func() {
				So(inbox.messages(), ShouldBeEmpty)
				So(roundTrip(ctx, conn, websocket.MessageText, "wind"), ShouldEqual, "queued")
			})
		})
	})

	Convey("Given a full inbox", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		srv := newTestServer(t, q)
		conn, ctx := dialWS(t, srv)

		So(roundTrip(ctx, conn, websocket.MessageText, "rain"), ShouldEqual, "queued")
		reply := roundTrip(ctx, conn, websocket.MessageText, "wind")

		Convey("Then the second query is rejected with backpressure", func() {
			So(reply, ShouldStartWith, "error:")
			So(reply, ShouldContainSubstring, "backpressure")
			So(q.Len(), ShouldEqual, 1)
		})
	})
}

func dialWithOrigin(srv *httptest.Server, origin string) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{origin}},
	})
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
	return resp, err
}

func TestServer_WebsocketOrigin(t *testing.T) {
	Convey("Given the default admin server", t, func() {
		srv := newTestServer(t, &mockInbox{})

		Convey("When a foreign page opens the websocket", func() {
			resp, err := dialWithOrigin(srv, "http://evil.example")

			Convey("Then the upgrade is refused", func() {
				So(err, ShouldNotBeNil)
				So(resp, ShouldNotBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusForbidden)
			})
		})

		Convey("When the page is served from the same host", func() {
			_, err := dialWithOrigin(srv, srv.URL)
			So(err, ShouldBeNil)
		})
	})

	Convey("Given an allowed origin pattern", t, func() {
		srv := newTestServer(t, &mockInbox{}, api.WithOriginPatterns("*.studio.example"))

		_, err := dialWithOrigin(srv, "https://mixer.studio.example")
		So(err, ShouldBeNil)

		_, err = dialWithOrigin(srv, "http://evil.example")
		So(err, ShouldNotBeNil)
	})
}

func TestServer_HTTPServer(t *testing.T) {
	Convey("Given an http.Server built by the admin server", t, func() {
		hs := api.NewServer(&mockInbox{}, &mockStatsProvider{}).HTTPServer("127.0.0.1:0")

		So(hs.Addr, ShouldEqual, "127.0.0.1:0")
		So(hs.Handler, ShouldNotBeNil)
		So(hs.ReadHeaderTimeout, ShouldBeGreaterThan, 0)
	})
}
