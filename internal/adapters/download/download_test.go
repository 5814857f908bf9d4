package download_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/audioquery/internal/adapters/download"
	. "github.com/smartystreets/goconvey/convey"
)

var mp3Payload = []byte("ID3\x04\x00fake mp3 frames")

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestClient_Download(t *testing.T) {
	Convey("Given a server that returns an mp3", t, func() {
		var token atomic.Value
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token.Store(r.URL.Query().Get("token"))
			_, _ = w.Write(mp3Payload)
		}))
		defer srv.Close()

		dir := t.TempDir()
		target := filepath.Join(dir, "rain.mp3")

		Convey("When downloading with a token", func() {
			c := download.New(download.WithToken("secret"))
			n, err := c.Download(context.Background(), srv.URL+"/previews/rain.mp3", target)

			Convey("Then the file holds the body and nothing else is left", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, len(mp3Payload))
				got, readErr := os.ReadFile(target)
				So(readErr, ShouldBeNil)
				So(got, ShouldResemble, mp3Payload)
				So(dirEntries(t, dir), ShouldResemble, []string{"rain.mp3"})
				So(token.Load(), ShouldEqual, "secret")
			})
		})

		Convey("When downloading without a token", func() {
			_, err := download.New().Download(context.Background(), srv.URL, target)

			So(err, ShouldBeNil)
			So(token.Load(), ShouldEqual, "")
		})
	})
}

func TestClient_DownloadLongName(t *testing.T) {
	Convey("Given targets whose names are close to the file name limit", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(mp3Payload)
		}))
		defer srv.Close()

		for _, size := range []int{245, 251} {
			dir := t.TempDir()
			name := strings.Repeat("r", size) + ".mp3"
			target := filepath.Join(dir, name)

			n, err := download.New().Download(context.Background(), srv.URL, target)

			So(err, ShouldBeNil)
			So(n, ShouldEqual, len(mp3Payload))
			So(dirEntries(t, dir), ShouldResemble, []string{name})
		}
	})
}

func TestClient_DownloadFailures(t *testing.T) {
	Convey("Given a server that rejects the request", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		defer srv.Close()

		dir := t.TempDir()
		target := filepath.Join(dir, "rain.mp3")
		_, err := download.New().Download(context.Background(), srv.URL, target)

		Convey("Then no file exists afterwards", func() {
			So(errors.Is(err, download.ErrBadStatus), ShouldBeTrue)
			So(dirEntries(t, dir), ShouldBeEmpty)
		})
	})

	Convey("Given a server that stalls mid-body", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", "1000")
			_, _ = w.Write(mp3Payload)
			w.(http.Flusher).Flush()
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		dir := t.TempDir()
		target := filepath.Join(dir, "rain.mp3")
		c := download.New(download.WithTimeout(100 * time.Millisecond))
		_, err := c.Download(context.Background(), srv.URL, target)

		Convey("Then the partial file is removed", func() {
			So(errors.Is(err, download.ErrWrite), ShouldBeTrue)
			So(dirEntries(t, dir), ShouldBeEmpty)
		})
	})

	Convey("Given a target directory that does not exist", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(mp3Payload)
		}))
		defer srv.Close()

		target := filepath.Join(t.TempDir(), "missing", "rain.mp3")
		_, err := download.New().Download(context.Background(), srv.URL, target)

		So(errors.Is(err, download.ErrWrite), ShouldBeTrue)
	})

	Convey("Given an unreachable host", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		_, err := download.New().Download(context.Background(), addr, filepath.Join(t.TempDir(), "x.mp3"))

		So(errors.Is(err, download.ErrRequest), ShouldBeTrue)
	})
}
