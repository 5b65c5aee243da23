package browser

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"comps-scraper/config"
	"comps-scraper/utils"
)

type recordingRenderer struct {
	urls   []string
	closed bool
}

func (r *recordingRenderer) Render(ctx context.Context, url, waitSelector string) (string, error) {
	r.urls = append(r.urls, url)
	return "<html></html>", nil
}

func (r *recordingRenderer) Close() error {
	r.closed = true
	return nil
}

func TestRobotsGate(t *testing.T) {
	var fetches int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/robots.txt" {
			http.NotFound(w, req)
			return
		}
		atomic.AddInt64(&fetches, 1)
		if got := req.Header.Get("User-Agent"); got != config.UserAgent {
			t.Errorf("robots.txt fetched with User-Agent %q", got)
		}
		io.WriteString(w, "User-agent: *\nDisallow: /private\nAllow: /sch/\n")
	}))
	defer srv.Close()

	next := &recordingRenderer{}
	r := NewRobots(next, config.UserAgent, utils.NewLoggerTo(io.Discard))
	ctx := context.Background()

	tests := []struct {
		path    string
		allowed bool
	}{
		{"/sch/i.html?_nkw=nike+hoodie&LH_Sold=1", true},
		{"/search?query=nike", true},
		{"/private/account", false},
	}
	for _, tt := range tests {
		_, err := r.Render(ctx, srv.URL+tt.path, "")
		if tt.allowed && err != nil {
			t.Errorf("Render(%s) error = %v; want allowed", tt.path, err)
		}
		if !tt.allowed && !errors.Is(err, ErrDisallowed) {
			t.Errorf("Render(%s) error = %v; want ErrDisallowed", tt.path, err)
		}
	}

	if len(next.urls) != 2 {
		t.Errorf("delegated %d renders; want 2", len(next.urls))
	}
	if n := atomic.LoadInt64(&fetches); n != 1 {
		t.Errorf("robots.txt fetched %d times; want 1", n)
	}

	if err := r.Close(); err != nil || !next.closed {
		t.Errorf("Close should close the wrapped renderer (err %v)", err)
	}
}

func TestRobotsUnreachableAllows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	srv.Close()

	next := &recordingRenderer{}
	r := NewRobots(next, config.UserAgent, utils.NewLoggerTo(io.Discard))

	if _, err := r.Render(context.Background(), srv.URL+"/search?query=nike", ""); err != nil {
		t.Fatalf("Render with unreachable robots.txt: %v", err)
	}
	if len(next.urls) != 1 {
		t.Errorf("delegated %d renders; want 1", len(next.urls))
	}
}

func TestRobotsMissingFileAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	next := &recordingRenderer{}
	r := NewRobots(next, config.UserAgent, utils.NewLoggerTo(io.Discard))

	if _, err := r.Render(context.Background(), srv.URL+"/anything", ""); err != nil {
		t.Errorf("Render with 404 robots.txt: %v", err)
	}
}
