package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := New(nil)
	resp, err := c.Get(context.Background(), srv.URL, Options{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body) != "hello" {
		t.Errorf("Body = %q, want hello", resp.Body)
	}
}

func TestGetCDXModeEmptyOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		w.Write([]byte(`{"error":"no captures"}`))
	}))
	defer srv.Close()

	c := New(nil)
	resp, err := c.Get(context.Background(), srv.URL, Options{CDXMode: true})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !resp.Empty {
		t.Error("expected Empty=true for cdx-mode 404")
	}
}

func TestGetNon2xxNonCDXIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer srv.Close()

	c := New(nil)
	_, err := c.Get(context.Background(), srv.URL, Options{})
	if err == nil {
		t.Error("expected error for plain 404")
	}
}

func TestGetAllow404PassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer srv.Close()

	c := New(nil)
	resp, err := c.Get(context.Background(), srv.URL, Options{Allow404: true})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
	}
}

func TestGetRetriesOn503ThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(503)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(nil)
	c.settings.DefaultMinRetryInterval = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := c.Get(ctx, srv.URL, Options{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("Body = %q, want ok", resp.Body)
	}
	if atomic.LoadInt32(&calls) < 2 {
		t.Errorf("expected at least 2 calls, got %d", calls)
	}
}

func TestWaitTurnEnforcesMinInterval(t *testing.T) {
	c := New(nil)
	c.settings.DefaultMinRetryInterval = 50 * time.Millisecond
	ctx := context.Background()
	start := time.Now()
	c.waitTurn(ctx, "example.test")
	c.waitTurn(ctx, "example.test")
	elapsed := time.Since(start)
	if elapsed < 50*time.Millisecond {
		t.Errorf("expected at least one min-interval wait, elapsed %v", elapsed)
	}
}

func TestMinIntervalForKnownHosts(t *testing.T) {
	c := New(nil)
	if got := c.minIntervalFor("web.archive.org"); got != c.settings.IAMinRetryInterval {
		t.Errorf("web.archive.org interval = %v, want %v", got, c.settings.IAMinRetryInterval)
	}
	if got := c.minIntervalFor("unknown.example"); got != c.settings.DefaultMinRetryInterval {
		t.Errorf("unknown host interval = %v, want default %v", got, c.settings.DefaultMinRetryInterval)
	}
}
