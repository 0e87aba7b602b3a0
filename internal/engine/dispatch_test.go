package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testEngine(instances []string, fanOut int) *Engine {
	return New(Config{
		Instances:    instances,
		MirrorFanOut: fanOut,
	})
}

func mirrorServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL + "/"
}

func TestDispatchFirstSuccessWins(t *testing.T) {
	good := mirrorServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/popular" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"ok":true}`))
	})
	bad := mirrorServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	e := testEngine([]string{good, bad, bad}, 3)
	raw, err := e.Dispatch(context.Background(), "/popular", Timeout{Read: 2 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var payload struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || !payload.OK {
		t.Errorf("unexpected payload %s", raw)
	}
}

func TestDispatchAllMirrorsFail(t *testing.T) {
	bad := mirrorServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	e := testEngine([]string{bad, bad, bad}, 3)
	_, err := e.Dispatch(context.Background(), "/popular", Timeout{Read: time.Second})
	if !errors.Is(err, ErrAllMirrorsFailed) {
		t.Fatalf("got %v, want ErrAllMirrorsFailed", err)
	}
}

func TestDispatchInvalidJSONLoses(t *testing.T) {
	garbage := mirrorServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})

	e := testEngine([]string{garbage}, 1)
	_, err := e.Dispatch(context.Background(), "/popular", Timeout{Read: time.Second})
	if !errors.Is(err, ErrAllMirrorsFailed) {
		t.Fatalf("got %v, want ErrAllMirrorsFailed", err)
	}
}

func TestDispatchCancelsLosers(t *testing.T) {
	var slowCancelled atomic.Bool
	fast := mirrorServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	slow := mirrorServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			slowCancelled.Store(true)
		case <-time.After(3 * time.Second):
		}
	})

	e := testEngine([]string{fast, slow}, 2)
	start := time.Now()
	_, err := e.Dispatch(context.Background(), "/popular", Timeout{Read: 5 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("dispatch took %v, fast mirror should have won immediately", time.Since(start))
	}
	// Give the cancelled attempt a moment to unwind.
	deadline := time.Now().Add(time.Second)
	for !slowCancelled.Load() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !slowCancelled.Load() {
		t.Error("losing attempt was not cancelled")
	}
}

func TestDispatchRespectsCallerContext(t *testing.T) {
	stuck := mirrorServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	e := testEngine([]string{stuck}, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := e.Dispatch(ctx, "/popular", Timeout{Read: 5 * time.Second})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrAllMirrorsFailed) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDispatchEmptyPool(t *testing.T) {
	e := &Engine{
		cfg:    Config{MirrorFanOut: 3},
		pool:   NewEndpointPool(nil),
		client: NewClient(0),
	}
	_, err := e.Dispatch(context.Background(), "/popular", DefaultTimeout)
	if !errors.Is(err, ErrAllMirrorsFailed) {
		t.Fatalf("got %v, want ErrAllMirrorsFailed", err)
	}
}
