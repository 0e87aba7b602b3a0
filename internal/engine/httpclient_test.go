package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

var testTimeout = Timeout{Connect: time.Second, Read: 2 * time.Second}

func TestClientRetriesServerErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	body, err := NewClient(0).Get(context.Background(), srv.URL, testTimeout, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("server hit %d times, want 3", n)
	}
}

func TestClientGivesUpAfterMaxTries(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(0).Get(context.Background(), srv.URL, testTimeout, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsStatus(err, http.StatusBadGateway) {
		t.Errorf("unexpected error: %v", err)
	}
	if n := hits.Load(); n != retryMaxTries {
		t.Errorf("server hit %d times, want %d", n, retryMaxTries)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(0).Get(context.Background(), srv.URL, testTimeout, nil)
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestClientSendsKnownUserAgent(t *testing.T) {
	known := map[string]bool{}
	for _, ua := range userAgents {
		known[ua] = true
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !known[r.Header.Get("User-Agent")] {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(0)
	for i := 0; i < 5; i++ {
		if _, err := c.Get(context.Background(), srv.URL, testTimeout, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestClientExtraHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Language") != "ja" {
			t.Errorf("header not forwarded, got %q", r.Header.Get("Accept-Language"))
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(0).Get(context.Background(), srv.URL, testTimeout, map[string]string{"Accept-Language": "ja"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientHonorsDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	start := time.Now()
	_, err := NewClient(0).Get(context.Background(), srv.URL, Timeout{Read: 50 * time.Millisecond}, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 250*time.Millisecond {
		t.Errorf("call took %v, deadline not applied", time.Since(start))
	}
}
