package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/influencegraph/pkg/cache"
)

const sailorBody = `{"success":true,"data":{"nodes":[{"id":1,"name":"Sailor Shift","type":"Person"}],"edges":[]}}`

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch(t *testing.T) {
	var gotPath string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sailorBody))
	})

	resp, err := NewClient(srv.URL).Search(context.Background(), "Sailor Shift/x")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotPath != "/api/search-node/Sailor%20Shift%2Fx" {
		t.Errorf("path = %s", gotPath)
	}
	if !resp.Success || len(resp.Data.Nodes) != 1 || resp.Data.Nodes[0].ID != "1" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSearchNotFoundPayload(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"Node not found"}`))
	})

	resp, err := NewClient(srv.URL).Search(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Success || resp.Error != "Node not found" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSearchNonJSONError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad request"))
	})
	_, err := NewClient(srv.URL).Search(context.Background(), "x")
	if !errors.Is(err, cache.ErrNetwork) {
		t.Errorf("err = %v", err)
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(sailorBody))
	})

	c := NewClient(srv.URL, WithRetry(3, time.Millisecond))
	resp, err := c.Search(context.Background(), "Sailor Shift")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !resp.Success || calls.Load() != 3 {
		t.Errorf("success=%v calls=%d", resp.Success, calls.Load())
	}
}

func TestSearchGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := NewClient(srv.URL, WithRetry(2, time.Millisecond)).Search(context.Background(), "x")
	if !cache.IsRetryable(err) || calls.Load() != 2 {
		t.Errorf("err=%v calls=%d", err, calls.Load())
	}
}

func TestSearchUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(sailorBody))
	})
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	c := NewClient(srv.URL, WithCache(fc, time.Hour))
	for range 3 {
		if _, err := c.Search(context.Background(), "Sailor Shift"); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}

	refresh := NewClient(srv.URL, WithCache(fc, time.Hour), WithRefresh(true))
	if _, err := refresh.Search(context.Background(), "Sailor Shift"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls after refresh = %d, want 2", calls.Load())
	}
}

func TestSearchDoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"Node not found"}`))
	})
	fc, _ := cache.NewFileCache(t.TempDir())
	c := NewClient(srv.URL, WithCache(fc, time.Hour))

	_, _ = c.Search(context.Background(), "x")
	_, _ = c.Search(context.Background(), "x")
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("")
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL = %s", c.BaseURL())
	}
	if got := NewClient("http://x/").SearchURL("a b"); got != "http://x/api/search-node/a%20b" {
		t.Errorf("SearchURL = %s", got)
	}
}
