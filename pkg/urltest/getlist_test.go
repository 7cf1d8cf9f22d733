// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package urltest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestReadURLList_SkipsBlankAndCommentLines(t *testing.T) {
	input := "http://a.test/1\n\n# a comment\n  \nhttp://a.test/2\n"
	entries, err := ReadURLList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadURLList: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].URL != "http://a.test/1" || entries[0].Line != 1 {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].URL != "http://a.test/2" || entries[1].Line != 5 {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestJoinListURL(t *testing.T) {
	cases := []struct{ base, rel, want string }{
		{"", "foo", "foo"},
		{"http://host/dav", "foo", "http://host/dav/foo"},
		{"http://host/dav/", "foo", "http://host/dav/foo"},
		{"http://host/dav///", "foo", "http://host/dav/foo"},
		{"http://host/dav", "/foo", "http://host/dav/foo"},
	}
	for _, c := range cases {
		if got := JoinListURL(c.base, c.rel); got != c.want {
			t.Errorf("JoinListURL(%q, %q) = %q, want %q", c.base, c.rel, got, c.want)
		}
	}
}

func TestRunGetList_RetriesOnlyTransportFailures(t *testing.T) {
	var statusCalls, errCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/status-404", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&statusCalls, 1)
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	transport := &countingTransport{
		real:         NewHTTPTransport(TransportConfig{}),
		failUntil:    2,
		failCallsPtr: &errCalls,
	}

	entries := []GetListEntry{
		{Line: 1, URL: srv.URL + "/status-404"},
		{Line: 2, URL: srv.URL + "/flaky"},
	}

	agg := NewStats()
	cfg := RunConfig{Retries: 3}
	var results []GetListResult
	var mu sync.Mutex
	err := RunGetList(context.Background(), entries, transport, agg, cfg, 1, func(r GetListResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("RunGetList: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	if atomic.LoadInt32(&statusCalls) != 1 {
		t.Errorf("a 404 status must never be retried, got %d calls", statusCalls)
	}
	if atomic.LoadInt32(&errCalls) != 3 {
		t.Errorf("a transport failure should retry up to cfg.Retries times, got %d calls", errCalls)
	}
}

// countingTransport wraps a real HTTPTransport but forces Download to fail
// with a transport-layer error for the first failUntil calls to a URL whose
// path is not "/status-404", to exercise fetchWithRetry's retry condition.
type countingTransport struct {
	real         *HTTPTransport
	failUntil    int32
	failCallsPtr *int32
}

func (c *countingTransport) Mkdir(ctx context.Context, url string) Result { return c.real.Mkdir(ctx, url) }
func (c *countingTransport) Upload(ctx context.Context, localPath, url string) Result {
	return c.real.Upload(ctx, localPath, url)
}
func (c *countingTransport) Delete(ctx context.Context, url string) Result { return c.real.Delete(ctx, url) }
func (c *countingTransport) GetInfo(ctx context.Context, url string) Result {
	return c.real.GetInfo(ctx, url)
}
func (c *countingTransport) Options(ctx context.Context, url string) Result {
	return c.real.Options(ctx, url)
}
func (c *countingTransport) LastError() string { return c.real.LastError() }

func (c *countingTransport) Download(ctx context.Context, url, sinkPath string) Result {
	if strings.Contains(url, "/status-404") {
		return c.real.Download(ctx, url, sinkPath)
	}
	n := atomic.AddInt32(c.failCallsPtr, 1)
	if n <= c.failUntil {
		return Result{Err: errors.New("simulated transport failure")}
	}
	return Result{Completed: true, Status: 200}
}

func (c *countingTransport) DownloadRange(ctx context.Context, url, sinkPath string, start, end int64) Result {
	return c.real.DownloadRange(ctx, url, sinkPath, start, end)
}
