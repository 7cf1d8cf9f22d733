// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package urltest

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PropfindAllPropBody is the verbatim depth-0 PROPFIND request body from §6.
const PropfindAllPropBody = `<?xml version="1.0"?>
<a:propfind xmlns:a="DAV:"><a:allprop/></a:propfind>`

// Result is what every transport capability call returns: whether the
// request round-tripped at all (Completed), the HTTP status if it did, the
// seven timing fields, and (for OPTIONS) the parsed Allow header.
type Result struct {
	Completed   bool
	Status      int
	Timings     Timings
	HasPropfind bool
	HasDelete   bool
	Err         error
}

// Transport is the capability set spec.md §6 describes as an external
// collaborator. HTTPTransport below is the concrete implementation this
// module ships so the two CLI binaries are runnable end to end.
type Transport interface {
	Mkdir(ctx context.Context, url string) Result
	Upload(ctx context.Context, localPath, url string) Result
	Download(ctx context.Context, url, sinkPath string) Result
	DownloadRange(ctx context.Context, url, sinkPath string, start, end int64) Result
	Delete(ctx context.Context, url string) Result
	GetInfo(ctx context.Context, url string) Result
	Options(ctx context.Context, url string) Result
	LastError() string
}

// TransportConfig configures an HTTPTransport. It corresponds 1:1 to the
// "also configured with" clause of §6.
type TransportConfig struct {
	Username           string
	Password           string
	InsecureSkipVerify bool
	HostMappings       map[string]string // "host:port" -> "ip"
	Follow3xx          bool
	VerboseTrace       bool
}

// HTTPTransport is the default Transport, built on net/http plus
// net/http/httptrace for curl-style per-phase timings (see SPEC_FULL.md's
// C8 section for why this, rather than a third-party client, is the right
// tool: no retrieved library exposes per-phase timing hooks the way
// httptrace does).
type HTTPTransport struct {
	cfg    TransportConfig
	client *http.Client

	mu      sync.Mutex
	lastErr string
}

// NewHTTPTransport builds a transport from cfg.
func NewHTTPTransport(cfg TransportConfig) *HTTPTransport {
	dialer := &net.Dialer{Timeout: 30 * time.Second}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if mapped, ok := cfg.HostMappings[addr]; ok {
				if _, port, err := net.SplitHostPort(addr); err == nil {
					addr = net.JoinHostPort(mapped, port)
				}
			}
			return dialer.DialContext(ctx, network, addr)
		},
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
		MaxIdleConns:    16,
		IdleConnTimeout: 90 * time.Second,
	}

	client := &http.Client{Transport: transport}
	if !cfg.Follow3xx {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &HTTPTransport{cfg: cfg, client: client}
}

// LastError returns the most recent transport-layer error string, or "" if
// the last call round-tripped cleanly. Mirrors http_ops_get_error_buffer.
func (t *HTTPTransport) LastError() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

func (t *HTTPTransport) setLastError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.lastErr = err.Error()
	} else {
		t.lastErr = ""
	}
}

func (t *HTTPTransport) addAuth(req *http.Request) {
	if t.cfg.Username != "" || t.cfg.Password != "" {
		req.SetBasicAuth(t.cfg.Username, t.cfg.Password)
	}
	req.Header.Set("User-Agent", "urltest-webdav/1")
}

// timingTrace captures the httptrace hook timestamps for one request.
type timingTrace struct {
	start                time.Time
	dnsStart, dnsDone     time.Time
	connectStart, connectDone time.Time
	tlsStart, tlsDone     time.Time
	wroteRequest          time.Time
	gotFirstByte          time.Time
}

func (tt *timingTrace) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart:             func(httptrace.DNSStartInfo) { tt.dnsStart = time.Now() },
		DNSDone:              func(httptrace.DNSDoneInfo) { tt.dnsDone = time.Now() },
		ConnectStart:         func(string, string) { tt.connectStart = time.Now() },
		ConnectDone:          func(string, string, error) { tt.connectDone = time.Now() },
		TLSHandshakeStart:    func() { tt.tlsStart = time.Now() },
		TLSHandshakeDone:     func(tls.ConnectionState, error) { tt.tlsDone = time.Now() },
		WroteRequest:         func(httptrace.WroteRequestInfo) { tt.wroteRequest = time.Now() },
		GotFirstResponseByte: func() { tt.gotFirstByte = time.Now() },
	}
}

func sub(a, b time.Time) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	return a.Sub(b).Seconds()
}

func (tt *timingTrace) timings(done time.Time, contentBytes int64) Timings {
	return Timings{
		DNS:               sub(tt.dnsDone, tt.dnsStart),
		TCPConnect:        sub(tt.connectDone, tt.connectStart),
		TLSHandshake:      sub(tt.tlsDone, tt.tlsStart),
		PreTransfer:       sub(tt.wroteRequest, tt.start),
		FirstResponseByte: sub(tt.gotFirstByte, tt.start),
		TotalTime:         sub(done, tt.start),
		ContentBytes:      float64(contentBytes),
	}
}

// do executes one HTTP round trip and returns a Result with Completed set
// according to whether the transport layer itself succeeded; it does not
// interpret the HTTP status at all (that's the driver's job, per §7).
func (t *HTTPTransport) do(ctx context.Context, method, url string, body io.Reader, headers map[string]string, sink io.Writer) Result {
	tt := &timingTrace{start: time.Now()}
	traceCtx := httptrace.WithClientTrace(ctx, tt.clientTrace())

	req, err := http.NewRequestWithContext(traceCtx, method, url, body)
	if err != nil {
		t.setLastError(err)
		return Result{Err: err}
	}
	t.addAuth(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if t.cfg.VerboseTrace {
		fmt.Fprintf(os.Stderr, "> %s %s\n", method, url)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.setLastError(err)
		return Result{Err: err}
	}
	defer resp.Body.Close()

	var n int64
	if sink != nil {
		n, err = io.Copy(sink, resp.Body)
	} else {
		n, err = io.Copy(io.Discard, resp.Body)
	}
	done := time.Now()
	if err != nil {
		t.setLastError(err)
		return Result{Err: err}
	}
	t.setLastError(nil)

	if t.cfg.VerboseTrace {
		fmt.Fprintf(os.Stderr, "< %d %s\n", resp.StatusCode, url)
	}

	result := Result{
		Completed: true,
		Status:    resp.StatusCode,
		Timings:   tt.timings(done, n),
	}
	if method == http.MethodOptions {
		allow := resp.Header.Get("Allow")
		result.HasPropfind = strings.Contains(strings.ToUpper(allow), "PROPFIND")
		result.HasDelete = strings.Contains(strings.ToUpper(allow), "DELETE")
	}
	return result
}

// Mkdir issues MKCOL.
func (t *HTTPTransport) Mkdir(ctx context.Context, url string) Result {
	return t.do(ctx, "MKCOL", url, nil, nil, nil)
}

// Upload issues PUT with localPath's contents as the body.
func (t *HTTPTransport) Upload(ctx context.Context, localPath, url string) Result {
	f, err := os.Open(localPath)
	if err != nil {
		t.setLastError(err)
		return Result{Err: err}
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		t.setLastError(err)
		return Result{Err: err}
	}

	tt := &timingTrace{start: time.Now()}
	traceCtx := httptrace.WithClientTrace(ctx, tt.clientTrace())
	req, err := http.NewRequestWithContext(traceCtx, http.MethodPut, url, f)
	if err != nil {
		t.setLastError(err)
		return Result{Err: err}
	}
	req.ContentLength = info.Size()
	t.addAuth(req)

	resp, err := t.client.Do(req)
	if err != nil {
		t.setLastError(err)
		return Result{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	done := time.Now()
	t.setLastError(nil)

	return Result{
		Completed: true,
		Status:    resp.StatusCode,
		Timings:   tt.timings(done, info.Size()),
	}
}

// Download issues GET, streaming the body to sinkPath when non-empty.
func (t *HTTPTransport) Download(ctx context.Context, url, sinkPath string) Result {
	return t.downloadWithHeaders(ctx, url, sinkPath, nil)
}

// DownloadRange issues GET with a Range: bytes=start-end header.
func (t *HTTPTransport) DownloadRange(ctx context.Context, url, sinkPath string, start, end int64) Result {
	headers := map[string]string{"Range": fmt.Sprintf("bytes=%d-%d", start, end)}
	return t.downloadWithHeaders(ctx, url, sinkPath, headers)
}

func (t *HTTPTransport) downloadWithHeaders(ctx context.Context, url, sinkPath string, headers map[string]string) Result {
	var sink io.Writer
	var f *os.File
	if sinkPath != "" {
		var err error
		f, err = os.Create(sinkPath)
		if err != nil {
			t.setLastError(err)
			return Result{Err: err}
		}
		defer f.Close()
		sink = f
	}
	return t.do(ctx, http.MethodGet, url, nil, headers, sink)
}

// Delete issues DELETE.
func (t *HTTPTransport) Delete(ctx context.Context, url string) Result {
	return t.do(ctx, http.MethodDelete, url, nil, nil, nil)
}

// GetInfo issues a depth-0 PROPFIND with the verbatim allprop body from §6.
func (t *HTTPTransport) GetInfo(ctx context.Context, url string) Result {
	headers := map[string]string{
		"Content-Type": "text/xml",
		"Depth":        "0",
		"Translate":    "f",
	}
	body := bytes.NewBufferString(PropfindAllPropBody)
	return t.do(ctx, "PROPFIND", url, body, headers, nil)
}

// Options issues OPTIONS and parses the Allow header.
func (t *HTTPTransport) Options(ctx context.Context, url string) Result {
	return t.do(ctx, http.MethodOptions, url, nil, nil, nil)
}

// ParseRangeHeader formats the Range header value "bytes=S-E" for the
// inclusive byte range start..end. DownloadRange builds the same value
// itself and does not call it.
func ParseRangeHeader(start, end int64) string {
	return "bytes=" + strconv.FormatInt(start, 10) + "-" + strconv.FormatInt(end, 10)
}
