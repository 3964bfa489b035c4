package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"sort"
	"time"
)

const (
	// DefaultMaxIdleConns is the idle connection pool size.
	DefaultMaxIdleConns = 100
	// DefaultIdleConnTimeout is how long idle connections stay pooled.
	DefaultIdleConnTimeout = 90 * time.Second
)

// Policy is the per-call transport policy derived from a Request with
// defaults resolved.
type Policy struct {
	Timeout         time.Duration // 0 means no enforced timeout
	FollowRedirects bool
	MaxRedirects    int
	VerifySSL       bool
	Proxy           *Proxy
}

func (r *Request) policy() Policy {
	pol := Policy{
		FollowRedirects: true,
		MaxRedirects:    DefaultMaxRedirects,
		VerifySSL:       true,
		Proxy:           r.Proxy,
	}
	if r.TimeoutMs != nil {
		pol.Timeout = time.Duration(*r.TimeoutMs) * time.Millisecond
	}
	if r.FollowRedirects != nil {
		pol.FollowRedirects = *r.FollowRedirects
	}
	if r.MaxRedirects != nil {
		pol.MaxRedirects = int(*r.MaxRedirects)
	}
	if r.VerifySSL != nil {
		pol.VerifySSL = *r.VerifySSL
	}
	return pol
}

// PhaseTimings are absolute timestamps measured from request start, in
// milliseconds. A phase that never happened (no DNS for a literal IP,
// no TLS for plain http) stays zero.
type PhaseTimings struct {
	DNSMs         float64
	ConnectMs     float64
	TLSMs         float64
	PreTransferMs float64
	FirstByteMs   float64
	TotalMs       float64
}

// RawResponse is what a Transport reports back: status, the raw header
// block as lines (status line first, one line per header value,
// duplicates preserved), body bytes, and whatever timing signals the
// transport can offer.
type RawResponse struct {
	StatusCode  int
	Proto       string
	HeaderLines []string
	Body        []byte
	RemoteAddr  string
	Phases      *PhaseTimings // nil under the reduced timing contract
	TotalMs     float64
}

// Transport performs one HTTP exchange. Implementations declare via
// SupportsPhaseTiming whether RawResponse.Phases is populated; the
// analyzer branches on that flag instead of assuming phase data.
type Transport interface {
	RoundTrip(ctx context.Context, built *BuiltRequest, pol Policy) (*RawResponse, error)
	SupportsPhaseTiming() bool
}

// TraceTransport executes on net/http with an httptrace hook chain,
// offering the rich per-phase timing contract. It is the default.
type TraceTransport struct{}

func NewTraceTransport() *TraceTransport {
	return &TraceTransport{}
}

func (t *TraceTransport) SupportsPhaseTiming() bool {
	return true
}

func (t *TraceTransport) RoundTrip(ctx context.Context, built *BuiltRequest, pol Policy) (*RawResponse, error) {
	client, err := newHTTPClient(pol)
	if err != nil {
		return nil, err
	}
	if pol.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pol.Timeout)
		defer cancel()
	}

	start := time.Now()
	elapsed := func() float64 {
		return float64(time.Since(start)) / float64(time.Millisecond)
	}

	var phases PhaseTimings
	var remoteAddr string
	trace := &httptrace.ClientTrace{
		DNSDone: func(httptrace.DNSDoneInfo) {
			phases.DNSMs = elapsed()
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				phases.ConnectMs = elapsed()
			}
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err == nil {
				phases.TLSMs = elapsed()
			}
		},
		GotConn: func(info httptrace.GotConnInfo) {
			remoteAddr = info.Conn.RemoteAddr().String()
		},
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				phases.PreTransferMs = elapsed()
			}
		},
		GotFirstResponseByte: func() {
			phases.FirstByteMs = elapsed()
		},
	}

	httpReq, err := newHTTPRequest(httptrace.WithClientTrace(ctx, trace), built)
	if err != nil {
		return nil, err
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBodyRead, err)
	}
	phases.TotalMs = elapsed()

	// A plaintext or reused connection never fires the TLS (or
	// connect) hooks; carry the previous boundary forward so the
	// reported timestamps stay monotone.
	if phases.ConnectMs < phases.DNSMs {
		phases.ConnectMs = phases.DNSMs
	}
	if phases.TLSMs < phases.ConnectMs {
		phases.TLSMs = phases.ConnectMs
	}

	return &RawResponse{
		StatusCode:  httpResp.StatusCode,
		Proto:       httpResp.Proto,
		HeaderLines: headerLines(httpResp),
		Body:        body,
		RemoteAddr:  remoteAddr,
		Phases:      &phases,
		TotalMs:     phases.TotalMs,
	}, nil
}

// PlainTransport executes on net/http without tracing and reports only
// wall-clock total time, the reduced timing contract.
type PlainTransport struct{}

func NewPlainTransport() *PlainTransport {
	return &PlainTransport{}
}

func (t *PlainTransport) SupportsPhaseTiming() bool {
	return false
}

func (t *PlainTransport) RoundTrip(ctx context.Context, built *BuiltRequest, pol Policy) (*RawResponse, error) {
	client, err := newHTTPClient(pol)
	if err != nil {
		return nil, err
	}
	if pol.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pol.Timeout)
		defer cancel()
	}

	// Only the timing contract is reduced; the remote peer address is
	// still reported, so hook GotConn and nothing else.
	var remoteAddr string
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			remoteAddr = info.Conn.RemoteAddr().String()
		},
	}

	httpReq, err := newHTTPRequest(httptrace.WithClientTrace(ctx, trace), built)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBodyRead, err)
	}

	return &RawResponse{
		StatusCode:  httpResp.StatusCode,
		Proto:       httpResp.Proto,
		HeaderLines: headerLines(httpResp),
		Body:        body,
		RemoteAddr:  remoteAddr,
		TotalMs:     float64(time.Since(start)) / float64(time.Millisecond),
	}, nil
}

func newHTTPRequest(ctx context.Context, built *BuiltRequest) (*http.Request, error) {
	var bodyReader io.Reader
	if built.Body != nil {
		bodyReader = bytes.NewReader(built.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, built.Method, built.URL, bodyReader)
	if err != nil {
		return nil, err
	}
	for _, h := range built.Headers {
		httpReq.Header.Set(h.Name, h.Value)
	}
	return httpReq, nil
}

// newHTTPClient maps a Policy onto a per-call net/http client.
// HTTP/2 over TCP is attempted when the server offers it; HTTP/3 is
// never negotiated. With VerifySSL off, certificate and hostname
// checks are skipped for origin and proxy handshakes alike.
func newHTTPClient(pol Policy) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:      DefaultMaxIdleConns,
		IdleConnTimeout:   DefaultIdleConnTimeout,
		ForceAttemptHTTP2: true,
	}

	if !pol.VerifySSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if pol.Proxy != nil {
		proxyURL, err := url.Parse(pol.Proxy.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		if pol.Proxy.Username != "" && pol.Proxy.Password != "" {
			proxyURL.User = url.UserPassword(pol.Proxy.Username, pol.Proxy.Password)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	checkRedirect := func(req *http.Request, via []*http.Request) error {
		if !pol.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= pol.MaxRedirects {
			return fmt.Errorf("%w: stopped after %d hops", errTooManyRedirects, pol.MaxRedirects)
		}
		return nil
	}

	return &http.Client{
		Transport:     transport,
		CheckRedirect: checkRedirect,
	}, nil
}

// headerLines flattens a response into the raw header block the
// analyzer parses: the status line, then one line per header value so
// duplicate names survive as separate lines.
func headerLines(resp *http.Response) []string {
	lines := make([]string, 0, len(resp.Header)+1)
	lines = append(lines, resp.Proto+" "+resp.Status)

	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range resp.Header[name] {
			lines = append(lines, name+": "+value)
		}
	}
	return lines
}
