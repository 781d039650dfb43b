package gateways

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/ochairo/sqlitefetch/internal/domain/interfaces"
)

// HTTPClientConfig configures the client shared by the page fetch and the
// artifact download
type HTTPClientConfig struct {
	// ConnectTimeout bounds the TCP dial only.
	ConnectTimeout time.Duration
	// ReadTimeout bounds the wait for response headers and every individual
	// read from the connection, so a large body that keeps flowing is not cut off.
	ReadTimeout time.Duration
	UserAgent   string
}

// NewHTTPClient builds an http.Client with separate connect and read timeouts.
// No overall client timeout is set; callers bound total time with ctx.
func NewHTTPClient(cfg HTTPClientConfig, logger interfaces.Logger) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if cfg.ReadTimeout <= 0 {
			return conn, nil
		}
		return &readDeadlineConn{Conn: conn, timeout: cfg.ReadTimeout}, nil
	}

	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dial,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          4,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   cfg.ReadTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: &loggingTransport{
			base:      tr,
			userAgent: cfg.UserAgent,
			logger:    interfaces.OrNoOp(logger),
		},
	}
}

// readDeadlineConn pushes the read deadline forward before every Read
type readDeadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readDeadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

type loggingTransport struct {
	base      http.RoundTripper
	userAgent string
	logger    interfaces.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Debug("http request failed",
			interfaces.F("method", req.Method),
			interfaces.F("url", req.URL.String()),
			interfaces.F("error", err.Error()))
		return nil, err
	}

	t.logger.Debug("http request",
		interfaces.F("method", req.Method),
		interfaces.F("url", req.URL.String()),
		interfaces.F("status", resp.StatusCode),
		interfaces.F("elapsed", time.Since(start).String()))
	return resp, nil
}
