package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/task-platform/pkg/util"
)

// hopByHopHeaders must not be forwarded on either leg, per RFC 9110 §7.6.1.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

// Proxy forwards requests to upstreams resolved through a Table. It issues
// exactly one outbound request per inbound request and never retries.
type Proxy struct {
	table   *Table
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewProxy constructs a proxy. timeout bounds each outbound call; the
// inbound request context still cancels the call early when the client
// goes away.
func NewProxy(table *Table, timeout time.Duration, logger *zap.Logger) *Proxy {
	return &Proxy{
		table: table,
		client: &http.Client{
			// Redirects come back to the caller untouched; following them
			// here would hide Location from the browser.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: timeout,
		logger:  logger,
	}
}

// Handle is the catch-all fiber handler.
func (p *Proxy) Handle(c *fiber.Ctx) error {
	route, ok := p.table.Match(c.Path())
	if !ok {
		return apperrors.NewNotFound("route")
	}
	return p.forward(c, route)
}

func (p *Proxy) forward(c *fiber.Ctx, route Route) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), p.timeout)
	defer cancel()

	target := route.Upstream + c.Path()
	if qs := string(c.Request().URI().QueryString()); qs != "" {
		target += "?" + qs
	}

	var body io.Reader
	if len(c.Body()) > 0 {
		body = bytes.NewReader(c.Body())
	}
	req, err := http.NewRequestWithContext(ctx, c.Method(), target, body)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	copyRequestHeaders(c, req)

	resp, err := p.client.Do(req)
	if err != nil {
		return p.classify(route, err)
	}
	defer resp.Body.Close()

	p.writeResponse(c, resp)
	return nil
}

// classify splits timeouts from connection failures so the caller can tell
// a slow upstream (504) from an absent one (502).
func (p *Proxy) classify(route Route, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		p.logger.Warn("upstream timed out",
			zap.String("upstream", route.Upstream),
			zap.Error(err))
		return apperrors.NewUpstreamTimeout(route.Upstream)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		p.logger.Warn("upstream timed out",
			zap.String("upstream", route.Upstream),
			zap.Error(err))
		return apperrors.NewUpstreamTimeout(route.Upstream)
	}
	p.logger.Warn("upstream unreachable",
		zap.String("upstream", route.Upstream),
		zap.Error(err))
	return apperrors.NewUpstreamUnavailable(route.Upstream, err)
}

func copyRequestHeaders(c *fiber.Ctx, req *http.Request) {
	c.Request().Header.VisitAll(func(key, value []byte) {
		name := string(key)
		if isHopByHop(name) || strings.EqualFold(name, "Host") || strings.EqualFold(name, "Content-Length") {
			return
		}
		req.Header.Add(name, string(value))
	})
	req.Header.Set("X-Forwarded-For", c.IP())
	req.Header.Set("X-Forwarded-Proto", c.Protocol())
	req.Header.Set("X-Forwarded-Host", c.Hostname())
}

func (p *Proxy) writeResponse(c *fiber.Ctx, resp *http.Response) {
	for name, values := range resp.Header {
		if isHopByHop(name) || strings.EqualFold(name, "Content-Length") {
			continue
		}
		switch {
		case strings.EqualFold(name, "Location"):
			c.Set(name, rewriteLocation(values[0], resp.Request.URL))
		case strings.EqualFold(name, "Set-Cookie"):
			// Set-Cookie is the one header that legitimately repeats.
			for _, v := range values {
				c.Response().Header.Add(name, v)
			}
		default:
			c.Set(name, values[0])
			for _, v := range values[1:] {
				c.Response().Header.Add(name, v)
			}
		}
	}

	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Response().BodyWriter(), resp.Body); err != nil {
		p.logger.Warn("streaming upstream body failed", zap.Error(err))
	}
}

// rewriteLocation makes an absolute redirect that points back at the
// upstream relative, so the browser stays on the gateway origin. Redirects
// to other hosts pass through untouched.
func rewriteLocation(location string, upstream *url.URL) string {
	parsed, err := url.Parse(location)
	if err != nil || !parsed.IsAbs() {
		return location
	}
	if parsed.Host != upstream.Host {
		return location
	}
	parsed.Scheme = ""
	parsed.Host = ""
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	return parsed.String()
}

func isHopByHop(name string) bool {
	for _, h := range hopByHopHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}
