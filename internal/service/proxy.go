// Package service implements the core proxy forwarding logic.
package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"fedigate/internal/client"
	"fedigate/internal/model"
	"fedigate/internal/route"
)

// hopByHopHeaders must not be forwarded in either direction.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// ProxyService resolves upstream targets and relays requests to them.
type ProxyService struct {
	client   *client.UpstreamClient
	resolver *route.Resolver
	logger   *slog.Logger
}

// NewProxyService creates a ProxyService.
func NewProxyService(c *client.UpstreamClient, r *route.Resolver, logger *slog.Logger) *ProxyService {
	return &ProxyService{
		client:   c,
		resolver: r,
		logger:   logger.With("component", "proxy_service"),
	}
}

// Forward resolves the request's upstream target and streams the request to
// it. The caller is responsible for closing the response body.
//
// Connectivity failures are returned as *model.ProxyError carrying the label
// of the rule that was forwarding, so the handler can render the structured
// error body.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	target, ok := s.resolver.Resolve(pr.Path, pr.Query, pr.Header)
	if !ok {
		return nil, fmt.Errorf("no proxy rule matches %s", pr.Path)
	}

	header := forwardableRequestHeaders(pr.Header)
	if target.Accept != "" {
		header.Set("Accept", target.Accept)
	}

	attrs := []any{
		"method", pr.Method,
		"path", pr.Path,
		"upstream", target.URL.String(),
	}
	if target.Kind == model.KindFederated {
		attrs = append(attrs, "domain", target.Domain, "upstream_path", target.URL.Path)
	}
	s.logger.Info("proxying request", attrs...)

	resp, err := s.client.DoStream(pr.Ctx, pr.Method, target.URL.String(), header, pr.Body)
	if err != nil {
		return nil, &model.ProxyError{Kind: target.Kind, Err: err}
	}

	resp.Header = forwardableResponseHeaders(resp.Header)
	return resp, nil
}

// forwardableRequestHeaders copies the inbound headers minus hop-by-hop
// headers. Everything else, including Authorization and cookies, passes
// through untouched; this proxy is credential-transparent.
func forwardableRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		dst[http.CanonicalHeaderKey(key)] = vals
	}
	for _, h := range hopByHopHeaders {
		dst.Del(h)
	}
	return dst
}

// forwardableResponseHeaders copies the upstream headers minus hop-by-hop
// headers and the upstream's own CORS headers. The CORS gate has already
// stamped this response; duplicated Access-Control values confuse browsers.
func forwardableResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if strings.HasPrefix(http.CanonicalHeaderKey(key), "Access-Control-") {
			continue
		}
		dst[http.CanonicalHeaderKey(key)] = vals
	}
	for _, h := range hopByHopHeaders {
		dst.Del(h)
	}
	return dst
}
