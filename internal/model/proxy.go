// Package model defines shared types for the proxy.
package model

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Kind identifies which proxy rule handled a request. Its value is the
// human-readable label used in log lines and error responses.
type Kind string

const (
	KindAPI         Kind = "Proxy"
	KindActivityPub Kind = "ActivityPub proxy"
	KindFederated   Kind = "Federated proxy"
	KindWebFinger   Kind = "WebFinger proxy"
)

// ProxyRequest represents a client request to be forwarded upstream.
type ProxyRequest struct {
	Ctx    context.Context
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   io.ReadCloser
}

// ProxyResponse represents the upstream response to be streamed back.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// UpstreamTarget is the fully resolved destination for a proxied request.
// For federated requests the host comes from the inbound query string;
// Domain records it for logging.
type UpstreamTarget struct {
	URL    *url.URL
	Kind   Kind
	Accept string // non-empty forces the outbound Accept header
	Domain string
}

// ProxyError wraps an upstream connectivity failure with the label of the
// rule that was forwarding when it occurred. The handler maps it to the
// client-visible JSON error body.
type ProxyError struct {
	Kind Kind
	Err  error
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ProxyError) Unwrap() error {
	return e.Err
}
