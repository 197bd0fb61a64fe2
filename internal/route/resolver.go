// Package route maps inbound request paths to upstream targets.
package route

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"fedigate/internal/config"
	"fedigate/internal/model"
)

const activityPubContentType = "application/activity+json"

// federated control parameters consumed by the resolver; everything else in
// the query string is forwarded upstream untouched.
const (
	federatedDomainParam = "domain"
	federatedPathParam   = "path"
)

// Resolver decides which upstream handles a request. It is built once at
// startup and is a pure function of (path, query, headers) thereafter, so it
// is safe for concurrent use.
type Resolver struct {
	apiBase      *url.URL
	fallbackBase *url.URL
}

// NewResolver creates a Resolver from the API base URL and the federated
// fallback base URL.
func NewResolver(apiBaseURL, fallbackBaseURL string) (*Resolver, error) {
	api, err := url.Parse(apiBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base URL: %w", err)
	}
	if fallbackBaseURL == "" {
		fallbackBaseURL = apiBaseURL
	}
	fallback, err := url.Parse(fallbackBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse fallback base URL: %w", err)
	}
	return &Resolver{apiBase: api, fallbackBase: fallback}, nil
}

// NewResolverFromConfig creates a Resolver from the upstream config section.
func NewResolverFromConfig(cfg *config.Config) (*Resolver, error) {
	return NewResolver(cfg.Upstream.APIBaseURL, cfg.Upstream.FallbackBaseURL)
}

// Resolve maps an inbound request to an upstream target. It returns false
// when no proxy rule matches, in which case the request belongs to static
// file serving or the SSR fallback. Rules are checked most-specific first;
// at most one applies.
func (r *Resolver) Resolve(path string, query url.Values, header http.Header) (*model.UpstreamTarget, bool) {
	switch {
	case matchesPrefix(path, "/v1"):
		return r.api(path, query), true
	case matchesPrefix(path, "/activitypub"):
		return r.activityPub(path, query, header), true
	case matchesPrefix(path, "/federated"):
		return r.federated(path, query), true
	case matchesPrefix(path, "/.well-known"):
		return r.wellKnown(path, query), true
	}
	return nil, false
}

// api forwards /v1/* to the API base with the path unchanged.
func (r *Resolver) api(path string, query url.Values) *model.UpstreamTarget {
	u := *r.apiBase
	u.Path = path
	u.RawQuery = query.Encode()
	return &model.UpstreamTarget{URL: &u, Kind: model.KindAPI}
}

// activityPub forwards /activitypub/* to the API base with the prefix
// stripped. When the client negotiates ActivityPub content, the outbound
// Accept header is forced to exactly that media type.
func (r *Resolver) activityPub(path string, query url.Values, header http.Header) *model.UpstreamTarget {
	u := *r.apiBase
	u.Path = stripPrefix(path, "/activitypub")
	u.RawQuery = query.Encode()

	t := &model.UpstreamTarget{URL: &u, Kind: model.KindActivityPub}
	if strings.Contains(header.Get("Accept"), activityPubContentType) {
		t.Accept = activityPubContentType
	}
	return t
}

// federated forwards /federated/* to the host named by the domain query
// parameter, falling back to the configured fallback base when it is absent.
// The path query parameter, when present, overrides the stripped inbound path.
func (r *Resolver) federated(path string, query url.Values) *model.UpstreamTarget {
	domain := query.Get(federatedDomainParam)

	var u url.URL
	if domain != "" {
		u = url.URL{Scheme: "https", Host: domain}
	} else {
		u = *r.fallbackBase
	}

	if override := query.Get(federatedPathParam); override != "" {
		u.Path = override
	} else {
		u.Path = stripPrefix(path, "/federated")
	}

	forward := url.Values{}
	for k, vals := range query {
		if k == federatedDomainParam || k == federatedPathParam {
			continue
		}
		forward[k] = vals
	}
	u.RawQuery = forward.Encode()

	return &model.UpstreamTarget{URL: &u, Kind: model.KindFederated, Domain: domain}
}

// wellKnown forwards /.well-known/* (WebFinger, nodeinfo, host-meta) to the
// API base with the path unchanged.
func (r *Resolver) wellKnown(path string, query url.Values) *model.UpstreamTarget {
	u := *r.apiBase
	u.Path = path
	u.RawQuery = query.Encode()
	return &model.UpstreamTarget{URL: &u, Kind: model.KindWebFinger}
}

// matchesPrefix reports whether path is prefix itself or a subpath of it.
// It never matches sibling paths like /v1properties.
func matchesPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// stripPrefix removes prefix from path, normalizing the empty result to "/".
func stripPrefix(path, prefix string) string {
	p := strings.TrimPrefix(path, prefix)
	if p == "" {
		return "/"
	}
	return p
}
