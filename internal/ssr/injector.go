package ssr

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"fedigate/internal/config"
	"fedigate/internal/model"
	"fedigate/internal/service"
)

const (
	titleOpen  = "<title>"
	titleClose = "</title>"

	// excerptLimit bounds post content used as a description.
	excerptLimit = 160
)

// Injector rewrites the SPA template's title and meta tags per request.
// The template is read once at startup and never mutated; each request
// derives an independent copy.
type Injector struct {
	template     string
	proxy        *service.ProxyService
	logger       *slog.Logger
	frontendURL  string
	siteName     string
	fetchTimeout time.Duration
}

// NewInjector loads the SPA template from the static directory and returns
// an Injector. A missing or unreadable template is fatal: there is nothing
// sensible to serve without it.
func NewInjector(cfg *config.Config, svc *service.ProxyService, logger *slog.Logger) (*Injector, error) {
	path := cfg.Static.IndexPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ssr: load template %s: %w", path, err)
	}

	return &Injector{
		template:     string(data),
		proxy:        svc,
		logger:       logger.With("component", "ssr_injector"),
		frontendURL:  strings.TrimRight(cfg.SSR.FrontendURL, "/"),
		siteName:     cfg.SSR.SiteName,
		fetchTimeout: time.Duration(cfg.SSR.FetchTimeoutSeconds) * time.Second,
	}, nil
}

// Render returns the template with title and meta tags for the requested
// page. Injection is best-effort: on any failure the pristine template is
// returned so page delivery is never blocked.
func (i *Injector) Render(ctx context.Context, path string, query url.Values) (doc string) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("meta injection panic", "err", r, "path", path)
			doc = i.template
		}
	}()

	page := Classify(path, query)
	m := i.metaFor(ctx, page)
	return i.inject(m, path)
}

// metaFor computes the metadata for a classified page, enriching profile and
// post pages with live data when available.
func (i *Injector) metaFor(ctx context.Context, page Page) Meta {
	switch page.Category {
	case CategoryProfile:
		if m, ok := i.fetchUserMeta(ctx, page.Username); ok {
			return m
		}
		// Unknown users render like the home page.
		return i.homeMeta()

	case CategoryPost:
		if m, ok := i.fetchPostMeta(ctx, page.PostID); ok {
			return m
		}
		return Meta{
			Title:       "Post • " + i.siteName,
			Description: fmt.Sprintf("A post on %s.", i.siteName),
			Keywords:    "post, " + strings.ToLower(i.siteName),
		}

	case CategorySearch:
		if page.Query != "" {
			return Meta{
				Title:       fmt.Sprintf("%s — search • %s", page.Query, i.siteName),
				Description: fmt.Sprintf("Search results for %q on %s.", page.Query, i.siteName),
				Keywords:    "search, " + page.Query,
			}
		}
		return Meta{
			Title:       "Search • " + i.siteName,
			Description: fmt.Sprintf("Search posts, people and tags on %s.", i.siteName),
			Keywords:    "search",
		}

	case CategoryStatic:
		t := staticPages[page.Slug]
		return Meta{
			Title:       t.title + " • " + i.siteName,
			Description: t.description,
			Keywords:    t.keywords,
		}
	}

	return i.homeMeta()
}

func (i *Injector) homeMeta() Meta {
	return Meta{
		Title:       i.siteName,
		Description: fmt.Sprintf("%s — share posts, go live and connect with creators across the fediverse.", i.siteName),
		Keywords:    "social network, fediverse, live streaming, creators",
	}
}

// userPayload is the subset of GET /v1/users/:username we care about.
type userPayload struct {
	User struct {
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	} `json:"user"`
}

// fetchUserMeta fetches a user's display data through the proxy. The bool
// result is false for any failure: timeout, connection error, non-200, or a
// body with no user. A missing user is an expected outcome, not an error.
func (i *Injector) fetchUserMeta(ctx context.Context, username string) (Meta, bool) {
	var payload userPayload
	if !i.fetchJSON(ctx, "/v1/users/"+url.PathEscape(username), &payload) {
		return Meta{}, false
	}
	if payload.User.Name == "" {
		return Meta{}, false
	}

	return Meta{
		Title:       fmt.Sprintf("%s (@%s) • %s", payload.User.Name, username, i.siteName),
		Description: fmt.Sprintf("Follow %s (@%s) on %s.", payload.User.Name, username, i.siteName),
		Keywords:    fmt.Sprintf("%s, @%s, profile", payload.User.Name, username),
		Image:       payload.User.Avatar,
	}, true
}

// postPayload is the subset of GET /v1/posts/:id we care about.
type postPayload struct {
	Post struct {
		Content string `json:"content"`
		Image   string `json:"image"`
	} `json:"post"`
}

// fetchPostMeta fetches a post's excerpt and image through the proxy.
func (i *Injector) fetchPostMeta(ctx context.Context, id string) (Meta, bool) {
	var payload postPayload
	if !i.fetchJSON(ctx, "/v1/posts/"+url.PathEscape(id), &payload) {
		return Meta{}, false
	}
	if payload.Post.Content == "" && payload.Post.Image == "" {
		return Meta{}, false
	}

	excerpt := truncate(payload.Post.Content, excerptLimit)
	title := excerpt
	if title == "" {
		title = "Post"
	}

	return Meta{
		Title:       title + " • " + i.siteName,
		Description: excerpt,
		Keywords:    "post, " + strings.ToLower(i.siteName),
		Image:       payload.Post.Image,
	}, true
}

// fetchJSON issues a bounded-timeout GET through the proxy service and
// decodes the JSON body into out. It reports success only for a 200 with a
// decodable body.
func (i *Injector) fetchJSON(ctx context.Context, path string, out any) bool {
	ctx, cancel := context.WithTimeout(ctx, i.fetchTimeout)
	defer cancel()

	pr := &model.ProxyRequest{
		Ctx:    ctx,
		Method: http.MethodGet,
		Path:   path,
		Query:  url.Values{},
		Header: http.Header{"Accept": {"application/json"}},
		Body:   http.NoBody,
	}

	resp, err := i.proxy.Forward(pr)
	if err != nil {
		i.logger.Debug("enrichment fetch failed", "path", path, "err", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		i.logger.Debug("enrichment decode failed", "path", path, "err", err)
		return false
	}
	return true
}

// inject replaces the template's title content and inserts the meta block
// immediately after the closing title tag. A template without a title tag is
// returned unchanged.
func (i *Injector) inject(m Meta, path string) string {
	tpl := i.template
	start := strings.Index(tpl, titleOpen)
	end := strings.Index(tpl, titleClose)
	if start < 0 || end < 0 || end < start {
		return tpl
	}

	var b strings.Builder
	b.WriteString(tpl[:start])
	b.WriteString(titleOpen)
	b.WriteString(html.EscapeString(m.Title))
	b.WriteString(titleClose)
	b.WriteString(i.metaBlock(m, path))
	b.WriteString(tpl[end+len(titleClose):])
	return b.String()
}

// metaBlock renders the description/keywords, Open Graph and Twitter-card
// tags for a page.
func (i *Injector) metaBlock(m Meta, path string) string {
	pageURL := i.frontendURL + path

	var b strings.Builder
	writeTag := func(attr, name, content string) {
		if content == "" {
			return
		}
		// %q would re-quote escaped text (a backslash becomes \\), so the
		// already-escaped value is written verbatim between plain quotes.
		fmt.Fprintf(&b, "\n    <meta %s=\"%s\" content=\"%s\">", attr, name, html.EscapeString(content))
	}

	writeTag("name", "description", m.Description)
	writeTag("name", "keywords", m.Keywords)
	writeTag("property", "og:title", m.Title)
	writeTag("property", "og:description", m.Description)
	writeTag("property", "og:image", m.Image)
	writeTag("property", "og:url", pageURL)
	writeTag("property", "og:type", "website")
	writeTag("name", "twitter:card", "summary_large_image")
	writeTag("name", "twitter:title", m.Title)
	writeTag("name", "twitter:description", m.Description)
	writeTag("name", "twitter:image", m.Image)
	return b.String()
}

// truncate shortens s to at most limit runes, appending an ellipsis when cut.
func truncate(s string, limit int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
