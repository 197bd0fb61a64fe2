package ssr

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"fedigate/internal/client"
	"fedigate/internal/config"
	"fedigate/internal/route"
	"fedigate/internal/service"
)

const testTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Fedigate</title>
    <link rel="icon" href="/favicon.ico">
</head>
<body><div id="root"></div></body>
</html>`

// newTestInjector builds an Injector whose proxy points at the given API
// handler. A nil handler leaves the API unreachable.
func newTestInjector(t *testing.T, apiHandler http.Handler, template string) *Injector {
	t.Helper()

	apiBase := "http://127.0.0.1:1"
	if apiHandler != nil {
		srv := httptest.NewServer(apiHandler)
		t.Cleanup(srv.Close)
		apiBase = srv.URL
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(template), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			APIBaseURL:      apiBase,
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
		Static: config.StaticConfig{Dir: dir, Index: "index.html"},
		SSR: config.SSRConfig{
			FrontendURL:         "https://fedigate.example",
			SiteName:            "Fedigate",
			FetchTimeoutSeconds: 1,
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r, err := route.NewResolverFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewResolverFromConfig() error = %v", err)
	}
	svc := service.NewProxyService(client.NewUpstreamClient(cfg, logger, nil), r, logger)

	inj, err := NewInjector(cfg, svc, logger)
	if err != nil {
		t.Fatalf("NewInjector() error = %v", err)
	}
	return inj
}

func TestNewInjector_MissingTemplateFails(t *testing.T) {
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{APIBaseURL: "https://api.example.com", TimeoutSeconds: 10, IdleConnections: 10},
		Static:   config.StaticConfig{Dir: t.TempDir(), Index: "index.html"},
		SSR:      config.SSRConfig{FrontendURL: "https://fedigate.example", SiteName: "Fedigate", FetchTimeoutSeconds: 1},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r, err := route.NewResolverFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewResolverFromConfig() error = %v", err)
	}
	svc := service.NewProxyService(client.NewUpstreamClient(cfg, logger, nil), r, logger)

	if _, err := NewInjector(cfg, svc, logger); err == nil {
		t.Fatal("NewInjector() expected error for missing template, got nil")
	}
}

func TestRender_ProfileEnriched(t *testing.T) {
	inj := newTestInjector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users/alice" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"name":"Alice Doe","avatar":"https://cdn.example/alice.png"}}`))
	}), testTemplate)

	doc := inj.Render(context.Background(), "/alice", url.Values{})

	if !strings.Contains(doc, "<title>Alice Doe (@alice) • Fedigate</title>") {
		t.Errorf("title not enriched: %q", titleOf(t, doc))
	}
	if !strings.Contains(doc, `content="https://cdn.example/alice.png"`) {
		t.Error("avatar missing from og:image")
	}
}

func TestRender_UnknownProfileDegradesToHome(t *testing.T) {
	inj := newTestInjector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}), testTemplate)

	doc := inj.Render(context.Background(), "/unknownuser", url.Values{})

	if got := titleOf(t, doc); got != "Fedigate" {
		t.Errorf("title = %q, want generic home title", got)
	}
}

func TestRender_UnreachableAPIDegrades(t *testing.T) {
	inj := newTestInjector(t, nil, testTemplate)

	doc := inj.Render(context.Background(), "/somebody", url.Values{})

	if got := titleOf(t, doc); got != "Fedigate" {
		t.Errorf("title = %q, want generic home title on fetch failure", got)
	}
}

func TestRender_SlowAPIDegrades(t *testing.T) {
	inj := newTestInjector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second) // beyond the 1s fetch timeout
		_, _ = w.Write([]byte(`{"user":{"name":"Too Late"}}`))
	}), testTemplate)

	start := time.Now()
	doc := inj.Render(context.Background(), "/somebody", url.Values{})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Render took %v, want bounded by fetch timeout", elapsed)
	}

	if got := titleOf(t, doc); got != "Fedigate" {
		t.Errorf("title = %q, want generic home title on timeout", got)
	}
}

func TestRender_PostEnriched(t *testing.T) {
	inj := newTestInjector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/posts/42" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"post":{"content":"Hello fediverse!","image":"https://cdn.example/42.jpg"}}`))
	}), testTemplate)

	doc := inj.Render(context.Background(), "/post/42", url.Values{})

	if !strings.Contains(doc, "<title>Hello fediverse! • Fedigate</title>") {
		t.Errorf("title not enriched: %q", titleOf(t, doc))
	}
	if !strings.Contains(doc, `content="https://cdn.example/42.jpg"`) {
		t.Error("post image missing from og:image")
	}
}

func TestRender_MetaContentKeepsBackslashes(t *testing.T) {
	inj := newTestInjector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"post":{"content":"Archived under C:\\photos\\cats, \"raw\" files"}}`))
	}), testTemplate)

	doc := inj.Render(context.Background(), "/post/7", url.Values{})

	// Backslashes pass through literally; quotes come out HTML-escaped.
	if !strings.Contains(doc, `content="Archived under C:\photos\cats, &#34;raw&#34; files`) {
		t.Errorf("meta content mangled: %q", doc)
	}
	if strings.Contains(doc, `C:\\photos`) {
		t.Error("backslashes doubled in meta content")
	}
}

func TestRender_SearchQueryInTitle(t *testing.T) {
	inj := newTestInjector(t, nil, testTemplate)

	doc := inj.Render(context.Background(), "/search", url.Values{"q": {"cats"}})
	if !strings.Contains(titleOf(t, doc), "cats") {
		t.Errorf("title = %q, want query term included", titleOf(t, doc))
	}

	doc = inj.Render(context.Background(), "/search", url.Values{})
	if got := titleOf(t, doc); got != "Search • Fedigate" {
		t.Errorf("title = %q, want generic search title", got)
	}
}

func TestRender_OGURLFromFrontendOrigin(t *testing.T) {
	inj := newTestInjector(t, nil, testTemplate)

	doc := inj.Render(context.Background(), "/settings", url.Values{})
	if !strings.Contains(doc, `content="https://fedigate.example/settings"`) {
		t.Error("og:url not built from the configured frontend origin")
	}
}

func TestRender_TemplateWithoutTitleUnchanged(t *testing.T) {
	bare := `<!DOCTYPE html><html><head></head><body></body></html>`
	inj := newTestInjector(t, nil, bare)

	if doc := inj.Render(context.Background(), "/alice", url.Values{}); doc != bare {
		t.Errorf("template without title mutated: %q", doc)
	}
}

func TestRender_RoundTrip_SingleTitleNoDuplicateMeta(t *testing.T) {
	inj := newTestInjector(t, nil, testTemplate)

	doc := inj.Render(context.Background(), "/explore", url.Values{})

	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("injected document does not parse: %v", err)
	}

	titles := 0
	metaKeys := map[string]int{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				titles++
			case "meta":
				for _, a := range n.Attr {
					if a.Key == "property" || a.Key == "name" {
						metaKeys[a.Val]++
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if titles != 1 {
		t.Errorf("title tags = %d, want exactly 1", titles)
	}
	for _, key := range []string{"og:title", "og:description", "og:url", "og:type", "twitter:card", "twitter:title", "description"} {
		if metaKeys[key] == 0 {
			t.Errorf("missing meta tag %q", key)
		}
		if metaKeys[key] > 1 {
			t.Errorf("meta tag %q appears %d times, want 1", key, metaKeys[key])
		}
	}
}

// titleOf extracts the title text from a rendered document.
func titleOf(t *testing.T, doc string) string {
	t.Helper()
	start := strings.Index(doc, "<title>")
	end := strings.Index(doc, "</title>")
	if start < 0 || end < 0 {
		t.Fatalf("document has no title tag: %q", doc)
	}
	return doc[start+len("<title>") : end]
}
