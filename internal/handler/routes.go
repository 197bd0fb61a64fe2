package handler

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fedigate/internal/config"
	"fedigate/internal/metrics"
)

// proxyPrefixes are the path prefixes owned by the proxy rules. Static file
// serving and SPA fallbacks must never shadow them.
var proxyPrefixes = []string{"/v1", "/activitypub", "/federated", "/.well-known"}

// RegisterProxyRoutes wires the plain proxy process: proxy rules, static
// assets, and the SPA index fallback for client-side routing.
func RegisterProxyRoutes(e *echo.Echo, cfg *config.Config, proxy *ProxyHandler, m *metrics.Metrics) {
	registerProxyRules(e, proxy)
	registerMetrics(e, cfg, m)

	// No /health route here: only the SSR binary owns it. The plain proxy
	// treats /health like any other page path and serves the SPA index.
	e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
		Skipper: reservedPathSkipper(cfg),
		Root:    cfg.Static.Dir,
		Index:   cfg.Static.Index,
		HTML5:   true, // unmatched GET paths fall back to the SPA index
	}))
}

// RegisterSSRRoutes wires the SSR process: proxy rules, health endpoint,
// static assets, and the meta injector as the GET fallback.
func RegisterSSRRoutes(e *echo.Echo, cfg *config.Config, proxy *ProxyHandler, health *HealthHandler, ssr *SSRHandler, m *metrics.Metrics) {
	registerProxyRules(e, proxy)
	registerMetrics(e, cfg, m)

	e.GET("/health", health.Health)

	// HTML5 is off: misses fall through to the router so the injector, not
	// the raw index document, answers page requests.
	e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
		Skipper: reservedPathSkipper(cfg, "/health"),
		Root:    cfg.Static.Dir,
		Index:   cfg.Static.Index,
	}))

	e.GET("/*", ssr.Handle)
}

func registerProxyRules(e *echo.Echo, proxy *ProxyHandler) {
	e.Any("/v1/*", proxy.Handle)
	e.Any("/activitypub/*", proxy.Handle)
	e.Any("/federated/*", proxy.Handle)
	e.Any("/.well-known/*", proxy.Handle)
}

func registerMetrics(e *echo.Echo, cfg *config.Config, m *metrics.Metrics) {
	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		))
	}
}

// reservedPathSkipper keeps the static middleware away from proxied routes
// and service endpoints, even when a file of the same name exists on disk.
// extra lists additional paths the calling binary registers as routes.
func reservedPathSkipper(cfg *config.Config, extra ...string) echomw.Skipper {
	reserved := make([]string, 0, len(proxyPrefixes)+len(extra)+1)
	reserved = append(reserved, proxyPrefixes...)
	reserved = append(reserved, extra...)
	if cfg.Metrics.Enabled {
		reserved = append(reserved, cfg.Metrics.Path)
	}

	return func(c echo.Context) bool {
		path := c.Request().URL.Path
		for _, p := range reserved {
			if path == p || strings.HasPrefix(path, p+"/") {
				return true
			}
		}
		return false
	}
}
