package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"fedigate/internal/ssr"
)

// SSRHandler serves SPA pages with per-route meta tags injected.
type SSRHandler struct {
	injector *ssr.Injector
}

// NewSSRHandler creates an SSRHandler.
func NewSSRHandler(inj *ssr.Injector) *SSRHandler {
	return &SSRHandler{injector: inj}
}

// Handle renders the SPA template for the requested page. Injection is
// best-effort: the page is always delivered with 200 even when enrichment
// or substitution fails.
func (h *SSRHandler) Handle(c echo.Context) error {
	req := c.Request()
	doc := h.injector.Render(req.Context(), req.URL.Path, req.URL.Query())
	return c.HTML(http.StatusOK, doc)
}
