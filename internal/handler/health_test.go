package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHealthHandler_Health(t *testing.T) {
	h := NewHealthHandler("fedigate-ssr", "1.2.3")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Health(c); err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("status = %v, want %q", body["status"], "ok")
	}
	if body["service"] != "fedigate-ssr" {
		t.Errorf("service = %v, want %q", body["service"], "fedigate-ssr")
	}
	if body["version"] != "1.2.3" {
		t.Errorf("version = %v, want %q", body["version"], "1.2.3")
	}
	for _, key := range []string{"timestamp", "uptime"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing %q in health payload", key)
		}
	}
}
