package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"log/slog"

	"github.com/gin-gonic/gin"
)

func TestRequestLogEmitsStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestLog())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	logged := buf.String()
	for _, want := range []string{"HTTP request", "method=GET", "path=/healthz", "status=200"} {
		if !strings.Contains(logged, want) {
			t.Errorf("Access log should contain %q, got %q", want, logged)
		}
	}
}

func TestRequestLogPassesRequestThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestLog())
	engine.GET("/missing-check", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing-check", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("Middleware must not alter the response, got %d", rec.Code)
	}
}
