package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func requestIDRouter() (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())

	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = RequestIDFromContext(c)
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func TestRequestIDGeneratesUUID(t *testing.T) {
	r, seen := requestIDRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get("X-Request-Id")
	if id == "" {
		t.Fatal("expected a generated request ID header")
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected a UUID request ID, got %q: %v", id, err)
	}
	if *seen != id {
		t.Fatalf("context ID %q does not match header %q", *seen, id)
	}
}

func TestRequestIDKeepsCallerID(t *testing.T) {
	r, seen := requestIDRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "caller-id-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "caller-id-42" {
		t.Fatalf("expected caller ID to pass through, got %q", got)
	}
	if *seen != "caller-id-42" {
		t.Fatalf("expected caller ID in context, got %q", *seen)
	}
}
