package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestRouteUsesMatchedPattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)

	var got string
	r.DELETE("/api/leads/:id", func(c *gin.Context) {
		got = requestRoute(c)
	})

	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/leads/123", nil))
	if got != "DELETE /api/leads/:id" {
		t.Fatalf("expected matched route pattern, got %q", got)
	}
}
