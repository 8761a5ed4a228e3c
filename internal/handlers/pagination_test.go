package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func testContextWithQuery(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/leads?"+rawQuery, nil)
	return c
}

func TestParsePaginationDefaults(t *testing.T) {
	page, limit, skip := parsePagination(testContextWithQuery(t, ""))
	if page != 1 || limit != defaultPageLimit || skip != 0 {
		t.Fatalf("unexpected defaults: page=%d limit=%d skip=%d", page, limit, skip)
	}
}

func TestParsePaginationComputesSkip(t *testing.T) {
	page, limit, skip := parsePagination(testContextWithQuery(t, "page=3&limit=25"))
	if page != 3 || limit != 25 {
		t.Fatalf("unexpected values: page=%d limit=%d", page, limit)
	}
	if skip != 50 {
		t.Fatalf("expected skip=50, got %d", skip)
	}
}

func TestParsePaginationClampsLimit(t *testing.T) {
	_, limit, _ := parsePagination(testContextWithQuery(t, "limit=5000"))
	if limit != maxPageLimit {
		t.Fatalf("expected limit clamped to %d, got %d", maxPageLimit, limit)
	}
}

func TestParsePaginationIgnoresGarbage(t *testing.T) {
	page, limit, _ := parsePagination(testContextWithQuery(t, "page=zero&limit=-4"))
	if page != 1 || limit != defaultPageLimit {
		t.Fatalf("garbage params must fall back to defaults, got page=%d limit=%d", page, limit)
	}
}
