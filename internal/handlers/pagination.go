package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// parsePagination reads page/limit query params, clamping them to sane
// bounds. Malformed values fall back to the defaults.
func parsePagination(c *gin.Context) (page, limit, skip int64) {
	page = 1
	limit = defaultPageLimit

	if p, err := strconv.ParseInt(c.Query("page"), 10, 64); err == nil && p >= 1 {
		page = p
	}
	if l, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil && l >= 1 {
		limit = l
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return page, limit, (page - 1) * limit
}
