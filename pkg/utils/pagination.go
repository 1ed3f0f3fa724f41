package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationParams is the sanitized page/limit pair parsed from the
// query string. Page and Limit are always at least 1, with Limit
// capped at maxPageSize.
type PaginationParams struct {
	Page  int
	Limit int
}

// Offset is the row offset of the current page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

func ParsePagination(c *fiber.Ctx) PaginationParams {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", defaultPageSize)

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return PaginationParams{Page: page, Limit: limit}
}

// ApplyPagination scopes a list query to the requested page; the
// caller pairs it with a separate Count for the Paginated envelope.
func ApplyPagination(db *gorm.DB, p PaginationParams) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.Limit)
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	parsed, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return parsed
}
