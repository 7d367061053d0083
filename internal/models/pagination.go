package models

import (
	"math"
	"strings"
)

// Page is a paginated result.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
}

// NewPage builds a Page and computes TotalPages as ceil(total/limit).
func NewPage[T any](items []T, total int64, page, limit int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Page[T]{Items: items, Total: total, Page: page, TotalPages: pages}
}

// PageRequest is a 1-based page/limit pair.
type PageRequest struct {
	Page  int
	Limit int
}

// MaxOffset bounds Offset. Pages past it are empty rather than overflowing.
const MaxOffset = math.MaxInt32

// Offset returns the row offset of the page, never negative and never
// above MaxOffset.
func (p PageRequest) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > MaxOffset/p.Limit {
		return MaxOffset
	}
	return (p.Page - 1) * p.Limit
}

// CleanTags trims every tag and drops empties.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
