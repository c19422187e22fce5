// Package domain provides shared types for domain services.
package domain

import (
	"hidesync/internal/core/id"
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search performs case-insensitive substring search on name
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	// IncludeSystem includes system-managed records (default true)
	IncludeSystem bool

	// OrderBy specifies sorting (e.g., "name", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:         50,
		OrderBy:       "name",
		IncludeSystem: true,
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
