// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"hidesync/internal/core/id"
	"hidesync/internal/domain"
)

// ListQuery contains common list query parameters.
type ListQuery struct {
	Search        string `form:"search"`
	OrderBy       string `form:"orderBy"`
	Limit         int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset        int    `form:"offset" binding:"omitempty,min=0"`
	IncludeSystem *bool  `form:"includeSystem"`
}

// ToFilter converts query parameters into the domain filter.
func (q ListQuery) ToFilter() domain.ListFilter {
	filter := domain.DefaultListFilter()
	filter.Search = q.Search
	if q.OrderBy != "" {
		filter.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		filter.Limit = q.Limit
	}
	filter.Offset = q.Offset
	if q.IncludeSystem != nil {
		filter.IncludeSystem = *q.IncludeSystem
	}
	return filter
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
