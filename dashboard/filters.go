package dashboard

import (
	"strconv"
	"strings"
	"sync"

	"rewards-dashboard/models"
)

var sortFields = map[string]bool{
	"createdAt":          true,
	"updatedAt":          true,
	"title":              true,
	"pointsCost":         true,
	"isActive":           true,
	"currentRedemptions": true,
	"status":             true,
}

// Filters is the list state shared by the rewards and requests views.
type Filters struct {
	CategoryID string              `json:"categoryId,omitempty"`
	IsActive   *bool               `json:"isActive,omitempty"`
	Query      string              `json:"query,omitempty"`
	Status     models.RewardStatus `json:"status,omitempty"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	SortBy     string              `json:"sortBy"`
	SortOrder  string              `json:"sortOrder"`
}

func DefaultFilters() Filters {
	return Filters{Page: 1, Limit: 10, SortBy: "createdAt", SortOrder: "desc"}
}

// FilterPatch changes some filters. IsActive and Status take "" to mean
// "any". Every field except Page sends the view back to page 1.
type FilterPatch struct {
	CategoryID *string `json:"categoryId,omitempty"`
	IsActive   *string `json:"isActive,omitempty"`
	Query      *string `json:"query,omitempty"`
	Status     *string `json:"status,omitempty"`
	Page       *int    `json:"page,omitempty"`
	Limit      *int    `json:"limit,omitempty"`
	SortBy     *string `json:"sortBy,omitempty"`
	SortOrder  *string `json:"sortOrder,omitempty"`
}

// Apply returns f with p applied. f is left unchanged on error.
func (f Filters) Apply(p FilterPatch) (Filters, error) {
	next := f
	reset := false

	if p.CategoryID != nil {
		next.CategoryID = strings.TrimSpace(*p.CategoryID)
		reset = true
	}
	if p.IsActive != nil {
		if *p.IsActive == "" {
			next.IsActive = nil
		} else {
			v, err := strconv.ParseBool(*p.IsActive)
			if err != nil {
				return f, invalid("isActive", "must be true, false or empty")
			}
			next.IsActive = &v
		}
		reset = true
	}
	if p.Query != nil {
		next.Query = *p.Query
		reset = true
	}
	if p.Status != nil {
		if *p.Status == "" {
			next.Status = ""
		} else {
			status, err := models.ParseRewardStatus(*p.Status)
			if err != nil {
				return f, invalid("status", err.Error())
			}
			next.Status = status
		}
		reset = true
	}
	if p.Limit != nil {
		if *p.Limit < 1 || *p.Limit > 100 {
			return f, invalid("limit", "must be between 1 and 100")
		}
		next.Limit = *p.Limit
		reset = true
	}
	if p.SortBy != nil {
		if !sortFields[*p.SortBy] {
			return f, invalid("sortBy", "unsupported sort field")
		}
		next.SortBy = *p.SortBy
		reset = true
	}
	if p.SortOrder != nil {
		order := strings.ToLower(*p.SortOrder)
		if order != "asc" && order != "desc" {
			return f, invalid("sortOrder", "must be asc or desc")
		}
		next.SortOrder = order
		reset = true
	}
	if p.Page != nil {
		if *p.Page < 1 {
			return f, invalid("page", "must be at least 1")
		}
		next.Page = *p.Page
	}
	if reset {
		next.Page = 1
	}
	return next, nil
}

// RewardsQuery converts the filters to the catalog list parameters.
func (f Filters) RewardsQuery() models.RewardsQuery {
	return models.RewardsQuery{
		CategoryID: f.CategoryID,
		IsActive:   f.IsActive,
		Query:      f.Query,
		Page:       f.Page,
		Limit:      f.Limit,
		SortBy:     f.SortBy,
		SortOrder:  f.SortOrder,
	}
}

// FilterState holds one view's filters.
type FilterState struct {
	mu      sync.Mutex
	initial Filters
	current Filters
}

func NewFilterState(initial Filters) *FilterState {
	return &FilterState{initial: initial, current: initial}
}

func (s *FilterState) Get() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *FilterState) Update(p FilterPatch) (Filters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.current.Apply(p)
	if err != nil {
		return s.current, err
	}
	s.current = next
	return next, nil
}

// Reset restores the filters the view was created with.
func (s *FilterState) Reset() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.initial
	return s.current
}

// Clear drops every filter and returns to the defaults.
func (s *FilterState) Clear() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = DefaultFilters()
	return s.current
}
