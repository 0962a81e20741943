package models

import (
	"fmt"
	"strings"
)

// RewardStatus is the lifecycle status of a reward request
type RewardStatus string

const (
	RewardStatusPending   RewardStatus = "PENDING"
	RewardStatusFulfilled RewardStatus = "FULFILLED"
	RewardStatusCancelled RewardStatus = "CANCELLED"
)

// ParseRewardStatus accepts any letter case and rejects unknown values
func ParseRewardStatus(s string) (RewardStatus, error) {
	status := RewardStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown reward status %q", s)
	}
	return status, nil
}

func (s RewardStatus) Valid() bool {
	switch s {
	case RewardStatusPending, RewardStatusFulfilled, RewardStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s
func (s RewardStatus) IsTerminal() bool {
	return s == RewardStatusFulfilled || s == RewardStatusCancelled
}

// CanTransitionTo reports whether s may move to target. Requests only leave
// PENDING, and only for a terminal status.
func (s RewardStatus) CanTransitionTo(target RewardStatus) bool {
	return s == RewardStatusPending && target.IsTerminal()
}

// RequestUser is the requesting user as embedded in a reward request
type RequestUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// RewardRequest (UserReward on the backend) is a single redemption attempt
type RewardRequest struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	RewardID    string       `json:"rewardId"`
	PointsSpent int          `json:"pointsSpent"`
	Status      RewardStatus `json:"status"`
	CreatedAt   string       `json:"createdAt"`
	User        RequestUser  `json:"user"`
	Reward      Reward       `json:"reward"`
}

// NormalizedStatus upper-cases the status; some backend rows are lower case
func (r RewardRequest) NormalizedStatus() RewardStatus {
	return RewardStatus(strings.ToUpper(string(r.Status)))
}

type UpdateRequestStatusDto struct {
	Status RewardStatus `json:"status"`
}

type BulkUpdateRequestStatusDto struct {
	IDs     []string     `json:"ids"`
	Status  RewardStatus `json:"status"`
	StoreID string       `json:"storeId"`
}

// RequestSearchQuery holds the parameters of the purchases search and
// paginated endpoints
type RequestSearchQuery struct {
	Query      string       `json:"query,omitempty"`
	Status     RewardStatus `json:"status,omitempty"`
	DateFrom   string       `json:"dateFrom,omitempty"`
	DateTo     string       `json:"dateTo,omitempty"`
	Category   string       `json:"category,omitempty"`
	CategoryID string       `json:"categoryId,omitempty"`
	IsActive   *bool        `json:"isActive,omitempty"`
	Page       int          `json:"page,omitempty"`
	Limit      int          `json:"limit,omitempty"`
	SortBy     string       `json:"sortBy,omitempty"`
	SortOrder  string       `json:"sortOrder,omitempty"`
}

// RewardRequestsPage is one page of search results
type RewardRequestsPage struct {
	Data       []RewardRequest `json:"data"`
	Pagination Pagination      `json:"pagination"`
}
