package services

import (
	"context"
	"net/url"

	"rewards-dashboard/gateway"
	"rewards-dashboard/models"

	"github.com/sirupsen/logrus"
)

// RewardRequestService wraps the purchases (reward request) endpoints plus
// the store dashboard and category endpoints.
type RewardRequestService struct {
	base
}

func NewRewardRequestService(api Requester, log *logrus.Entry) *RewardRequestService {
	return &RewardRequestService{base{api: api, log: log}}
}

// FetchRequests lists a store's reward requests, optionally by status
func (s *RewardRequestService) FetchRequests(ctx context.Context, storeID string, status models.RewardStatus) ([]models.RewardRequest, error) {
	params := gateway.Params{"storeId": storeID, "status": string(status)}

	var out []models.RewardRequest
	if err := s.api.Get(ctx, "/rewards/admin/purchases", params, &out); err != nil {
		return nil, s.fail("fetch reward requests", err)
	}
	return out, nil
}

// UpdateStatus moves one request to status
func (s *RewardRequestService) UpdateStatus(ctx context.Context, id string, status models.RewardStatus) (*models.RewardRequest, error) {
	var out models.RewardRequest
	path := "/rewards/admin/purchases/" + url.PathEscape(id) + "/status"
	if err := s.api.Put(ctx, path, nil, models.UpdateRequestStatusDto{Status: status}, &out); err != nil {
		return nil, s.fail("update reward status", err)
	}
	return &out, nil
}

// BulkUpdateStatus moves every id to status and returns the updated requests
func (s *RewardRequestService) BulkUpdateStatus(ctx context.Context, dto models.BulkUpdateRequestStatusDto) ([]models.RewardRequest, error) {
	var out []models.RewardRequest
	if err := s.api.Put(ctx, "/rewards/admin/purchases/bulk-update", nil, dto, &out); err != nil {
		return nil, s.fail("bulk update reward status", err)
	}
	return out, nil
}

// FetchDetails returns one request with its nested reward and user
func (s *RewardRequestService) FetchDetails(ctx context.Context, id string) (*models.RewardRequest, error) {
	var out models.RewardRequest
	if err := s.api.Get(ctx, "/rewards/admin/purchases/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, s.fail("fetch reward details", err)
	}
	return &out, nil
}

// Search runs the advanced purchases search
func (s *RewardRequestService) Search(ctx context.Context, storeID string, q models.RequestSearchQuery) (*models.RewardRequestsPage, error) {
	var out models.RewardRequestsPage
	if err := s.api.Get(ctx, "/rewards/admin/purchases/search", searchParams(storeID, q), &out); err != nil {
		return nil, s.fail("search reward requests", err)
	}
	return &out, nil
}

// Paginated lists purchases page by page; unset fields use backend defaults
func (s *RewardRequestService) Paginated(ctx context.Context, storeID string, q models.RequestSearchQuery) (*models.RewardRequestsPage, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}

	var out models.RewardRequestsPage
	if err := s.api.Get(ctx, "/rewards/admin/purchases/paginated", searchParams(storeID, q), &out); err != nil {
		return nil, s.fail("fetch paginated reward requests", err)
	}
	return &out, nil
}

// DashboardStats fetches the store overview numbers
func (s *RewardRequestService) DashboardStats(ctx context.Context, storeID string) (*models.DashboardStats, error) {
	var out models.DashboardStats
	path := "/rewards/admin/stores/" + url.PathEscape(storeID) + "/dashboard-stats"
	if err := s.api.Get(ctx, path, nil, &out); err != nil {
		return nil, s.fail("fetch dashboard stats", err)
	}
	return &out, nil
}

// StatusCounts fetches the number of requests per status
func (s *RewardRequestService) StatusCounts(ctx context.Context, storeID string) (*models.StatusCounts, error) {
	var out models.StatusCounts
	path := "/rewards/admin/stores/" + url.PathEscape(storeID) + "/status-counts"
	if err := s.api.Get(ctx, path, nil, &out); err != nil {
		return nil, s.fail("fetch status counts", err)
	}
	return &out, nil
}

// RefreshCache asks the backend to rebuild its caches for the store
func (s *RewardRequestService) RefreshCache(ctx context.Context, storeID string) error {
	path := "/rewards/admin/stores/" + url.PathEscape(storeID) + "/refresh-cache"
	if err := s.api.Post(ctx, path, nil, nil); err != nil {
		return s.fail("refresh store cache", err)
	}
	return nil
}

// Categories lists reward categories
func (s *RewardRequestService) Categories(ctx context.Context) ([]models.RewardCategory, error) {
	var out []models.RewardCategory
	if err := s.api.Get(ctx, "/rewards/categories", nil, &out); err != nil {
		return nil, s.fail("fetch categories", err)
	}
	return out, nil
}

func searchParams(storeID string, q models.RequestSearchQuery) gateway.Params {
	return gateway.Params{
		"storeId":    storeID,
		"query":      q.Query,
		"status":     string(q.Status),
		"dateFrom":   q.DateFrom,
		"dateTo":     q.DateTo,
		"category":   q.Category,
		"categoryId": q.CategoryID,
		"isActive":   boolParam(q.IsActive),
		"page":       intParam(q.Page),
		"limit":      intParam(q.Limit),
		"sortBy":     q.SortBy,
		"sortOrder":  q.SortOrder,
	}
}
