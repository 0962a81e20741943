package services

import (
	"context"
	"net/url"

	"rewards-dashboard/gateway"
	"rewards-dashboard/models"

	"github.com/sirupsen/logrus"
)

// Export formats accepted by the backend
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
	ExportJSON = "json"
)

// RewardManagementService wraps the store catalog endpoints
type RewardManagementService struct {
	base
}

func NewRewardManagementService(api Requester, log *logrus.Entry) *RewardManagementService {
	return &RewardManagementService{base{api: api, log: log}}
}

// ListRewards fetches one page of the store's rewards
func (s *RewardManagementService) ListRewards(ctx context.Context, storeID string, q models.RewardsQuery) (*models.RewardsPage, error) {
	var out models.RewardsPage
	if err := s.api.Get(ctx, "/rewards/admin/rewards", rewardsParams(storeID, withListDefaults(q)), &out); err != nil {
		return nil, s.fail("fetch store rewards", err)
	}
	return &out, nil
}

// GetReward fetches a single reward
func (s *RewardManagementService) GetReward(ctx context.Context, id, storeID string) (*models.Reward, error) {
	var out models.Reward
	if err := s.api.Get(ctx, rewardPath(id), gateway.Params{"storeId": storeID}, &out); err != nil {
		return nil, s.fail("fetch store reward", err)
	}
	return &out, nil
}

// CreateReward creates a reward in dto.StoreID
func (s *RewardManagementService) CreateReward(ctx context.Context, dto models.CreateRewardDto) (*models.Reward, error) {
	var out models.Reward
	if err := s.api.Post(ctx, "/rewards/admin/rewards", dto, &out); err != nil {
		return nil, s.fail("create reward", err)
	}
	return &out, nil
}

// UpdateReward applies a partial update
func (s *RewardManagementService) UpdateReward(ctx context.Context, id, storeID string, dto models.UpdateRewardDto) (*models.Reward, error) {
	var out models.Reward
	if err := s.api.Put(ctx, rewardPath(id), gateway.Params{"storeId": storeID}, dto, &out); err != nil {
		return nil, s.fail("update reward", err)
	}
	return &out, nil
}

// DeleteReward deletes one reward
func (s *RewardManagementService) DeleteReward(ctx context.Context, id, storeID string) error {
	if err := s.api.Delete(ctx, rewardPath(id), gateway.Params{"storeId": storeID}, nil, nil); err != nil {
		return s.fail("delete reward", err)
	}
	return nil
}

// ToggleStatus activates or deactivates a reward
func (s *RewardManagementService) ToggleStatus(ctx context.Context, id, storeID string, isActive bool) (*models.Reward, error) {
	var out models.Reward
	dto := models.ToggleRewardStatusDto{IsActive: isActive}
	if err := s.api.Patch(ctx, rewardPath(id)+"/status", gateway.Params{"storeId": storeID}, dto, &out); err != nil {
		return nil, s.fail("toggle reward status", err)
	}
	return &out, nil
}

// BulkUpdate applies the same partial update to many rewards
func (s *RewardManagementService) BulkUpdate(ctx context.Context, storeID string, dto models.BulkUpdateRewardsDto) ([]models.Reward, error) {
	var out []models.Reward
	if err := s.api.Put(ctx, "/rewards/admin/rewards/bulk-update", gateway.Params{"storeId": storeID}, dto, &out); err != nil {
		return nil, s.fail("bulk update rewards", err)
	}
	return out, nil
}

// BulkDelete deletes many rewards; the ids travel in the request body
func (s *RewardManagementService) BulkDelete(ctx context.Context, storeID string, dto models.BulkDeleteRewardsDto) error {
	if err := s.api.Delete(ctx, "/rewards/admin/rewards/bulk-delete", gateway.Params{"storeId": storeID}, dto, nil); err != nil {
		return s.fail("bulk delete rewards", err)
	}
	return nil
}

// Analytics fetches redemption analytics for one reward. timeRange is one of
// 7d, 30d, 90d, 1y or empty.
func (s *RewardManagementService) Analytics(ctx context.Context, id, storeID, timeRange string) (*models.RewardAnalytics, error) {
	var out models.RewardAnalytics
	params := gateway.Params{"storeId": storeID, "timeRange": timeRange}
	if err := s.api.Get(ctx, rewardPath(id)+"/analytics", params, &out); err != nil {
		return nil, s.fail("fetch reward analytics", err)
	}
	return &out, nil
}

// Export downloads the store's rewards in format (csv by default)
func (s *RewardManagementService) Export(ctx context.Context, storeID, format string, q models.RewardsQuery) ([]byte, string, error) {
	if format == "" {
		format = ExportCSV
	}
	params := rewardsParams(storeID, q)
	params["format"] = format

	data, contentType, err := s.api.GetRaw(ctx, "/rewards/admin/rewards/export", params)
	if err != nil {
		return nil, "", s.fail("export rewards", err)
	}
	return data, contentType, nil
}

func rewardPath(id string) string {
	return "/rewards/admin/rewards/" + url.PathEscape(id)
}

func withListDefaults(q models.RewardsQuery) models.RewardsQuery {
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
	return q
}

func rewardsParams(storeID string, q models.RewardsQuery) gateway.Params {
	return gateway.Params{
		"storeId":    storeID,
		"categoryId": q.CategoryID,
		"isActive":   boolParam(q.IsActive),
		"query":      q.Query,
		"page":       intParam(q.Page),
		"limit":      intParam(q.Limit),
		"sortBy":     q.SortBy,
		"sortOrder":  q.SortOrder,
	}
}
