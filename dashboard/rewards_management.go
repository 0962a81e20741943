package dashboard

import (
	"context"
	"math"
	"strings"

	"rewards-dashboard/models"
)

const requiredFieldsMessage = "Please fill in all required fields"

// PageStats is computed over the rewards on the current page only.
type PageStats struct {
	Total            int `json:"total"`
	Active           int `json:"active"`
	TotalRedemptions int `json:"totalRedemptions"`
	AvgPointsCost    int `json:"averagePointsCost"`
}

// ComputePageStats summarises one page of rewards.
func ComputePageStats(rewards []models.Reward) PageStats {
	stats := PageStats{Total: len(rewards)}
	if len(rewards) == 0 {
		return stats
	}
	points := 0
	for _, r := range rewards {
		if r.IsActive {
			stats.Active++
		}
		stats.TotalRedemptions += r.CurrentRedemptions
		points += r.PointsCost
	}
	stats.AvgPointsCost = int(math.Round(float64(points) / float64(len(rewards))))
	return stats
}

// RewardsView is what the catalog page renders.
type RewardsView struct {
	Rewards    []models.Reward   `json:"rewards"`
	Pagination models.Pagination `json:"pagination"`
	Filters    Filters           `json:"filters"`
	Stats      PageStats         `json:"stats"`
}

// RewardForm is the create form.
type RewardForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PointsCost  int    `json:"pointsCost"`
	CategoryID  string `json:"categoryId"`
	IsActive    *bool  `json:"isActive"`
	ExpiryDate  string `json:"expiryDate"`
}

func (f RewardForm) validate() error {
	if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Description) == "" || f.PointsCost == 0 {
		return invalid("form", requiredFieldsMessage)
	}
	if f.PointsCost < 0 {
		return invalid("pointsCost", "must be positive")
	}
	return nil
}

func validateUpdate(dto models.UpdateRewardDto) error {
	if dto.Title != nil && strings.TrimSpace(*dto.Title) == "" {
		return invalid("title", requiredFieldsMessage)
	}
	if dto.Description != nil && strings.TrimSpace(*dto.Description) == "" {
		return invalid("description", requiredFieldsMessage)
	}
	if dto.PointsCost != nil && *dto.PointsCost <= 0 {
		return invalid("pointsCost", "must be positive")
	}
	return nil
}

// RewardsManager drives the reward catalog page for the signed-in store.
type RewardsManager struct {
	queries *Queries
	session StoreSession
	filters *FilterState
}

func NewRewardsManager(queries *Queries, session StoreSession, initial Filters) *RewardsManager {
	return &RewardsManager{queries: queries, session: session, filters: NewFilterState(initial)}
}

func (m *RewardsManager) Filters() *FilterState { return m.filters }

func (m *RewardsManager) List(ctx context.Context) (*RewardsView, error) {
	storeID, err := currentStore(m.session)
	if err != nil {
		return nil, err
	}
	filters := m.filters.Get()
	page, err := m.queries.StoreRewards(ctx, storeID, filters.RewardsQuery())
	if page == nil {
		return nil, err
	}
	// A failed refresh still renders the last good page alongside the error.
	return &RewardsView{
		Rewards:    page.Data,
		Pagination: page.Pagination,
		Filters:    filters,
		Stats:      ComputePageStats(page.Data),
	}, err
}

func (m *RewardsManager) Get(ctx context.Context, id string) (*models.Reward, error) {
	storeID, err := currentStore(m.session)
	if err != nil {
		return nil, err
	}
	return m.queries.StoreReward(ctx, storeID, id)
}

func (m *RewardsManager) Create(ctx context.Context, form RewardForm) (*models.Reward, error) {
	storeID, err := currentStore(m.session)
	if err != nil {
		return nil, err
	}
	if err := form.validate(); err != nil {
		return nil, err
	}
	isActive := form.IsActive
	if isActive == nil {
		active := true
		isActive = &active
	}
	return m.queries.CreateReward(ctx, models.CreateRewardDto{
		Title:       strings.TrimSpace(form.Title),
		Description: strings.TrimSpace(form.Description),
		PointsCost:  form.PointsCost,
		CategoryID:  form.CategoryID,
		IsActive:    isActive,
		ExpiryDate:  form.ExpiryDate,
		StoreID:     storeID,
	})
}

func (m *RewardsManager) Update(ctx context.Context, id string, dto models.UpdateRewardDto) (*models.Reward, error) {
	storeID, err := currentStore(m.session)
	if err != nil {
		return nil, err
	}
	if err := validateUpdate(dto); err != nil {
		return nil, err
	}
	return m.queries.UpdateReward(ctx, storeID, id, dto)
}

func (m *RewardsManager) Delete(ctx context.Context, id string) error {
	storeID, err := currentStore(m.session)
	if err != nil {
		return err
	}
	return m.queries.DeleteReward(ctx, storeID, id)
}

func (m *RewardsManager) ToggleStatus(ctx context.Context, id string, isActive bool) (*models.Reward, error) {
	storeID, err := currentStore(m.session)
	if err != nil {
		return nil, err
	}
	return m.queries.ToggleReward(ctx, storeID, id, isActive)
}

// Toggle flips the reward's active flag based on its current value.
func (m *RewardsManager) Toggle(ctx context.Context, id string) (*models.Reward, error) {
	current, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.ToggleStatus(ctx, id, !current.IsActive)
}

func (m *RewardsManager) BulkUpdate(ctx context.Context, ids []string, data models.UpdateRewardDto) ([]models.Reward, error) {
	storeID, err := currentStore(m.session)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoSelection
	}
	if err := validateUpdate(data); err != nil {
		return nil, err
	}
	return m.queries.BulkUpdateRewards(ctx, storeID, models.BulkUpdateRewardsDto{IDs: ids, Data: data})
}

func (m *RewardsManager) BulkActivate(ctx context.Context, ids []string) ([]models.Reward, error) {
	active := true
	return m.BulkUpdate(ctx, ids, models.UpdateRewardDto{IsActive: &active})
}

func (m *RewardsManager) BulkDeactivate(ctx context.Context, ids []string) ([]models.Reward, error) {
	active := false
	return m.BulkUpdate(ctx, ids, models.UpdateRewardDto{IsActive: &active})
}

func (m *RewardsManager) BulkDelete(ctx context.Context, ids []string) error {
	storeID, err := currentStore(m.session)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrNoSelection
	}
	return m.queries.BulkDeleteRewards(ctx, storeID, ids)
}

func (m *RewardsManager) Analytics(ctx context.Context, id, timeRange string) (*models.RewardAnalytics, error) {
	storeID, err := currentStore(m.session)
	if err != nil {
		return nil, err
	}
	if timeRange == "" {
		timeRange = "30d"
	}
	return m.queries.RewardAnalytics(ctx, storeID, id, timeRange)
}

// Export returns the catalog under the current filters in the given format.
func (m *RewardsManager) Export(ctx context.Context, format string) ([]byte, string, error) {
	storeID, err := currentStore(m.session)
	if err != nil {
		return nil, "", err
	}
	switch format {
	case "csv", "xlsx", "json":
	case "":
		format = "csv"
	default:
		return nil, "", invalid("format", "must be csv, xlsx or json")
	}
	return m.queries.ExportRewards(ctx, storeID, format, m.filters.Get().RewardsQuery())
}
