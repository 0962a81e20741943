package models

// RewardCategory is read-only reference data scoped to a store
type RewardCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StoreID     string `json:"storeId,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
	Count       *struct {
		Rewards int `json:"rewards"`
	} `json:"_count,omitempty"`
}

// Reward is a catalog entry owned by a store. CurrentRedemptions is
// incremented by the backend only.
type Reward struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	PointsCost         int             `json:"pointsCost"`
	CategoryID         string          `json:"categoryId,omitempty"`
	Category           *RewardCategory `json:"category,omitempty"`
	IsActive           bool            `json:"isActive"`
	ExpiryDate         string          `json:"expiryDate,omitempty"`
	CurrentRedemptions int             `json:"currentRedemptions"`
	StoreID            string          `json:"storeId"`
	CreatedAt          string          `json:"createdAt"`
	UpdatedAt          string          `json:"updatedAt"`
}

// CreateRewardDto is the request body for creating a reward
type CreateRewardDto struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PointsCost  int    `json:"pointsCost"`
	CategoryID  string `json:"categoryId,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
	ExpiryDate  string `json:"expiryDate,omitempty"`
	StoreID     string `json:"storeId"`
}

// UpdateRewardDto carries a partial update; nil fields are left untouched
type UpdateRewardDto struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	PointsCost  *int    `json:"pointsCost,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
	ExpiryDate  *string `json:"expiryDate,omitempty"`
}

type ToggleRewardStatusDto struct {
	IsActive bool `json:"isActive"`
}

type BulkUpdateRewardsDto struct {
	IDs  []string        `json:"ids"`
	Data UpdateRewardDto `json:"data"`
}

type BulkDeleteRewardsDto struct {
	IDs []string `json:"ids"`
}

// RewardsQuery holds the list filters understood by the rewards endpoints
type RewardsQuery struct {
	CategoryID string `json:"categoryId,omitempty"`
	IsActive   *bool  `json:"isActive,omitempty"`
	Query      string `json:"query,omitempty"`
	Page       int    `json:"page,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	SortBy     string `json:"sortBy,omitempty"`
	SortOrder  string `json:"sortOrder,omitempty"`
}

// RewardsPage is one page of the store's catalog
type RewardsPage struct {
	Data       []Reward   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// RewardAnalytics is the per-reward analytics payload
type RewardAnalytics struct {
	TotalRedemptions  int     `json:"totalRedemptions"`
	UniqueUsers       int     `json:"uniqueUsers"`
	TotalPointsSpent  int     `json:"totalPointsSpent"`
	ConversionRate    float64 `json:"conversionRate"`
	AvgRedemptionTime float64 `json:"avgRedemptionTime"`
	RedemptionTrend   []struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	} `json:"redemptionTrend"`
	TopUsers []struct {
		UserID          string `json:"userId"`
		UserName        string `json:"userName"`
		RedemptionCount int    `json:"redemptionCount"`
	} `json:"topUsers"`
}

// Apply returns a copy of r with the non-nil fields of dto applied
func (r Reward) Apply(dto UpdateRewardDto) Reward {
	if dto.Title != nil {
		r.Title = *dto.Title
	}
	if dto.Description != nil {
		r.Description = *dto.Description
	}
	if dto.PointsCost != nil {
		r.PointsCost = *dto.PointsCost
	}
	if dto.CategoryID != nil {
		r.CategoryID = *dto.CategoryID
	}
	if dto.IsActive != nil {
		r.IsActive = *dto.IsActive
	}
	if dto.ExpiryDate != nil {
		r.ExpiryDate = *dto.ExpiryDate
	}
	return r
}
