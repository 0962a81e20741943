package models

// DashboardStats is served by the dedicated dashboard-stats endpoint
type DashboardStats struct {
	ActiveRewards      int     `json:"activeRewards"`
	RedemptionRate     float64 `json:"redemptionRate"`
	MonthlyRedemptions int     `json:"monthlyRedemptions"`
	TotalRequests      int     `json:"totalRequests"`
	ApprovedRequests   int     `json:"approvedRequests"`
	PendingRequests    int     `json:"pendingRequests"`
	RejectedRequests   int     `json:"rejectedRequests"`
}

// StatusCounts is the number of reward requests per status
type StatusCounts struct {
	Pending   int `json:"PENDING"`
	Fulfilled int `json:"FULFILLED"`
	Cancelled int `json:"CANCELLED"`
}
