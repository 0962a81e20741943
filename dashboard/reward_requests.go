package dashboard

import (
	"context"
	"strings"

	"rewards-dashboard/models"
)

// RequestsView is the request queue after client-side filtering. Counts are
// taken over the filtered requests, not the whole store.
type RequestsView struct {
	Requests []models.RewardRequest `json:"requests"`
	Counts   models.StatusCounts    `json:"counts"`
	Total    int                    `json:"total"`
	Fetched  int                    `json:"fetched"`
	Filters  Filters                `json:"filters"`
}

// FilterRequests keeps requests whose reward title, reward description or
// user name contains query (ignoring case) and whose reward belongs to
// categoryID. Empty arguments do not filter.
func FilterRequests(requests []models.RewardRequest, query, categoryID string) []models.RewardRequest {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.RewardRequest, 0, len(requests))
	for _, r := range requests {
		if query != "" &&
			!strings.Contains(strings.ToLower(r.Reward.Title), query) &&
			!strings.Contains(strings.ToLower(r.Reward.Description), query) &&
			!strings.Contains(strings.ToLower(r.User.Name), query) {
			continue
		}
		if categoryID != "" && requestCategory(r) != categoryID {
			continue
		}
		out = append(out, r)
	}
	return out
}

func requestCategory(r models.RewardRequest) string {
	if r.Reward.CategoryID != "" {
		return r.Reward.CategoryID
	}
	if r.Reward.Category != nil {
		return r.Reward.Category.ID
	}
	return ""
}

// CountByStatus tallies requests per normalized status.
func CountByStatus(requests []models.RewardRequest) models.StatusCounts {
	var counts models.StatusCounts
	for _, r := range requests {
		switch r.NormalizedStatus() {
		case models.RewardStatusPending:
			counts.Pending++
		case models.RewardStatusFulfilled:
			counts.Fulfilled++
		case models.RewardStatusCancelled:
			counts.Cancelled++
		}
	}
	return counts
}

// RequestsQueue drives the reward request queue for the signed-in store.
type RequestsQueue struct {
	queries *Queries
	session StoreSession
	filters *FilterState
}

func NewRequestsQueue(queries *Queries, session StoreSession, initial Filters) *RequestsQueue {
	return &RequestsQueue{queries: queries, session: session, filters: NewFilterState(initial)}
}

func (q *RequestsQueue) Filters() *FilterState { return q.filters }

// List fetches the store's requests for the status filter and applies the
// text and category filters locally.
func (q *RequestsQueue) List(ctx context.Context) (*RequestsView, error) {
	storeID, err := currentStore(q.session)
	if err != nil {
		return nil, err
	}
	filters := q.filters.Get()
	all, err := q.queries.RewardRequests(ctx, storeID, filters.Status)
	if all == nil && err != nil {
		return nil, err
	}
	filtered := FilterRequests(all, filters.Query, filters.CategoryID)
	return &RequestsView{
		Requests: filtered,
		Counts:   CountByStatus(filtered),
		Total:    len(filtered),
		Fetched:  len(all),
		Filters:  filters,
	}, err
}

func (q *RequestsQueue) Details(ctx context.Context, id string) (*models.RewardRequest, error) {
	storeID, err := currentStore(q.session)
	if err != nil {
		return nil, err
	}
	return q.queries.RequestDetails(ctx, storeID, id)
}

// UpdateStatus moves a pending request to a final status once the backend
// confirms it.
func (q *RequestsQueue) UpdateStatus(ctx context.Context, id string, status models.RewardStatus) (*models.RewardRequest, error) {
	storeID, err := q.target(id)
	if err != nil {
		return nil, err
	}
	return q.queries.UpdateRequestStatus(ctx, storeID, id, status)
}

// UpdateStatusOptimistic shows the new status in the cached lists before the
// backend answers and rolls it back if the call fails.
func (q *RequestsQueue) UpdateStatusOptimistic(ctx context.Context, id string, status models.RewardStatus) (*models.RewardRequest, error) {
	storeID, err := q.target(id)
	if err != nil {
		return nil, err
	}
	return q.queries.UpdateRequestStatusOptimistic(ctx, storeID, id, status)
}

func (q *RequestsQueue) target(id string) (string, error) {
	storeID, err := currentStore(q.session)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", invalid("id", "is required")
	}
	return storeID, nil
}

func (q *RequestsQueue) BulkUpdateStatus(ctx context.Context, ids []string, status models.RewardStatus) ([]models.RewardRequest, error) {
	storeID, err := currentStore(q.session)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoSelection
	}
	return q.queries.BulkUpdateRequestStatus(ctx, storeID, ids, status)
}

func (q *RequestsQueue) Search(ctx context.Context, sq models.RequestSearchQuery) (*models.RewardRequestsPage, error) {
	storeID, err := currentStore(q.session)
	if err != nil {
		return nil, err
	}
	return q.queries.SearchRequests(ctx, storeID, sq)
}

func (q *RequestsQueue) Paginated(ctx context.Context, sq models.RequestSearchQuery) (*models.RewardRequestsPage, error) {
	storeID, err := currentStore(q.session)
	if err != nil {
		return nil, err
	}
	return q.queries.PaginatedRequests(ctx, storeID, sq)
}

// RefreshCache asks the backend to rebuild the store's caches and drops
// every cached read of the store.
func (q *RequestsQueue) RefreshCache(ctx context.Context) error {
	storeID, err := currentStore(q.session)
	if err != nil {
		return err
	}
	return q.queries.RefreshStoreCache(ctx, storeID)
}
