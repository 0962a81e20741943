package dashboard

import (
	"context"
	"fmt"
	"time"

	"rewards-dashboard/models"
	"rewards-dashboard/querycache"

	"github.com/sirupsen/logrus"
)

// Cached read operations. Each key is (op, store id, params).
const (
	OpStoreRewards     = "storeRewards"
	OpStoreReward      = "storeReward"
	OpRewardAnalytics  = "rewardAnalytics"
	OpRewardRequests   = "storeRewardRequests"
	OpRewardDetails    = "rewardDetails"
	OpSearchRewards    = "searchRewards"
	OpRewardsPaginated = "rewardsPaginated"
	OpDashboardStats   = "storeDashboardStats"
	OpStatusCounts     = "rewardStatusCounts"
	OpCategories       = "storeCategories"
)

// Mutations known to the invalidation graph.
const (
	MutRewardCreate      = "rewardCreate"
	MutRewardUpdate      = "rewardUpdate"
	MutRewardToggle      = "rewardToggle"
	MutRewardDelete      = "rewardDelete"
	MutRewardBulkUpdate  = "rewardBulkUpdate"
	MutRewardBulkDelete  = "rewardBulkDelete"
	MutRequestStatus     = "requestStatus"
	MutRequestBulkStatus = "requestBulkStatus"
	MutRefreshCache      = "refreshCache"
)

var catalogDependents = []string{OpStoreRewards, OpRewardsPaginated, OpDashboardStats}

var requestDependents = []string{OpRewardRequests, OpDashboardStats, OpStatusCounts, OpSearchRewards}

// Invalidations lists, per mutation, the reads it makes outdated within the
// same store.
var Invalidations = querycache.Graph{
	MutRewardCreate:      append(catalogDependents, OpCategories),
	MutRewardUpdate:      catalogDependents,
	MutRewardToggle:      catalogDependents,
	MutRewardDelete:      append(catalogDependents, OpRewardAnalytics),
	MutRewardBulkUpdate:  catalogDependents,
	MutRewardBulkDelete:  append(catalogDependents, OpRewardAnalytics),
	MutRequestStatus:     requestDependents,
	MutRequestBulkStatus: requestDependents,
	MutRefreshCache: {
		OpStoreRewards, OpStoreReward, OpRewardAnalytics, OpRewardRequests, OpRewardDetails,
		OpSearchRewards, OpRewardsPaginated, OpDashboardStats, OpStatusCounts, OpCategories,
	},
}

// Stale windows.
var (
	listOptions       = querycache.Options{}
	statsOptions      = querycache.Options{StaleTime: 2 * time.Minute}
	countsOptions     = querycache.Options{StaleTime: 2 * time.Minute}
	requestsOptions   = querycache.Options{StaleTime: 5 * time.Minute, RefetchOnFocus: true}
	categoriesOptions = querycache.Options{StaleTime: 10 * time.Minute}
	detailsOptions    = querycache.Options{StaleTime: 10 * time.Minute}
)

// RewardCatalog is the reward management backend.
type RewardCatalog interface {
	ListRewards(ctx context.Context, storeID string, q models.RewardsQuery) (*models.RewardsPage, error)
	GetReward(ctx context.Context, id, storeID string) (*models.Reward, error)
	CreateReward(ctx context.Context, dto models.CreateRewardDto) (*models.Reward, error)
	UpdateReward(ctx context.Context, id, storeID string, dto models.UpdateRewardDto) (*models.Reward, error)
	DeleteReward(ctx context.Context, id, storeID string) error
	ToggleStatus(ctx context.Context, id, storeID string, isActive bool) (*models.Reward, error)
	BulkUpdate(ctx context.Context, storeID string, dto models.BulkUpdateRewardsDto) ([]models.Reward, error)
	BulkDelete(ctx context.Context, storeID string, dto models.BulkDeleteRewardsDto) error
	Analytics(ctx context.Context, id, storeID, timeRange string) (*models.RewardAnalytics, error)
	Export(ctx context.Context, storeID, format string, q models.RewardsQuery) ([]byte, string, error)
}

// RequestBackend is the reward request, dashboard and category backend.
type RequestBackend interface {
	FetchRequests(ctx context.Context, storeID string, status models.RewardStatus) ([]models.RewardRequest, error)
	UpdateStatus(ctx context.Context, id string, status models.RewardStatus) (*models.RewardRequest, error)
	BulkUpdateStatus(ctx context.Context, dto models.BulkUpdateRequestStatusDto) ([]models.RewardRequest, error)
	FetchDetails(ctx context.Context, id string) (*models.RewardRequest, error)
	Search(ctx context.Context, storeID string, q models.RequestSearchQuery) (*models.RewardRequestsPage, error)
	Paginated(ctx context.Context, storeID string, q models.RequestSearchQuery) (*models.RewardRequestsPage, error)
	DashboardStats(ctx context.Context, storeID string) (*models.DashboardStats, error)
	StatusCounts(ctx context.Context, storeID string) (*models.StatusCounts, error)
	RefreshCache(ctx context.Context, storeID string) error
	Categories(ctx context.Context) ([]models.RewardCategory, error)
}

// Queries wraps every adapter call in a cached read or a mutation that
// updates and invalidates the cache on success. Failed mutations leave the
// cache untouched, except the optimistic variant which always reconciles.
type Queries struct {
	cache    *querycache.Cache
	rewards  RewardCatalog
	requests RequestBackend
	log      *logrus.Entry
}

func NewQueries(cache *querycache.Cache, rewards RewardCatalog, requests RequestBackend, log *logrus.Entry) *Queries {
	return &Queries{cache: cache, rewards: rewards, requests: requests, log: log}
}

// Cache exposes the underlying cache.
func (q *Queries) Cache() *querycache.Cache { return q.cache }

func rewardKey(storeID, id string) querycache.Key {
	return querycache.NewKey(OpStoreReward, storeID, id)
}

func detailsKey(storeID, id string) querycache.Key {
	return querycache.NewKey(OpRewardDetails, storeID, id)
}

func (q *Queries) settle(mutation, storeID string) {
	n := Invalidations.Invalidate(q.cache, mutation, storeID)
	q.log.WithFields(logrus.Fields{
		"mutation": mutation,
		"store_id": storeID,
		"entries":  n,
	}).Debug("mutation settled")
}

// ---- Catalog reads ----

func (q *Queries) StoreRewards(ctx context.Context, storeID string, rq models.RewardsQuery) (*models.RewardsPage, error) {
	key := querycache.NewKey(OpStoreRewards, storeID, rq)
	return querycache.Query(ctx, q.cache, key, listOptions, func(ctx context.Context) (*models.RewardsPage, error) {
		return q.rewards.ListRewards(ctx, storeID, rq)
	})
}

func (q *Queries) StoreReward(ctx context.Context, storeID, id string) (*models.Reward, error) {
	return querycache.Query(ctx, q.cache, rewardKey(storeID, id), listOptions, func(ctx context.Context) (*models.Reward, error) {
		return q.rewards.GetReward(ctx, id, storeID)
	})
}

func (q *Queries) RewardAnalytics(ctx context.Context, storeID, id, timeRange string) (*models.RewardAnalytics, error) {
	key := querycache.NewKey(OpRewardAnalytics, storeID, []string{id, timeRange})
	return querycache.Query(ctx, q.cache, key, listOptions, func(ctx context.Context) (*models.RewardAnalytics, error) {
		return q.rewards.Analytics(ctx, id, storeID, timeRange)
	})
}

// ---- Catalog mutations ----

func (q *Queries) CreateReward(ctx context.Context, dto models.CreateRewardDto) (*models.Reward, error) {
	reward, err := q.rewards.CreateReward(ctx, dto)
	if err != nil {
		return nil, err
	}
	storeID := reward.StoreID
	if storeID == "" {
		storeID = dto.StoreID
	}
	q.cache.Set(rewardKey(storeID, reward.ID), reward)
	q.settle(MutRewardCreate, storeID)
	return reward, nil
}

func (q *Queries) UpdateReward(ctx context.Context, storeID, id string, dto models.UpdateRewardDto) (*models.Reward, error) {
	reward, err := q.rewards.UpdateReward(ctx, id, storeID, dto)
	if err != nil {
		return nil, err
	}
	q.storeRewards(storeID, *reward)
	q.settle(MutRewardUpdate, storeID)
	return reward, nil
}

func (q *Queries) ToggleReward(ctx context.Context, storeID, id string, isActive bool) (*models.Reward, error) {
	reward, err := q.rewards.ToggleStatus(ctx, id, storeID, isActive)
	if err != nil {
		return nil, err
	}
	q.storeRewards(storeID, *reward)
	q.settle(MutRewardToggle, storeID)
	return reward, nil
}

func (q *Queries) DeleteReward(ctx context.Context, storeID, id string) error {
	if err := q.rewards.DeleteReward(ctx, id, storeID); err != nil {
		return err
	}
	q.forgetRewards(storeID, id)
	q.settle(MutRewardDelete, storeID)
	return nil
}

func (q *Queries) BulkUpdateRewards(ctx context.Context, storeID string, dto models.BulkUpdateRewardsDto) ([]models.Reward, error) {
	rewards, err := q.rewards.BulkUpdate(ctx, storeID, dto)
	if err != nil {
		return nil, err
	}
	q.storeRewards(storeID, rewards...)
	q.settle(MutRewardBulkUpdate, storeID)
	return rewards, nil
}

func (q *Queries) BulkDeleteRewards(ctx context.Context, storeID string, ids []string) error {
	if err := q.rewards.BulkDelete(ctx, storeID, models.BulkDeleteRewardsDto{IDs: ids}); err != nil {
		return err
	}
	q.forgetRewards(storeID, ids...)
	q.settle(MutRewardBulkDelete, storeID)
	return nil
}

func (q *Queries) ExportRewards(ctx context.Context, storeID, format string, rq models.RewardsQuery) ([]byte, string, error) {
	return q.rewards.Export(ctx, storeID, format, rq)
}

// storeRewards writes returned rewards into their single-entity slots and
// into any cached page that lists them.
func (q *Queries) storeRewards(storeID string, rewards ...models.Reward) {
	if len(rewards) == 0 {
		return
	}
	byID := make(map[string]models.Reward, len(rewards))
	for _, r := range rewards {
		q.cache.Set(rewardKey(storeID, r.ID), &r)
		byID[r.ID] = r
	}
	q.cache.Update(querycache.Match{Op: OpStoreRewards, Store: storeID}, func(_ querycache.Key, old any) (any, bool) {
		page, ok := old.(*models.RewardsPage)
		if !ok || page == nil {
			return old, false
		}
		changed := false
		data := make([]models.Reward, len(page.Data))
		for i, r := range page.Data {
			if next, ok := byID[r.ID]; ok {
				data[i] = next
				changed = true
			} else {
				data[i] = r
			}
		}
		if !changed {
			return old, false
		}
		return &models.RewardsPage{Data: data, Pagination: page.Pagination}, true
	})
}

// forgetRewards drops deleted rewards from their slots and cached pages.
func (q *Queries) forgetRewards(storeID string, ids ...string) {
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
		q.cache.Remove(querycache.Exact(rewardKey(storeID, id)))
	}
	q.cache.Update(querycache.Match{Op: OpStoreRewards, Store: storeID}, func(_ querycache.Key, old any) (any, bool) {
		page, ok := old.(*models.RewardsPage)
		if !ok || page == nil {
			return old, false
		}
		data := make([]models.Reward, 0, len(page.Data))
		for _, r := range page.Data {
			if !gone[r.ID] {
				data = append(data, r)
			}
		}
		if len(data) == len(page.Data) {
			return old, false
		}
		pagination := page.Pagination
		pagination.Total -= len(page.Data) - len(data)
		if pagination.Total < 0 {
			pagination.Total = 0
		}
		return &models.RewardsPage{Data: data, Pagination: pagination}, true
	})
}

// ---- Request reads ----

func (q *Queries) RewardRequests(ctx context.Context, storeID string, status models.RewardStatus) ([]models.RewardRequest, error) {
	key := querycache.NewKey(OpRewardRequests, storeID, string(status))
	return querycache.Query(ctx, q.cache, key, requestsOptions, func(ctx context.Context) ([]models.RewardRequest, error) {
		return q.requests.FetchRequests(ctx, storeID, status)
	})
}

func (q *Queries) RequestDetails(ctx context.Context, storeID, id string) (*models.RewardRequest, error) {
	return querycache.Query(ctx, q.cache, detailsKey(storeID, id), detailsOptions, func(ctx context.Context) (*models.RewardRequest, error) {
		return q.requests.FetchDetails(ctx, id)
	})
}

func (q *Queries) SearchRequests(ctx context.Context, storeID string, sq models.RequestSearchQuery) (*models.RewardRequestsPage, error) {
	key := querycache.NewKey(OpSearchRewards, storeID, sq)
	return querycache.Query(ctx, q.cache, key, listOptions, func(ctx context.Context) (*models.RewardRequestsPage, error) {
		return q.requests.Search(ctx, storeID, sq)
	})
}

func (q *Queries) PaginatedRequests(ctx context.Context, storeID string, sq models.RequestSearchQuery) (*models.RewardRequestsPage, error) {
	key := querycache.NewKey(OpRewardsPaginated, storeID, sq)
	return querycache.Query(ctx, q.cache, key, listOptions, func(ctx context.Context) (*models.RewardRequestsPage, error) {
		return q.requests.Paginated(ctx, storeID, sq)
	})
}

func (q *Queries) DashboardStats(ctx context.Context, storeID string) (*models.DashboardStats, error) {
	key := querycache.NewKey(OpDashboardStats, storeID, nil)
	return querycache.Query(ctx, q.cache, key, statsOptions, func(ctx context.Context) (*models.DashboardStats, error) {
		return q.requests.DashboardStats(ctx, storeID)
	})
}

func (q *Queries) StatusCounts(ctx context.Context, storeID string) (*models.StatusCounts, error) {
	key := querycache.NewKey(OpStatusCounts, storeID, nil)
	return querycache.Query(ctx, q.cache, key, countsOptions, func(ctx context.Context) (*models.StatusCounts, error) {
		return q.requests.StatusCounts(ctx, storeID)
	})
}

func (q *Queries) Categories(ctx context.Context, storeID string) ([]models.RewardCategory, error) {
	key := querycache.NewKey(OpCategories, storeID, nil)
	return querycache.Query(ctx, q.cache, key, categoriesOptions, func(ctx context.Context) ([]models.RewardCategory, error) {
		return q.requests.Categories(ctx)
	})
}

// ---- Request mutations ----

// knownStatus looks for the request in cached details and lists.
func (q *Queries) knownStatus(storeID, id string) (models.RewardStatus, bool) {
	if req, ok := querycache.Peek[*models.RewardRequest](q.cache, detailsKey(storeID, id)); ok && req != nil {
		return req.NormalizedStatus(), true
	}
	for _, key := range q.cache.Keys(querycache.Match{Op: OpRewardRequests, Store: storeID}) {
		list, _ := querycache.Peek[[]models.RewardRequest](q.cache, key)
		for _, req := range list {
			if req.ID == id {
				return req.NormalizedStatus(), true
			}
		}
	}
	return "", false
}

// checkTransition rejects transitions the client already knows are invalid.
// The backend remains the authority when the current status is unknown.
func (q *Queries) checkTransition(storeID, id string, target models.RewardStatus) error {
	if !target.IsTerminal() {
		return invalid("status", "a request can only be fulfilled or cancelled")
	}
	if current, ok := q.knownStatus(storeID, id); ok && !current.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s is %s", ErrTerminalStatus, id, current)
	}
	return nil
}

func (q *Queries) UpdateRequestStatus(ctx context.Context, storeID, id string, status models.RewardStatus) (*models.RewardRequest, error) {
	if err := q.checkTransition(storeID, id, status); err != nil {
		return nil, err
	}
	updated, err := q.requests.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	q.storeRequest(storeID, updated)
	q.settle(MutRequestStatus, storeID)
	return updated, nil
}

// UpdateRequestStatusOptimistic shows the new status in every cached list
// before the backend answers. On failure the snapshot is restored, and in
// every case the lists are invalidated so the next read shows server truth.
func (q *Queries) UpdateRequestStatusOptimistic(ctx context.Context, storeID, id string, status models.RewardStatus) (*models.RewardRequest, error) {
	if err := q.checkTransition(storeID, id, status); err != nil {
		return nil, err
	}

	lists := querycache.Match{Op: OpRewardRequests, Store: storeID}
	snapshot := q.cache.Snapshot(lists)
	q.cache.Update(lists, func(_ querycache.Key, old any) (any, bool) {
		return withRequestStatus(old, id, status)
	})

	updated, err := q.requests.UpdateStatus(ctx, id, status)
	if err != nil {
		q.cache.Restore(snapshot)
		q.cache.Invalidate(lists)
		q.log.WithError(err).WithField("request_id", id).Warn("optimistic status update rolled back")
		return nil, err
	}

	q.cache.Invalidate(lists)
	q.cache.Set(detailsKey(storeID, id), updated)
	q.settle(MutRequestStatus, storeID)
	return updated, nil
}

func (q *Queries) BulkUpdateRequestStatus(ctx context.Context, storeID string, ids []string, status models.RewardStatus) ([]models.RewardRequest, error) {
	if !status.IsTerminal() {
		return nil, invalid("status", "a request can only be fulfilled or cancelled")
	}
	updated, err := q.requests.BulkUpdateStatus(ctx, models.BulkUpdateRequestStatusDto{
		IDs:     ids,
		Status:  status,
		StoreID: storeID,
	})
	if err != nil {
		return nil, err
	}
	for i := range updated {
		q.storeRequest(storeID, &updated[i])
	}
	for _, id := range ids {
		q.cache.Invalidate(querycache.Exact(detailsKey(storeID, id)))
	}
	q.settle(MutRequestBulkStatus, storeID)
	return updated, nil
}

func (q *Queries) RefreshStoreCache(ctx context.Context, storeID string) error {
	if err := q.requests.RefreshCache(ctx, storeID); err != nil {
		return err
	}
	q.settle(MutRefreshCache, storeID)
	return nil
}

// Focus invalidates reads that refetch when the dashboard regains focus.
func (q *Queries) Focus() int {
	return q.cache.Focus()
}

// storeRequest writes a returned request into its details slot and into the
// cached lists that contain it.
func (q *Queries) storeRequest(storeID string, req *models.RewardRequest) {
	if req == nil || req.ID == "" {
		return
	}
	q.cache.Set(detailsKey(storeID, req.ID), req)
	q.cache.Update(querycache.Match{Op: OpRewardRequests, Store: storeID}, func(_ querycache.Key, old any) (any, bool) {
		list, ok := old.([]models.RewardRequest)
		if !ok {
			return old, false
		}
		for i := range list {
			if list[i].ID == req.ID {
				next := append([]models.RewardRequest(nil), list...)
				next[i] = *req
				return next, true
			}
		}
		return old, false
	})
}

func withRequestStatus(old any, id string, status models.RewardStatus) (any, bool) {
	list, ok := old.([]models.RewardRequest)
	if !ok {
		return old, false
	}
	for i := range list {
		if list[i].ID == id {
			next := append([]models.RewardRequest(nil), list...)
			next[i].Status = status
			return next, true
		}
	}
	return old, false
}

func matchOp(op, storeID string) querycache.Match {
	return querycache.Match{Op: op, Store: storeID}
}
