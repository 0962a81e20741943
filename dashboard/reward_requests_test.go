package dashboard

import (
	"context"
	"net/http"
	"testing"
	"time"

	"rewards-dashboard/gateway"
	"rewards-dashboard/models"
	"rewards-dashboard/querycache"
	"rewards-dashboard/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusRoute = "PUT /rewards/admin/purchases/{id}/status"

func TestFilterRequests(t *testing.T) {
	t.Parallel()

	requests := []models.RewardRequest{
		{ID: "1", Reward: models.Reward{Title: "Free Coffee", CategoryID: "cat-drinks"}, User: models.RequestUser{Name: "Lina"}},
		{ID: "2", Reward: models.Reward{Title: "Cake", Description: "with coffee cream", Category: &models.RewardCategory{ID: "cat-food"}}},
		{ID: "3", Reward: models.Reward{Title: "Tea", CategoryID: "cat-drinks"}, User: models.RequestUser{Name: "Omar"}},
	}

	tests := []struct {
		name     string
		query    string
		category string
		want     []string
	}{
		{name: "no filters", want: []string{"1", "2", "3"}},
		{name: "title", query: "COFFEE", want: []string{"1", "2"}},
		{name: "user", query: "omar", want: []string{"3"}},
		{name: "category field", category: "cat-drinks", want: []string{"1", "3"}},
		{name: "nested category", category: "cat-food", want: []string{"2"}},
		{name: "both", query: "coffee", category: "cat-drinks", want: []string{"1"}},
		{name: "none", query: "pizza", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := FilterRequests(requests, tt.query, tt.category)
			gotIDs := make([]string, 0, len(got))
			for _, r := range got {
				gotIDs = append(gotIDs, r.ID)
			}
			assert.Equal(t, tt.want, gotIDs)
		})
	}
}

func TestCountByStatus(t *testing.T) {
	t.Parallel()

	got := CountByStatus([]models.RewardRequest{
		{Status: "PENDING"}, {Status: "pending"}, {Status: "FULFILLED"}, {Status: "CANCELLED"}, {Status: "weird"},
	})
	assert.Equal(t, models.StatusCounts{Pending: 2, Fulfilled: 1, Cancelled: 1}, got)
}

func TestRequestsStatusAndCategoryFilters(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	coffee := e.backend.AddReward(models.Reward{Title: "Free Coffee", CategoryID: "cat-drinks", PointsCost: 100})
	cake := e.backend.AddReward(models.Reward{Title: "Cake", CategoryID: "cat-food", PointsCost: 80})
	e.backend.AddRequest(models.RewardRequest{RewardID: coffee.ID})
	e.backend.AddRequest(models.RewardRequest{RewardID: coffee.ID})
	e.backend.AddRequest(models.RewardRequest{RewardID: coffee.ID, Status: models.RewardStatusFulfilled})
	e.backend.AddRequest(models.RewardRequest{RewardID: cake.ID})
	ctx := context.Background()

	filters := e.requests.Filters()
	_, err := filters.Update(FilterPatch{Page: ptr(3)})
	require.NoError(t, err)
	_, err = filters.Update(FilterPatch{Status: ptr("PENDING")})
	require.NoError(t, err)
	_, err = filters.Update(FilterPatch{Page: ptr(2)})
	require.NoError(t, err)
	got, err := filters.Update(FilterPatch{CategoryID: ptr("cat-drinks")})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Page)

	view, err := e.requests.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Fetched)
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, models.StatusCounts{Pending: 2}, view.Counts)
	for _, r := range view.Requests {
		assert.Equal(t, models.RewardStatusPending, r.NormalizedStatus())
		assert.Equal(t, "cat-drinks", r.Reward.CategoryID)
	}
}

func TestRequestListIsCachedForFiveMinutes(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	e.backend.AddRequest(models.RewardRequest{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := e.requests.List(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, e.backend.Calls("GET /rewards/admin/purchases"))

	assert.Equal(t, 1, e.stats.Focus())
	_, err := e.requests.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, e.backend.Calls("GET /rewards/admin/purchases"))
}

func TestStatusUpdateInvalidatesStoreStatsOnly(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	req := e.backend.AddRequest(models.RewardRequest{})
	ctx := context.Background()

	_, err := e.stats.Overview(ctx)
	require.NoError(t, err)
	_, err = e.requests.List(ctx)
	require.NoError(t, err)

	otherStats := querycache.NewKey(OpDashboardStats, "store-2", nil)
	otherCounts := querycache.NewKey(OpStatusCounts, "store-2", nil)
	e.cache.Set(otherStats, &models.DashboardStats{ActiveRewards: 9})
	e.cache.Set(otherCounts, &models.StatusCounts{Pending: 9})

	updated, err := e.requests.UpdateStatus(ctx, req.ID, models.RewardStatusFulfilled)
	require.NoError(t, err)
	assert.Equal(t, models.RewardStatusFulfilled, updated.Status)

	for _, key := range []querycache.Key{
		querycache.NewKey(OpDashboardStats, testutil.StoreID, nil),
		querycache.NewKey(OpStatusCounts, testutil.StoreID, nil),
	} {
		state, ok := e.cache.State(key)
		require.True(t, ok, key.String())
		assert.True(t, state.Invalidated, key.String())
	}
	for _, key := range []querycache.Key{otherStats, otherCounts} {
		state, ok := e.cache.State(key)
		require.True(t, ok, key.String())
		assert.False(t, state.Invalidated, key.String())
	}

	statsCalls := e.backend.Calls("GET /rewards/admin/stores/{id}/dashboard-stats")
	_, err = e.stats.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, statsCalls+1, e.backend.Calls("GET /rewards/admin/stores/{id}/dashboard-stats"))

	counts, err := e.stats.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCounts{Fulfilled: 1}, *counts)
}

func TestFinalStatusIsRejectedWithoutNetworkCall(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	done := e.backend.AddRequest(models.RewardRequest{Status: models.RewardStatusFulfilled})
	ctx := context.Background()

	_, err := e.requests.List(ctx)
	require.NoError(t, err)

	_, err = e.requests.UpdateStatus(ctx, done.ID, models.RewardStatusCancelled)
	require.ErrorIs(t, err, ErrTerminalStatus)
	_, err = e.requests.UpdateStatusOptimistic(ctx, done.ID, models.RewardStatusCancelled)
	require.ErrorIs(t, err, ErrTerminalStatus)
	_, err = e.requests.UpdateStatus(ctx, done.ID, models.RewardStatusPending)
	require.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 0, e.backend.Calls(statusRoute))
}

func TestUnknownRequestDefersToBackend(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	done := e.backend.AddRequest(models.RewardRequest{Status: models.RewardStatusCancelled})

	_, err := e.requests.UpdateStatus(context.Background(), done.ID, models.RewardStatusFulfilled)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, gateway.StatusCode(err))
	assert.Equal(t, 1, e.backend.Calls(statusRoute))
}

func TestOptimisticUpdateShowsSpeculativeStatus(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	req := e.backend.AddRequest(models.RewardRequest{})
	ctx := context.Background()

	_, err := e.requests.List(ctx)
	require.NoError(t, err)
	listKey := querycache.NewKey(OpRewardRequests, testutil.StoreID, "")

	release := e.backend.Hold(statusRoute)
	done := make(chan error, 1)
	go func() {
		_, err := e.requests.UpdateStatusOptimistic(ctx, req.ID, models.RewardStatusFulfilled)
		done <- err
	}()

	assert.Eventually(t, func() bool {
		list, _ := querycache.Peek[[]models.RewardRequest](e.cache, listKey)
		return statusOf(list, req.ID) == models.RewardStatusFulfilled
	}, 2*time.Second, 10*time.Millisecond)

	release()
	require.NoError(t, <-done)

	state, _ := e.cache.State(listKey)
	assert.True(t, state.Invalidated)

	view, err := e.requests.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RewardStatusFulfilled, statusOf(view.Requests, req.ID))

	details, err := e.requests.Details(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RewardStatusFulfilled, details.Status)
	assert.Equal(t, 0, e.backend.Calls("GET /rewards/admin/purchases/{id}"))
}

func TestOptimisticUpdateReconcilesWithServerOnFailure(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	req := e.backend.AddRequest(models.RewardRequest{})
	ctx := context.Background()

	_, err := e.requests.List(ctx)
	require.NoError(t, err)

	// Someone else cancels the request after our list was loaded.
	e.backend.SetRequestStatus(req.ID, models.RewardStatusCancelled)

	_, err = e.requests.UpdateStatusOptimistic(ctx, req.ID, models.RewardStatusFulfilled)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, gateway.StatusCode(err))

	listKey := querycache.NewKey(OpRewardRequests, testutil.StoreID, "")
	cached, _ := querycache.Peek[[]models.RewardRequest](e.cache, listKey)
	assert.Equal(t, models.RewardStatusPending, statusOf(cached, req.ID), "speculative value rolled back")
	state, _ := e.cache.State(listKey)
	assert.True(t, state.Invalidated)

	view, err := e.requests.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RewardStatusCancelled, statusOf(view.Requests, req.ID))
}

func TestBulkUpdateRequestStatus(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	r1 := e.backend.AddRequest(models.RewardRequest{})
	r2 := e.backend.AddRequest(models.RewardRequest{})
	r3 := e.backend.AddRequest(models.RewardRequest{})
	ctx := context.Background()

	_, err := e.requests.List(ctx)
	require.NoError(t, err)
	_, err = e.stats.StatusCounts(ctx)
	require.NoError(t, err)

	_, err = e.requests.BulkUpdateStatus(ctx, []string{r1.ID}, models.RewardStatusPending)
	require.ErrorIs(t, err, ErrValidation)

	updated, err := e.requests.BulkUpdateStatus(ctx, []string{r1.ID, r2.ID}, models.RewardStatusCancelled)
	require.NoError(t, err)
	assert.Len(t, updated, 2)

	countsState, _ := e.cache.State(querycache.NewKey(OpStatusCounts, testutil.StoreID, nil))
	assert.True(t, countsState.Invalidated)

	view, err := e.requests.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RewardStatusCancelled, statusOf(view.Requests, r1.ID))
	assert.Equal(t, models.RewardStatusCancelled, statusOf(view.Requests, r2.ID))
	assert.Equal(t, models.RewardStatusPending, statusOf(view.Requests, r3.ID))
	assert.Equal(t, models.StatusCounts{Pending: 1, Cancelled: 2}, view.Counts)
}

func TestSearchAndPaginatedRequests(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	coffee := e.backend.AddReward(models.Reward{Title: "Free Coffee", PointsCost: 100})
	for i := 0; i < 3; i++ {
		e.backend.AddRequest(models.RewardRequest{RewardID: coffee.ID})
	}
	ctx := context.Background()

	found, err := e.requests.Search(ctx, models.RequestSearchQuery{Query: "coffee", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, found.Data, 2)
	assert.Equal(t, 3, found.Pagination.Total)

	page, err := e.requests.Paginated(ctx, models.RequestSearchQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.True(t, page.Pagination.HasPrevPage)
}

func TestRefreshCacheInvalidatesStore(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	_, err := e.stats.Overview(ctx)
	require.NoError(t, err)

	require.NoError(t, e.requests.RefreshCache(ctx))
	assert.Equal(t, 1, e.backend.Calls("POST /rewards/admin/stores/{id}/refresh-cache"))

	for _, op := range []string{OpDashboardStats, OpStatusCounts, OpCategories} {
		for _, key := range e.cache.Keys(querycache.Match{Op: op, Store: testutil.StoreID}) {
			state, _ := e.cache.State(key)
			assert.True(t, state.Invalidated, key.String())
		}
	}
}
