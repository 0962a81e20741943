package dashboard

import (
	"context"
	"net/http"
	"testing"

	"rewards-dashboard/gateway"
	"rewards-dashboard/models"
	"rewards-dashboard/querycache"
	"rewards-dashboard/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePageStats(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PageStats{}, ComputePageStats(nil))

	got := ComputePageStats([]models.Reward{
		{IsActive: true, PointsCost: 100, CurrentRedemptions: 3},
		{IsActive: false, PointsCost: 50, CurrentRedemptions: 1},
		{IsActive: true, PointsCost: 25},
	})
	assert.Equal(t, PageStats{Total: 3, Active: 2, TotalRedemptions: 4, AvgPointsCost: 58}, got)
}

func TestCreateRewardAppearsInList(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	before, err := e.rewards.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, before.Rewards)

	created, err := e.rewards.Create(ctx, RewardForm{
		Title:       "Free Coffee",
		Description: "One free coffee",
		PointsCost:  100,
		CategoryID:  "cat-1",
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	listKey := querycache.NewKey(OpStoreRewards, testutil.StoreID, e.rewards.Filters().Get().RewardsQuery())
	state, ok := e.cache.State(listKey)
	require.True(t, ok)
	assert.True(t, state.Invalidated)

	after, err := e.rewards.List(ctx)
	require.NoError(t, err)
	require.Len(t, after.Rewards, 1)
	assert.Equal(t, "Free Coffee", after.Rewards[0].Title)
	assert.Equal(t, 0, after.Rewards[0].CurrentRedemptions)
	assert.Equal(t, 1, after.Stats.Active)

	slot, ok := querycache.Peek[*models.Reward](e.cache, rewardKey(testutil.StoreID, created.ID))
	require.True(t, ok)
	assert.Equal(t, "Free Coffee", slot.Title)
}

func TestCreateRewardValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)

	forms := []RewardForm{
		{Description: "d", PointsCost: 10},
		{Title: "t", PointsCost: 10},
		{Title: "t", Description: "d"},
		{Title: "t", Description: "d", PointsCost: -5},
	}
	for _, form := range forms {
		_, err := e.rewards.Create(context.Background(), form)
		require.ErrorIs(t, err, ErrValidation)
	}
	assert.Equal(t, 0, e.backend.TotalCalls())

	var verr *ValidationError
	_, err := e.rewards.Create(context.Background(), RewardForm{})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Please fill in all required fields", verr.Message)
}

func TestCreateRewardConflictLeavesCacheAlone(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	e.backend.AddReward(models.Reward{Title: "Free Coffee", Description: "d", PointsCost: 100, IsActive: true})
	ctx := context.Background()

	_, err := e.rewards.List(ctx)
	require.NoError(t, err)

	_, err = e.rewards.Create(ctx, RewardForm{Title: "Free Coffee", Description: "again", PointsCost: 5})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, gateway.StatusCode(err))

	listKey := querycache.NewKey(OpStoreRewards, testutil.StoreID, e.rewards.Filters().Get().RewardsQuery())
	state, _ := e.cache.State(listKey)
	assert.False(t, state.Invalidated)
}

func TestDeleteRewardForgetsIt(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	keep := e.backend.AddReward(models.Reward{Title: "Keep", PointsCost: 10, IsActive: true})
	gone := e.backend.AddReward(models.Reward{Title: "Gone", PointsCost: 20, IsActive: true})
	ctx := context.Background()

	_, err := e.rewards.Get(ctx, gone.ID)
	require.NoError(t, err)
	_, err = e.rewards.List(ctx)
	require.NoError(t, err)

	require.NoError(t, e.rewards.Delete(ctx, gone.ID))

	_, ok := querycache.Peek[*models.Reward](e.cache, rewardKey(testutil.StoreID, gone.ID))
	assert.False(t, ok)

	listKey := querycache.NewKey(OpStoreRewards, testutil.StoreID, e.rewards.Filters().Get().RewardsQuery())
	cached, ok := querycache.Peek[*models.RewardsPage](e.cache, listKey)
	require.True(t, ok)
	assert.Equal(t, []string{keep.ID}, ids(cached.Data))
	assert.Equal(t, 1, cached.Pagination.Total)

	_, err = e.rewards.Get(ctx, gone.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, gateway.StatusCode(err))

	view, err := e.rewards.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, ids(view.Rewards))
}

func TestBulkDeactivateRewards(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	r1 := e.backend.AddReward(models.Reward{Title: "A", PointsCost: 10, IsActive: true})
	r2 := e.backend.AddReward(models.Reward{Title: "B", PointsCost: 20, IsActive: true})
	r3 := e.backend.AddReward(models.Reward{Title: "C", PointsCost: 30, IsActive: false})
	e.backend.AddReward(models.Reward{Title: "D", PointsCost: 40, IsActive: true})
	ctx := context.Background()

	before, err := e.rewards.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, before.Stats.Active)

	selected := []string{r1.ID, r2.ID, r3.ID}
	updated, err := e.rewards.BulkDeactivate(ctx, selected)
	require.NoError(t, err)
	require.Len(t, updated, 3)

	listKey := querycache.NewKey(OpStoreRewards, testutil.StoreID, e.rewards.Filters().Get().RewardsQuery())
	cached, ok := querycache.Peek[*models.RewardsPage](e.cache, listKey)
	require.True(t, ok)
	for _, r := range cached.Data {
		if r.ID == r1.ID || r.ID == r2.ID || r.ID == r3.ID {
			assert.False(t, r.IsActive, r.ID)
		}
	}

	after, err := e.rewards.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Stats.Active)
	assert.LessOrEqual(t, before.Stats.Active-after.Stats.Active, 3)
}

func TestBulkActionsNeedSelection(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	_, err := e.rewards.BulkActivate(ctx, nil)
	require.ErrorIs(t, err, ErrNoSelection)
	require.ErrorIs(t, e.rewards.BulkDelete(ctx, []string{}), ErrNoSelection)
	_, err = e.requests.BulkUpdateStatus(ctx, nil, models.RewardStatusFulfilled)
	require.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, 0, e.backend.TotalCalls())
}

func TestBulkDeleteRewards(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	r1 := e.backend.AddReward(models.Reward{Title: "A", PointsCost: 10})
	r2 := e.backend.AddReward(models.Reward{Title: "B", PointsCost: 20})
	ctx := context.Background()

	require.NoError(t, e.rewards.BulkDelete(ctx, []string{r1.ID}))
	view, err := e.rewards.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{r2.ID}, ids(view.Rewards))
}

func TestToggleFlipsActiveFlag(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	r := e.backend.AddReward(models.Reward{Title: "A", PointsCost: 10, IsActive: true})
	ctx := context.Background()

	toggled, err := e.rewards.Toggle(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	again, err := e.rewards.Toggle(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, again.IsActive)

	stored, _ := e.backend.Reward(r.ID)
	assert.True(t, stored.IsActive)
}

func TestUpdateRewardRefreshesSlot(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	r := e.backend.AddReward(models.Reward{Title: "A", Description: "d", PointsCost: 10})
	ctx := context.Background()

	_, err := e.rewards.Update(ctx, r.ID, models.UpdateRewardDto{Title: ptr("  ")})
	require.ErrorIs(t, err, ErrValidation)

	updated, err := e.rewards.Update(ctx, r.ID, models.UpdateRewardDto{PointsCost: ptr(75)})
	require.NoError(t, err)
	assert.Equal(t, 75, updated.PointsCost)

	slot, ok := querycache.Peek[*models.Reward](e.cache, rewardKey(testutil.StoreID, r.ID))
	require.True(t, ok)
	assert.Equal(t, 75, slot.PointsCost)
}

func TestListKeepsLastGoodPageOnFailure(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	e.backend.AddReward(models.Reward{Title: "A", PointsCost: 10})
	ctx := context.Background()

	_, err := e.rewards.List(ctx)
	require.NoError(t, err)

	e.backend.FailNext("GET /rewards/admin/rewards", http.StatusInternalServerError, map[string]any{"message": "down"})
	view, err := e.rewards.List(ctx)
	require.Error(t, err)
	require.NotNil(t, view)
	assert.Len(t, view.Rewards, 1)
}

func TestRewardsNeedAuthentication(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	_, err := e.rewards.List(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = e.rewards.Create(ctx, RewardForm{Title: "t", Description: "d", PointsCost: 1})
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, 0, e.backend.TotalCalls())
}

func TestExportRewards(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	e.backend.AddReward(models.Reward{Title: "Free Coffee", PointsCost: 100})
	ctx := context.Background()

	data, contentType, err := e.rewards.Export(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(data), "Free Coffee")

	_, _, err = e.rewards.Export(ctx, "pdf")
	require.ErrorIs(t, err, ErrValidation)
}

func TestAnalyticsDefaultsToThirtyDays(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	r := e.backend.AddReward(models.Reward{Title: "A", PointsCost: 10, CurrentRedemptions: 4})

	got, err := e.rewards.Analytics(context.Background(), r.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalRedemptions)
	assert.Equal(t, 40, got.TotalPointsSpent)

	_, ok := e.cache.State(querycache.NewKey(OpRewardAnalytics, testutil.StoreID, []string{r.ID, "30d"}))
	assert.True(t, ok)
}
