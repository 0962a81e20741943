package dashboard

import (
	"context"
	"net/http"
	"testing"
	"time"

	"rewards-dashboard/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statsRoute = "GET /rewards/admin/stores/{id}/dashboard-stats"

func TestOverviewLoadsEverything(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	e.backend.SetStats(models.DashboardStats{ActiveRewards: 4, RedemptionRate: 0.5, MonthlyRedemptions: 12})
	e.backend.AddRequest(models.RewardRequest{})

	got, err := e.stats.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stats.ActiveRewards)
	assert.Equal(t, models.StatusCounts{Pending: 1}, *got.Counts)
	assert.Len(t, got.Categories, 2)

	_, err = e.stats.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, e.backend.Calls(statsRoute))
	assert.Equal(t, 1, e.backend.Calls("GET /rewards/categories"))
}

func TestOverviewFailsWhenAnyPartFails(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	e.backend.FailNext("GET /rewards/categories", http.StatusInternalServerError, map[string]any{"message": "down"})

	_, err := e.stats.Overview(context.Background())
	require.Error(t, err)
}

func TestOverviewFailureLeavesJoinedReadsAlone(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	e.backend.SetStats(models.DashboardStats{ActiveRewards: 9})
	release := e.backend.Hold(statsRoute)
	defer release()
	e.backend.FailNext("GET /rewards/categories", http.StatusInternalServerError, map[string]any{"message": "down"})
	ctx := context.Background()

	overviewErr := make(chan error, 1)
	go func() {
		_, err := e.stats.Overview(ctx)
		overviewErr <- err
	}()
	require.Eventually(t, func() bool {
		return e.backend.Calls(statsRoute) == 1 && e.backend.Calls("GET /rewards/categories") == 1
	}, 5*time.Second, 5*time.Millisecond)

	type result struct {
		stats *models.DashboardStats
		err   error
	}
	joined := make(chan result, 1)
	go func() {
		got, err := e.stats.DashboardStats(ctx)
		joined <- result{got, err}
	}()

	release()
	require.Error(t, <-overviewErr)
	r := <-joined
	require.NoError(t, r.err)
	assert.Equal(t, 9, r.stats.ActiveRewards)
}

func TestRefreshRefetchesStats(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	_, err := e.stats.DashboardStats(ctx)
	require.NoError(t, err)

	e.backend.SetStats(models.DashboardStats{ActiveRewards: 7})
	require.NoError(t, e.stats.Refresh(ctx))
	assert.Equal(t, 2, e.backend.Calls(statsRoute))

	got, err := e.stats.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, got.ActiveRewards)
	assert.Equal(t, 2, e.backend.Calls(statsRoute))
}

func TestRefreshIsQuietWhenSignedOut(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	require.NoError(t, e.stats.Refresh(context.Background()))
	assert.Equal(t, 0, e.backend.TotalCalls())

	_, err := e.stats.Overview(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}
