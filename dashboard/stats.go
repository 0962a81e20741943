package dashboard

import (
	"context"

	"rewards-dashboard/models"

	"golang.org/x/sync/errgroup"
)

// Overview bundles the dashboard header data.
type Overview struct {
	Stats      *models.DashboardStats  `json:"stats"`
	Counts     *models.StatusCounts    `json:"counts"`
	Categories []models.RewardCategory `json:"categories"`
}

// Stats serves the store-wide dashboard reads.
type Stats struct {
	queries *Queries
	session StoreSession
}

func NewStats(queries *Queries, session StoreSession) *Stats {
	return &Stats{queries: queries, session: session}
}

func (s *Stats) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	storeID, err := currentStore(s.session)
	if err != nil {
		return nil, err
	}
	return s.queries.DashboardStats(ctx, storeID)
}

func (s *Stats) StatusCounts(ctx context.Context) (*models.StatusCounts, error) {
	storeID, err := currentStore(s.session)
	if err != nil {
		return nil, err
	}
	return s.queries.StatusCounts(ctx, storeID)
}

func (s *Stats) Categories(ctx context.Context) ([]models.RewardCategory, error) {
	storeID, err := currentStore(s.session)
	if err != nil {
		return nil, err
	}
	return s.queries.Categories(ctx, storeID)
}

// Overview loads stats, status counts and categories concurrently. The reads
// run on ctx, not a group context, so a failing read never cancels a fetch
// other callers have joined.
func (s *Stats) Overview(ctx context.Context) (*Overview, error) {
	storeID, err := currentStore(s.session)
	if err != nil {
		return nil, err
	}
	var out Overview
	var g errgroup.Group
	g.Go(func() (err error) {
		out.Stats, err = s.queries.DashboardStats(ctx, storeID)
		return err
	})
	g.Go(func() (err error) {
		out.Counts, err = s.queries.StatusCounts(ctx, storeID)
		return err
	})
	g.Go(func() (err error) {
		out.Categories, err = s.queries.Categories(ctx, storeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshCache asks the backend to rebuild its caches for the store and
// invalidates every cached read of the store.
func (s *Stats) RefreshCache(ctx context.Context) error {
	storeID, err := currentStore(s.session)
	if err != nil {
		return err
	}
	return s.queries.RefreshStoreCache(ctx, storeID)
}

// Refresh invalidates and reloads the stats and counts. It does nothing
// while no store is signed in.
func (s *Stats) Refresh(ctx context.Context) error {
	storeID, err := currentStore(s.session)
	if err != nil {
		return nil
	}
	s.queries.Cache().Invalidate(matchOp(OpDashboardStats, storeID))
	s.queries.Cache().Invalidate(matchOp(OpStatusCounts, storeID))
	if _, err := s.queries.DashboardStats(ctx, storeID); err != nil {
		return err
	}
	_, err = s.queries.StatusCounts(ctx, storeID)
	return err
}

// Focus invalidates the reads marked to refetch on focus.
func (s *Stats) Focus() int {
	return s.queries.Focus()
}
