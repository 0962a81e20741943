package dashboard

import (
	"context"
	"testing"
	"time"

	"rewards-dashboard/gateway"
	"rewards-dashboard/logger"
	"rewards-dashboard/models"
	"rewards-dashboard/querycache"
	"rewards-dashboard/services"
	"rewards-dashboard/session"
	"rewards-dashboard/storage"
	"rewards-dashboard/testutil"

	"github.com/stretchr/testify/require"
)

// env wires the dashboard against a fake backend, the way main does.
type env struct {
	backend  *testutil.Backend
	storage  *storage.Memory
	session  *session.Container
	cache    *querycache.Cache
	queries  *Queries
	auth     *AuthFlow
	rewards  *RewardsManager
	requests *RequestsQueue
	stats    *Stats
}

func newEnv(t *testing.T) *env {
	t.Helper()

	b := testutil.NewBackend(t)
	st := storage.NewMemory()
	log := logger.Discard()

	api := gateway.New(gateway.Options{
		BaseURL: b.URL(),
		Timeout: 5 * time.Second,
		Tokens:  storage.TokenSource{Storage: st},
		Logger:  log,
	})
	sess := session.NewContainer(st, log)
	require.NoError(t, sess.Rehydrate(context.Background()))

	cache := querycache.New(querycache.WithLogger(log))
	queries := NewQueries(cache,
		services.NewRewardManagementService(api, log),
		services.NewRewardRequestService(api, log),
		log,
	)

	return &env{
		backend:  b,
		storage:  st,
		session:  sess,
		cache:    cache,
		queries:  queries,
		auth:     NewAuthFlow(services.NewAuthService(api, log), sess, cache, log),
		rewards:  NewRewardsManager(queries, sess, DefaultFilters()),
		requests: NewRequestsQueue(queries, sess, DefaultFilters()),
		stats:    NewStats(queries, sess),
	}
}

// login signs the fake backend's store in without going through the OTP flow.
func (e *env) login(t *testing.T) {
	t.Helper()
	require.NoError(t, e.session.Login(context.Background(), e.backend.Store, testutil.DefaultToken))
}

func ptr[T any](v T) *T { return &v }

func ids(rewards []models.Reward) []string {
	out := make([]string, len(rewards))
	for i, r := range rewards {
		out[i] = r.ID
	}
	return out
}

func statusOf(requests []models.RewardRequest, id string) models.RewardStatus {
	for _, r := range requests {
		if r.ID == id {
			return r.Status
		}
	}
	return ""
}
