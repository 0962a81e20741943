// Package testutil provides an in-memory fake of the rewards backend for
// tests, served by a chi router behind httptest.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"rewards-dashboard/models"

	"github.com/go-chi/chi/v5"
)

const (
	DefaultOTP   = "123456"
	DefaultToken = "backend-token"
	StoreID      = "store-1"
)

type failure struct {
	status  int
	payload any
}

// Backend is a fake rewards backend. Exported maps may be seeded before use;
// afterwards use the methods, which hold the lock.
type Backend struct {
	mu sync.Mutex

	Server *httptest.Server

	Store      models.Store
	OTP        string
	Token      string
	OmitStore  bool
	Rewards    map[string]models.Reward
	Requests   map[string]models.RewardRequest
	Categories []models.RewardCategory
	Stats      models.DashboardStats

	calls    map[string]int
	failures map[string][]failure
	holds    map[string]chan struct{}
	auth     []string
	nextID   int
}

// NewBackend starts a fake backend that stops when t ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		Store: models.Store{
			ID:    StoreID,
			Name:  "Corner Cafe",
			Phone: "+963912345678",
			City:  "Damascus",
		},
		OTP:      DefaultOTP,
		Token:    DefaultToken,
		Rewards:  make(map[string]models.Reward),
		Requests: make(map[string]models.RewardRequest),
		Categories: []models.RewardCategory{
			{ID: "cat-drinks", Name: "Drinks"},
			{ID: "cat-food", Name: "Food"},
		},
		calls:    make(map[string]int),
		failures: make(map[string][]failure),
		holds:    make(map[string]chan struct{}),
	}
	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

func (b *Backend) URL() string { return b.Server.URL }

// Route names are "METHOD pattern", e.g. "GET /rewards/admin/rewards/{id}".

// Calls reports how many times route was served.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// TotalCalls reports every request served.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// FailNext makes the next call to route answer status with payload.
func (b *Backend) FailNext(route string, status int, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = append(b.failures[route], failure{status: status, payload: payload})
}

// Hold blocks calls to route until the returned func is called.
func (b *Backend) Hold(route string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.holds[route] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.holds, route)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Authorizations lists the Authorization headers received, in order.
func (b *Backend) Authorizations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.auth...)
}

func (b *Backend) AddReward(r models.Reward) models.Reward {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.ID == "" {
		r.ID = b.newID("reward")
	}
	if r.StoreID == "" {
		r.StoreID = StoreID
	}
	b.Rewards[r.ID] = r
	return r
}

func (b *Backend) AddRequest(r models.RewardRequest) models.RewardRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.ID == "" {
		r.ID = b.newID("request")
	}
	if r.Status == "" {
		r.Status = models.RewardStatusPending
	}
	if reward, ok := b.Rewards[r.RewardID]; ok && r.Reward.ID == "" {
		r.Reward = reward
	}
	b.Requests[r.ID] = r
	return r
}

func (b *Backend) Reward(id string) (models.Reward, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.Rewards[id]
	return r, ok
}

func (b *Backend) Request(id string) (models.RewardRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.Requests[id]
	return r, ok
}

// SetRequestStatus changes a request behind the dashboard's back.
func (b *Backend) SetRequestStatus(id string, status models.RewardStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.Requests[id]
	r.Status = status
	b.Requests[id] = r
}

func (b *Backend) SetStats(s models.DashboardStats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Stats = s
}

func (b *Backend) newID(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s-%d", prefix, b.nextID)
}

// ---- HTTP ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"statusCode": status, "message": msg})
}

// serve wraps a handler with call counting, holds and injected failures.
func (b *Backend) serve(method, pattern string, h http.HandlerFunc) (string, string, http.HandlerFunc) {
	route := method + " " + pattern
	return method, pattern, func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[route]++
		b.auth = append(b.auth, r.Header.Get("Authorization"))
		hold := b.holds[route]
		var fail *failure
		if queue := b.failures[route]; len(queue) > 0 {
			fail = &queue[0]
			b.failures[route] = queue[1:]
		}
		b.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if fail != nil {
			writeJSON(w, fail.status, fail.payload)
			return
		}
		h(w, r)
	}
}

func (b *Backend) router() http.Handler {
	r := chi.NewRouter()
	handle := func(method, pattern string, h http.HandlerFunc) {
		r.MethodFunc(b.serve(method, pattern, h))
	}

	handle(http.MethodPost, "/stores/auth/request-otp", b.requestOTP)
	handle(http.MethodPost, "/stores/auth/verify-otp", b.verifyOTP)

	handle(http.MethodGet, "/rewards/categories", b.listCategories)
	handle(http.MethodGet, "/rewards/admin/purchases", b.listRequests)
	handle(http.MethodGet, "/rewards/admin/purchases/search", b.searchRequests)
	handle(http.MethodGet, "/rewards/admin/purchases/paginated", b.searchRequests)
	handle(http.MethodPut, "/rewards/admin/purchases/bulk-update", b.bulkUpdateRequests)
	handle(http.MethodGet, "/rewards/admin/purchases/{id}", b.getRequest)
	handle(http.MethodPut, "/rewards/admin/purchases/{id}/status", b.updateRequestStatus)
	handle(http.MethodGet, "/rewards/admin/stores/{id}/dashboard-stats", b.dashboardStats)
	handle(http.MethodGet, "/rewards/admin/stores/{id}/status-counts", b.statusCounts)
	handle(http.MethodPost, "/rewards/admin/stores/{id}/refresh-cache", b.refreshCache)

	handle(http.MethodGet, "/rewards/admin/rewards", b.listRewards)
	handle(http.MethodPost, "/rewards/admin/rewards", b.createReward)
	handle(http.MethodGet, "/rewards/admin/rewards/export", b.exportRewards)
	handle(http.MethodPut, "/rewards/admin/rewards/bulk-update", b.bulkUpdateRewards)
	handle(http.MethodDelete, "/rewards/admin/rewards/bulk-delete", b.bulkDeleteRewards)
	handle(http.MethodGet, "/rewards/admin/rewards/{id}", b.getReward)
	handle(http.MethodPut, "/rewards/admin/rewards/{id}", b.updateReward)
	handle(http.MethodDelete, "/rewards/admin/rewards/{id}", b.deleteReward)
	handle(http.MethodPatch, "/rewards/admin/rewards/{id}/status", b.toggleReward)
	handle(http.MethodGet, "/rewards/admin/rewards/{id}/analytics", b.rewardAnalytics)

	return r
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

// ---- auth ----

func (b *Backend) requestOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
	}
	if !decode(r, &body) || body.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}
	writeJSON(w, http.StatusOK, models.OtpRequestResponse{Success: true, Message: "OTP sent successfully"})
}

func (b *Backend) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
		Otp   string `json:"otp"`
	}
	if !decode(r, &body) {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if body.Otp != b.OTP {
		writeError(w, http.StatusUnauthorized, "Invalid or expired OTP")
		return
	}
	resp := models.StoreAuthResponse{Success: true, Token: b.Token}
	if !b.OmitStore {
		store := b.Store
		resp.Store = &store
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---- requests ----

func (b *Backend) sortedRequests(storeID string, status models.RewardStatus) []models.RewardRequest {
	out := make([]models.RewardRequest, 0, len(b.Requests))
	for _, req := range b.Requests {
		if storeID != "" && req.Reward.StoreID != "" && req.Reward.StoreID != storeID {
			continue
		}
		if status != "" && req.NormalizedStatus() != status {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) listRequests(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	status := models.RewardStatus(strings.ToUpper(r.URL.Query().Get("status")))
	writeJSON(w, http.StatusOK, b.sortedRequests(r.URL.Query().Get("storeId"), status))
}

func paginate[T any](items []T, q map[string][]string) ([]T, models.Pagination) {
	page, _ := strconv.Atoi(first(q["page"]))
	limit, _ := strconv.Atoi(first(q["limit"]))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	pages := (total + limit - 1) / limit
	return items[start:end], models.Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func (b *Backend) searchRequests(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := r.URL.Query()
	status := models.RewardStatus(strings.ToUpper(q.Get("status")))
	text := strings.ToLower(q.Get("query"))
	var matched []models.RewardRequest
	for _, req := range b.sortedRequests(q.Get("storeId"), status) {
		if text != "" && !strings.Contains(strings.ToLower(req.Reward.Title+" "+req.User.Name), text) {
			continue
		}
		matched = append(matched, req)
	}
	data, pagination := paginate(matched, q)
	writeJSON(w, http.StatusOK, models.RewardRequestsPage{Data: data, Pagination: pagination})
}

func (b *Backend) getRequest(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.Requests[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Reward request not found")
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (b *Backend) transition(id string, status models.RewardStatus) (models.RewardRequest, int, string) {
	req, ok := b.Requests[id]
	if !ok {
		return req, http.StatusNotFound, "Reward request not found"
	}
	if !req.NormalizedStatus().CanTransitionTo(status) {
		return req, http.StatusBadRequest, "Reward request has already been processed"
	}
	req.Status = status
	b.Requests[id] = req
	return req, http.StatusOK, ""
}

func (b *Backend) updateRequestStatus(w http.ResponseWriter, r *http.Request) {
	var body models.UpdateRequestStatusDto
	if !decode(r, &body) {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	req, status, msg := b.transition(chi.URLParam(r, "id"), body.Status)
	if status != http.StatusOK {
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (b *Backend) bulkUpdateRequests(w http.ResponseWriter, r *http.Request) {
	var body models.BulkUpdateRequestStatusDto
	if !decode(r, &body) || len(body.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	updated := make([]models.RewardRequest, 0, len(body.IDs))
	for _, id := range body.IDs {
		req, status, _ := b.transition(id, body.Status)
		if status == http.StatusOK {
			updated = append(updated, req)
		}
	}
	writeJSON(w, http.StatusOK, updated)
}

func (b *Backend) dashboardStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Stats)
}

func (b *Backend) statusCounts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var counts models.StatusCounts
	for _, req := range b.sortedRequests(chi.URLParam(r, "id"), "") {
		switch req.NormalizedStatus() {
		case models.RewardStatusPending:
			counts.Pending++
		case models.RewardStatusFulfilled:
			counts.Fulfilled++
		case models.RewardStatusCancelled:
			counts.Cancelled++
		}
	}
	writeJSON(w, http.StatusOK, counts)
}

func (b *Backend) refreshCache(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) listCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Categories)
}

// ---- rewards ----

func (b *Backend) listRewards(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := r.URL.Query()
	text := strings.ToLower(q.Get("query"))
	var matched []models.Reward
	for _, reward := range b.Rewards {
		if id := q.Get("storeId"); id != "" && reward.StoreID != id {
			continue
		}
		if c := q.Get("categoryId"); c != "" && reward.CategoryID != c {
			continue
		}
		if a := q.Get("isActive"); a != "" && strconv.FormatBool(reward.IsActive) != a {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(reward.Title+" "+reward.Description), text) {
			continue
		}
		matched = append(matched, reward)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	data, pagination := paginate(matched, q)
	if data == nil {
		data = []models.Reward{}
	}
	writeJSON(w, http.StatusOK, models.RewardsPage{Data: data, Pagination: pagination})
}

func (b *Backend) getReward(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	reward, ok := b.Rewards[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Reward not found")
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (b *Backend) createReward(w http.ResponseWriter, r *http.Request) {
	var dto models.CreateRewardDto
	if !decode(r, &dto) {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.Rewards {
		if existing.StoreID == dto.StoreID && strings.EqualFold(existing.Title, dto.Title) {
			writeJSON(w, http.StatusConflict, map[string]any{"error": "Conflict"})
			return
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	reward := models.Reward{
		ID:          b.newID("reward"),
		Title:       dto.Title,
		Description: dto.Description,
		PointsCost:  dto.PointsCost,
		CategoryID:  dto.CategoryID,
		IsActive:    dto.IsActive == nil || *dto.IsActive,
		ExpiryDate:  dto.ExpiryDate,
		StoreID:     dto.StoreID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Rewards[reward.ID] = reward
	writeJSON(w, http.StatusCreated, reward)
}

func (b *Backend) updateReward(w http.ResponseWriter, r *http.Request) {
	var dto models.UpdateRewardDto
	if !decode(r, &dto) {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	reward, ok := b.Rewards[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Reward not found")
		return
	}
	reward = reward.Apply(dto)
	b.Rewards[reward.ID] = reward
	writeJSON(w, http.StatusOK, reward)
}

func (b *Backend) deleteReward(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := b.Rewards[id]; !ok {
		writeError(w, http.StatusNotFound, "Reward not found")
		return
	}
	delete(b.Rewards, id)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) toggleReward(w http.ResponseWriter, r *http.Request) {
	var body models.ToggleRewardStatusDto
	if !decode(r, &body) {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	reward, ok := b.Rewards[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Reward not found")
		return
	}
	reward.IsActive = body.IsActive
	b.Rewards[reward.ID] = reward
	writeJSON(w, http.StatusOK, reward)
}

func (b *Backend) bulkUpdateRewards(w http.ResponseWriter, r *http.Request) {
	var dto models.BulkUpdateRewardsDto
	if !decode(r, &dto) {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	updated := make([]models.Reward, 0, len(dto.IDs))
	for _, id := range dto.IDs {
		if reward, ok := b.Rewards[id]; ok {
			reward = reward.Apply(dto.Data)
			b.Rewards[id] = reward
			updated = append(updated, reward)
		}
	}
	writeJSON(w, http.StatusOK, updated)
}

func (b *Backend) bulkDeleteRewards(w http.ResponseWriter, r *http.Request) {
	var dto models.BulkDeleteRewardsDto
	if !decode(r, &dto) {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range dto.IDs {
		delete(b.Rewards, id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": len(dto.IDs)})
}

func (b *Backend) rewardAnalytics(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	reward, ok := b.Rewards[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Reward not found")
		return
	}
	writeJSON(w, http.StatusOK, models.RewardAnalytics{
		TotalRedemptions: reward.CurrentRedemptions,
		TotalPointsSpent: reward.CurrentRedemptions * reward.PointsCost,
	})
}

func (b *Backend) exportRewards(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var sb strings.Builder
	sb.WriteString("id,title,pointsCost\n")
	ids := make([]string, 0, len(b.Rewards))
	for id := range b.Rewards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		reward := b.Rewards[id]
		fmt.Fprintf(&sb, "%s,%s,%d\n", reward.ID, reward.Title, reward.PointsCost)
	}
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}
