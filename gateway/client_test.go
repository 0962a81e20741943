package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rewards-dashboard/notify"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, bool) {
	return string(s), s != ""
}

type chanNotifier chan notify.Notification

func (c chanNotifier) Notify(n notify.Notification) { c <- n }

type seen struct {
	method  string
	auth    string
	reqID   string
	query   string
	body    string
	present bool
}

func newServer(t *testing.T, record chan<- seen) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	capture := func(req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		_, has := req.Header["Authorization"]
		record <- seen{
			method:  req.Method,
			auth:    req.Header.Get("Authorization"),
			reqID:   req.Header.Get("X-Request-ID"),
			query:   req.URL.RawQuery,
			body:    string(body),
			present: has,
		}
	}
	r.HandleFunc("/ok", func(w http.ResponseWriter, req *http.Request) {
		capture(req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"r1","title":"Free Coffee"}`))
	})
	r.Get("/csv", func(w http.ResponseWriter, req *http.Request) {
		capture(req)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("id,title\nr1,Free Coffee\n"))
	})
	r.Get("/fail/{kind}", func(w http.ResponseWriter, req *http.Request) {
		capture(req)
		w.Header().Set("Content-Type", "application/json")
		switch chi.URLParam(req, "kind") {
		case "message":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"statusCode":400,"message":"Title is required"}`))
		case "list":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":["title should not be empty","pointsCost must be positive"]}`))
		case "error":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"Conflict"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`<html>oops</html>`))
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAttachesBearerToken(t *testing.T) {
	t.Parallel()

	record := make(chan seen, 1)
	srv := newServer(t, record)
	c := New(Options{BaseURL: srv.URL, Tokens: staticToken("abc"), Timeout: 5 * time.Second})

	var out struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, c.Get(context.Background(), "/ok", nil, &out))
	assert.Equal(t, "r1", out.ID)
	assert.Equal(t, "Free Coffee", out.Title)

	got := <-record
	assert.Equal(t, "Bearer abc", got.auth)
	assert.NotEmpty(t, got.reqID)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	t.Parallel()

	record := make(chan seen, 1)
	srv := newServer(t, record)
	c := New(Options{BaseURL: srv.URL, Tokens: staticToken("")})

	require.NoError(t, c.Get(context.Background(), "/ok", nil, nil))
	got := <-record
	assert.False(t, got.present)
}

func TestClientSkipsEmptyParams(t *testing.T) {
	t.Parallel()

	record := make(chan seen, 1)
	srv := newServer(t, record)
	c := New(Options{BaseURL: srv.URL})

	require.NoError(t, c.Get(context.Background(), "/ok", Params{"status": "PENDING", "categoryId": ""}, nil))
	got := <-record
	assert.Equal(t, "status=PENDING", got.query)
}

func TestClientSendsBodyOnDelete(t *testing.T) {
	t.Parallel()

	record := make(chan seen, 1)
	srv := newServer(t, record)
	c := New(Options{BaseURL: srv.URL})

	body := map[string][]string{"ids": {"r1", "r2"}}
	require.NoError(t, c.Delete(context.Background(), "/ok", nil, body, nil))

	got := <-record
	assert.Equal(t, http.MethodDelete, got.method)
	var decoded map[string][]string
	require.NoError(t, json.Unmarshal([]byte(got.body), &decoded))
	assert.Equal(t, body, decoded)
}

func TestClientGetRawKeepsContentType(t *testing.T) {
	t.Parallel()

	record := make(chan seen, 1)
	srv := newServer(t, record)
	c := New(Options{BaseURL: srv.URL})

	data, contentType, err := c.GetRaw(context.Background(), "/csv", nil)
	require.NoError(t, err)
	<-record
	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t, "id,title\nr1,Free Coffee\n", string(data))
}

func TestClientErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind    string
		status  int
		message string
	}{
		{kind: "message", status: http.StatusBadRequest, message: "Title is required"},
		{kind: "list", status: http.StatusUnprocessableEntity, message: "title should not be empty, pointsCost must be positive"},
		{kind: "error", status: http.StatusConflict, message: "Conflict"},
		{kind: "html", status: http.StatusInternalServerError, message: GenericMessage},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			t.Parallel()

			record := make(chan seen, 1)
			srv := newServer(t, record)
			notes := make(chanNotifier, 1)
			c := New(Options{BaseURL: srv.URL, Notifier: notes})

			err := c.Get(context.Background(), "/fail/"+tt.kind, nil, nil)
			require.Error(t, err)
			<-record

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, tt.message, UserMessage(err))
			assert.False(t, IsNetwork(err))

			select {
			case n := <-notes:
				assert.Equal(t, ErrorNotificationID, n.ID)
				assert.Equal(t, notify.LevelError, n.Level)
				assert.Equal(t, tt.message, n.Message)
			case <-time.After(2 * time.Second):
				t.Fatal("no notification dispatched")
			}
		})
	}
}

// A notifier that never returns must not hold up the failed call.
func TestClientNotificationDoesNotBlock(t *testing.T) {
	t.Parallel()

	record := make(chan seen, 1)
	srv := newServer(t, record)
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	notifier := blockingNotifier(block)
	c := New(Options{BaseURL: srv.URL, Notifier: notifier})

	done := make(chan error, 1)
	go func() { done <- c.Get(context.Background(), "/fail/message", nil, nil) }()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("request blocked on notifier")
	}
}

type blockingNotifier chan struct{}

func (b blockingNotifier) Notify(notify.Notification) { <-b }

func TestClientNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	notes := make(chanNotifier, 1)
	c := New(Options{BaseURL: url, Notifier: notes, Timeout: 2 * time.Second})

	err := c.Get(context.Background(), "/ok", nil, nil)
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, NetworkMessage, UserMessage(err))

	select {
	case n := <-notes:
		assert.Equal(t, NetworkMessage, n.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification dispatched")
	}
}

func TestAPIErrorFallsBackToGenericMessage(t *testing.T) {
	t.Parallel()

	err := &APIError{Method: http.MethodGet, Path: "/x", Status: http.StatusBadGateway}
	assert.Equal(t, GenericMessage, err.Message())
	assert.Contains(t, err.Error(), "status 502")
}
