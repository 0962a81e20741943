// Package gateway is the single HTTP client used to reach the rewards backend.
// It attaches the stored bearer token to every request and turns failed
// responses into user-facing notifications before returning the error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rewards-dashboard/notify"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/client"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrorNotificationID is shared by every API error toast so a new one
// replaces the previous.
const ErrorNotificationID = "api-error"

// Params are query parameters. Empty values are not sent.
type Params map[string]string

// TokenSource supplies the bearer credential for outgoing requests.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Notifier receives user-facing notifications.
type Notifier interface {
	Notify(n notify.Notification)
}

type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Tokens   TokenSource
	Notifier Notifier
	Logger   *logrus.Entry
}

type Client struct {
	http     *client.Client
	tokens   TokenSource
	notifier Notifier
	log      *logrus.Entry
}

func New(opts Options) *Client {
	cc := client.New().SetBaseURL(opts.BaseURL)
	if opts.Timeout > 0 {
		cc.SetTimeout(opts.Timeout)
	}

	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Client{
		http:     cc,
		tokens:   opts.Tokens,
		notifier: opts.Notifier,
		log:      log,
	}
}

func (c *Client) Get(ctx context.Context, path string, query Params, out any) error {
	return c.Do(ctx, fiber.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, fiber.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, query Params, body, out any) error {
	return c.Do(ctx, fiber.MethodPut, path, query, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, query Params, body, out any) error {
	return c.Do(ctx, fiber.MethodPatch, path, query, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, query Params, body, out any) error {
	return c.Do(ctx, fiber.MethodDelete, path, query, body, out)
}

// GetRaw returns the undecoded response body and its content type.
func (c *Client) GetRaw(ctx context.Context, path string, query Params) ([]byte, string, error) {
	return c.send(ctx, fiber.MethodGet, path, query, nil)
}

// Do sends one request and decodes a JSON response into out (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, query Params, body, out any) error {
	data, _, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query Params, body any) ([]byte, string, error) {
	requestID := uuid.NewString()

	req := c.http.R().
		SetContext(ctx).
		SetMethod(method).
		SetURL(path).
		SetHeader(fiber.HeaderAccept, fiber.MIMEApplicationJSON).
		SetHeader(fiber.HeaderXRequestID, requestID)

	if c.tokens != nil {
		if token, ok := c.tokens.Token(ctx); ok {
			req.SetHeader(fiber.HeaderAuthorization, "Bearer "+token)
		}
	}
	for key, value := range query {
		if value != "" {
			req.SetParam(key, value)
		}
	}
	if body != nil {
		req.SetJSON(body)
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := req.Send()
	if err != nil {
		client.ReleaseRequest(req)
		log.WithError(err).Warn("backend request failed without response")
		c.notify(NetworkMessage)
		return nil, "", &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Close()

	status := resp.StatusCode()
	// The body buffer is pooled; copy it before Close.
	data := append([]byte(nil), resp.Body()...)
	contentType := resp.Header(fiber.HeaderContentType)

	log = log.WithFields(logrus.Fields{
		"status":   status,
		"duration": time.Since(start).String(),
	})

	if status < 200 || status > 299 {
		apiErr := &APIError{
			Method:         method,
			Path:           path,
			Status:         status,
			PayloadMessage: payloadMessage(data),
			Body:           data,
		}
		log.WithField("message", apiErr.Message()).Warn("backend request failed")
		c.notify(apiErr.Message())
		return nil, "", apiErr
	}

	log.Debug("backend request completed")
	return data, contentType, nil
}

// notify never blocks the caller.
func (c *Client) notify(message string) {
	if c.notifier == nil {
		return
	}
	n := notify.Notification{
		ID:       ErrorNotificationID,
		Level:    notify.LevelError,
		Message:  message,
		Duration: 5000,
	}
	go c.notifier.Notify(n)
}
