// Package services holds one typed function per backend operation. Each makes
// exactly one gateway call: no caching, no retries.
package services

import (
	"context"
	"fmt"
	"strconv"

	"rewards-dashboard/gateway"

	"github.com/sirupsen/logrus"
)

// Requester is the subset of the gateway client the adapters use.
type Requester interface {
	Get(ctx context.Context, path string, query gateway.Params, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, query gateway.Params, body, out any) error
	Patch(ctx context.Context, path string, query gateway.Params, body, out any) error
	Delete(ctx context.Context, path string, query gateway.Params, body, out any) error
	GetRaw(ctx context.Context, path string, query gateway.Params) ([]byte, string, error)
}

type base struct {
	api Requester
	log *logrus.Entry
}

// fail logs err for diagnostics and returns it wrapped with the operation.
func (b base) fail(operation string, err error) error {
	b.log.WithError(err).
		WithField("operation", operation).
		WithField("status", gateway.StatusCode(err)).
		Errorf("Service error [%s]", operation)
	return fmt.Errorf("%s: %w", operation, err)
}

func boolParam(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func intParam(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
