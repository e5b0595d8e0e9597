// Package telemetry forwards unexpected server errors to an error tracker.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
)

// Reporter receives errors that surfaced as internal server errors.
type Reporter interface {
	Report(ctx context.Context, err error)
	// Flush waits up to timeout for buffered reports to be delivered.
	Flush(timeout time.Duration) bool
}

// Nop discards every report.
type Nop struct{}

func (Nop) Report(context.Context, error) {}

func (Nop) Flush(time.Duration) bool { return true }

// Sentry reports errors to a Sentry project.
type Sentry struct {
	hub *sentry.Hub
}

// NewSentry creates a reporter for dsn tagged with environment.
func NewSentry(dsn, environment string) (*Sentry, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry client: %w", err)
	}
	return newSentry(client), nil
}

func newSentry(client *sentry.Client) *Sentry {
	return &Sentry{hub: sentry.NewHub(client, sentry.NewScope())}
}

// Report captures err, tagged with the request id when ctx carries one.
func (s *Sentry) Report(ctx context.Context, err error) {
	s.hub.WithScope(func(scope *sentry.Scope) {
		if id := middleware.GetReqID(ctx); id != "" {
			scope.SetTag("request_id", id)
		}
		s.hub.CaptureException(err)
	})
}

func (s *Sentry) Flush(timeout time.Duration) bool {
	return s.hub.Flush(timeout)
}
