package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentry_Report(t *testing.T) {
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	})
	require.NoError(t, err)
	rep := newSentry(client)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	rep.Report(ctx, errors.New("disk on fire"))
	rep.Report(context.Background(), errors.New("again"))
	rep.Flush(time.Second)

	require.Len(t, events, 2)
	assert.Equal(t, "req-42", events[0].Tags["request_id"])
	require.NotEmpty(t, events[0].Exception)
	assert.Equal(t, "disk on fire", events[0].Exception[len(events[0].Exception)-1].Value)
	_, tagged := events[1].Tags["request_id"]
	assert.False(t, tagged)
}

func TestNewSentry_BadDSN(t *testing.T) {
	_, err := NewSentry("not a dsn", "test")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var r Reporter = Nop{}
	r.Report(context.Background(), errors.New("ignored"))
	assert.True(t, r.Flush(time.Millisecond))
}
