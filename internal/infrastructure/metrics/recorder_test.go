package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/approval-workflow/internal/application/dispatcher"
	"github.com/garyjia/approval-workflow/internal/domain/entity"
	"github.com/garyjia/approval-workflow/internal/domain/event"
)

func requestEvent(t event.Type, status entity.Status) *event.Event {
	return event.ForRequest(t, &entity.ApprovalRequest{
		ID:             "req-1",
		OrganizationID: "org-1",
		EntityType:     "expense",
		Status:         status,
	}, "u-1")
}

func TestRecorder_CountsEventsThroughDispatcher(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(Config{Registry: reg})
	d := dispatcher.NewDispatcher()
	rec.Attach(d)
	ctx := context.Background()

	require.NoError(t, d.Publish(ctx, requestEvent(event.TypeRequestCreated, entity.StatusPending)))
	require.NoError(t, d.Publish(ctx, requestEvent(event.TypeRequestAdvanced, entity.StatusPending)))
	require.NoError(t, d.Publish(ctx, requestEvent(event.TypeRequestApproved, entity.StatusApproved)))
	require.NoError(t, d.Publish(ctx, requestEvent(event.TypeRequestAutoApproved, entity.StatusApproved)))
	require.NoError(t, d.Publish(ctx, requestEvent(event.TypeRequestConflict, entity.StatusPending)))

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.events.WithLabelValues("request.created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.events.WithLabelValues("request.conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.outcomes.WithLabelValues("expense", "approved", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.outcomes.WithLabelValues("expense", "approved", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.conflicts.WithLabelValues("expense")))
}

func TestRecorder_ObserveHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(Config{Namespace: "test", Registry: reg})

	rec.ObserveHTTP("GET", "/api/requests/:id", 200, 15*time.Millisecond)
	rec.ObserveHTTP("GET", "/api/requests/:id", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.httpRequests.WithLabelValues("GET", "/api/requests/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.httpRequests.WithLabelValues("GET", "/api/requests/:id", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.httpLatency))
}

func TestNewRecorder_DistinctRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRecorder(Config{Registry: prometheus.NewRegistry()})
		NewRecorder(Config{Registry: prometheus.NewRegistry()})
	})
}
