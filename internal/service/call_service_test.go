package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/freightops/load-ledger-api/internal/events"
	"github.com/freightops/load-ledger-api/internal/models"
	"github.com/freightops/load-ledger-api/internal/store"
	apperrors "github.com/freightops/load-ledger-api/pkg/errors"
	"github.com/freightops/load-ledger-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCallFixture(t *testing.T) (*CallService, *ShipmentService, *recordingPublisher) {
	t.Helper()

	publisher := &recordingPublisher{}
	ledger := store.NewLedgerStore(logger.NewNopLogger())

	return NewCallService(ledger, publisher, logger.NewNopLogger()),
		NewShipmentService(ledger, publisher, logger.NewNopLogger()),
		publisher
}

func callInput(callType string, agreed, seconds string) *models.CallInput {
	return &models.CallInput{
		Agreed:   json.RawMessage(agreed),
		Seconds:  json.RawMessage(seconds),
		CallType: callType,
	}
}

func TestAppendAndListByLoadCode(t *testing.T) {
	calls, shipments, publisher := newCallFixture(t)
	ctx := context.Background()

	_, err := shipments.Create(ctx, createPayload("LD-1"), true)
	require.NoError(t, err)

	first, err := calls.Append(ctx, "LD-1", callInput("agent", `true`, `95`))
	require.NoError(t, err)
	assert.True(t, first.Agreed)
	assert.Equal(t, 95.0, first.Seconds)

	_, err = calls.Append(ctx, "LD-1", callInput("manual", `"no"`, `"200"`))
	require.NoError(t, err)

	listed, err := calls.List(ctx, "LD-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)

	// Insertion order, not recency
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Equal(t, models.CallTypeManual, listed[1].CallType)
	assert.False(t, listed[1].Agreed)
	assert.Equal(t, 200.0, listed[1].Seconds)

	assert.Contains(t, publisher.types(), events.TypeCallLogged)
}

func TestAppendRejectsUnknownLoad(t *testing.T) {
	calls, _, _ := newCallFixture(t)

	_, err := calls.Append(context.Background(), "missing", callInput("agent", `true`, `60`))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAppendRejectsBadPayload(t *testing.T) {
	calls, shipments, publisher := newCallFixture(t)
	ctx := context.Background()

	_, err := shipments.Create(ctx, createPayload("LD-1"), true)
	require.NoError(t, err)

	_, err = calls.Append(ctx, "LD-1", callInput("agent", `"maybe"`, `60`))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	listed, err := calls.List(ctx, "LD-1")
	require.NoError(t, err)
	assert.Empty(t, listed)
	assert.NotContains(t, publisher.types(), events.TypeCallLogged)
}

func TestClearAll(t *testing.T) {
	calls, shipments, _ := newCallFixture(t)
	ctx := context.Background()

	_, err := shipments.Create(ctx, createPayload("LD-1"), true)
	require.NoError(t, err)

	_, err = calls.Append(ctx, "LD-1", callInput("agent", `true`, `60`))
	require.NoError(t, err)

	require.NoError(t, calls.ClearAll(ctx, "LD-1"))

	listed, err := calls.List(ctx, "LD-1")
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Clearing an already empty ledger entry is a quiet no-op
	assert.NoError(t, calls.ClearAll(ctx, "LD-1"))
}

func TestListAllAnnotatesAndFilters(t *testing.T) {
	calls, shipments, _ := newCallFixture(t)
	ctx := context.Background()

	created, err := shipments.Create(ctx, createPayload("LD-1"), true)
	require.NoError(t, err)

	_, err = shipments.Create(ctx, createPayload("LD-2"), false)
	require.NoError(t, err)

	_, err = calls.Append(ctx, "LD-1", callInput("agent", `true`, `95`))
	require.NoError(t, err)

	_, err = calls.Append(ctx, "LD-2", callInput("manual", `false`, `200`))
	require.NoError(t, err)

	all, err := calls.ListAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	for _, c := range all {
		assert.NotEmpty(t, c.LoadID)
		assert.NotEmpty(t, c.Origin)
		assert.NotEmpty(t, c.Destination)
	}

	agent := models.CallTypeAgent
	filtered, err := calls.ListAll(ctx, &models.CallFilters{CallType: &agent})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, created.ID, filtered[0].ShipmentID)
	assert.Equal(t, "LD-1", filtered[0].LoadID)
}
