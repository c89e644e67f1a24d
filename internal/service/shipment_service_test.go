package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/freightops/load-ledger-api/internal/events"
	"github.com/freightops/load-ledger-api/internal/models"
	"github.com/freightops/load-ledger-api/internal/store"
	apperrors "github.com/freightops/load-ledger-api/pkg/errors"
	"github.com/freightops/load-ledger-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published events for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType, shipmentID string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func newTestService() (*ShipmentService, *recordingPublisher) {
	publisher := &recordingPublisher{}
	ledger := store.NewLedgerStore(logger.NewNopLogger())
	return NewShipmentService(ledger, publisher, logger.NewNopLogger()), publisher
}

func createPayload(loadID string) *models.ShipmentCreate {
	pickup := time.Date(2025, 9, 11, 8, 0, 0, 0, time.UTC)

	return &models.ShipmentCreate{
		LoadID:           loadID,
		Origin:           "Madrid",
		Destination:      "Paris",
		PickupDatetime:   pickup,
		DeliveryDatetime: pickup.Add(24 * time.Hour),
	}
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func agreedPatch(price float64) *models.ShipmentPatch {
	agreed := models.StatusAgreed
	return &models.ShipmentPatch{
		Status:             &agreed,
		AgreedPrice:        &price,
		CarrierDescription: strPtr("Acme Trucking"),
	}
}

func TestCreateStampsProvenance(t *testing.T) {
	svc, publisher := newTestService()
	ctx := context.Background()

	viaAPI, err := svc.Create(ctx, createPayload("LD-1"), true)
	require.NoError(t, err)
	assert.True(t, viaAPI.AssignedViaURL)

	imported, err := svc.Create(ctx, createPayload("LD-2"), false)
	require.NoError(t, err)
	assert.False(t, imported.AssignedViaURL)

	assert.Equal(t, []string{events.TypeLoadCreated, events.TypeLoadCreated}, publisher.types())
}

func TestUpdateRestampsProvenanceEachWrite(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, createPayload("LD-1"), true)
	require.NoError(t, err)
	require.True(t, created.AssignedViaURL)

	// A manual-path update flips the flag even with an empty patch
	updated, err := svc.Update(ctx, created.ID, &models.ShipmentPatch{}, false)
	require.NoError(t, err)
	assert.False(t, updated.AssignedViaURL)

	// And the automated path flips it back
	updated, err = svc.Update(ctx, created.ID, &models.ShipmentPatch{}, true)
	require.NoError(t, err)
	assert.True(t, updated.AssignedViaURL)
}

func TestUpdateCopiesExplicitCallTimeIntoAverage(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, createPayload("LD-1"), true)
	require.NoError(t, err)

	patch := agreedPatch(1500)
	patch.TimePerCallSeconds = floatPtr(87)

	updated, err := svc.Update(ctx, created.ID, patch, true)
	require.NoError(t, err)

	require.NotNil(t, updated.TimePerCallSeconds)
	require.NotNil(t, updated.AvgTimePerCallSeconds)
	assert.Equal(t, 87.0, *updated.TimePerCallSeconds)
	assert.Equal(t, 87.0, *updated.AvgTimePerCallSeconds)
}

func TestUpdateBackfillsAgentDefaultOnAgreement(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, createPayload("LD-1"), true)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, agreedPatch(1500), true)
	require.NoError(t, err)

	require.NotNil(t, updated.AvgTimePerCallSeconds)
	assert.Equal(t, DefaultAgentCallSeconds, *updated.AvgTimePerCallSeconds)
	assert.Nil(t, updated.TimePerCallSeconds)
}

func TestUpdateBackfillsManualDefaultOnAgreement(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, createPayload("LD-1"), false)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, agreedPatch(1500), false)
	require.NoError(t, err)

	require.NotNil(t, updated.AvgTimePerCallSeconds)
	assert.Equal(t, DefaultManualCallSeconds, *updated.AvgTimePerCallSeconds)
}

func TestUpdateKeepsExistingAverageOnAgreement(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	payload := createPayload("LD-1")
	payload.AvgTimePerCallSeconds = floatPtr(42)

	created, err := svc.Create(ctx, payload, true)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, agreedPatch(1500), true)
	require.NoError(t, err)

	require.NotNil(t, updated.AvgTimePerCallSeconds)
	assert.Equal(t, 42.0, *updated.AvgTimePerCallSeconds)
}

func TestUpdateAlreadyAgreedDoesNotBackfill(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	payload := createPayload("LD-1")
	payload.Status = models.StatusAgreed
	payload.AgreedPrice = floatPtr(1500)
	payload.CarrierDescription = strPtr("Acme Trucking")

	created, err := svc.Create(ctx, payload, true)
	require.NoError(t, err)
	require.Nil(t, created.AvgTimePerCallSeconds)

	updated, err := svc.Update(ctx, created.ID, &models.ShipmentPatch{Notes: strPtr("follow up")}, true)
	require.NoError(t, err)
	assert.Nil(t, updated.AvgTimePerCallSeconds)
}

func TestUpdateRejectsInvalidMergeResult(t *testing.T) {
	svc, publisher := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, createPayload("LD-1"), true)
	require.NoError(t, err)

	agreed := models.StatusAgreed
	_, err = svc.Update(ctx, created.ID, &models.ShipmentPatch{Status: &agreed}, true)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	// Nothing committed, nothing announced
	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.NotContains(t, publisher.types(), events.TypeLoadUpdated)
}

func TestDeleteResolvesLoadCodeAndPublishes(t *testing.T) {
	svc, publisher := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, createPayload("LD-1"), true)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "LD-1"))

	_, err = svc.Get(ctx, "LD-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, publisher.types(), events.TypeLoadDeleted)

	assert.ErrorIs(t, svc.Delete(ctx, "LD-1"), apperrors.ErrNotFound)
}

func TestListAppliesFiltersAndStats(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, createPayload("LD-1"), true)
	require.NoError(t, err)

	second, err := svc.Create(ctx, createPayload("LD-2"), false)
	require.NoError(t, err)

	_, err = svc.Update(ctx, second.ID, agreedPatch(2000), false)
	require.NoError(t, err)

	pending := models.StatusPending
	listed, err := svc.List(ctx, &models.ShipmentFilters{Status: &pending})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "LD-1", listed[0].LoadID)

	summary, err := svc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Manual.Count)
	assert.Equal(t, 2000.0, summary.Manual.TotalAgreedPrice)
	assert.Equal(t, 0, summary.URLAPI.Count)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
