package service

import (
	"context"

	"github.com/freightops/load-ledger-api/internal/events"
	"github.com/freightops/load-ledger-api/internal/models"
	"github.com/freightops/load-ledger-api/internal/query"
	"github.com/freightops/load-ledger-api/internal/stats"
	"github.com/freightops/load-ledger-api/internal/store"
	"github.com/freightops/load-ledger-api/pkg/logger"
)

// Fallback averages assigned when a load transitions to agreed without a
// measured time_per_call_seconds. These are provisional business estimates
// carried over from historical reporting, not measured values: automated
// negotiations close faster than manual ones.
const (
	DefaultAgentCallSeconds  = 120.0
	DefaultManualCallSeconds = 300.0
)

// ShipmentService owns the business rules around the ledger: provenance
// stamping, handling-time defaults, query orchestration and stats.
type ShipmentService struct {
	store     *store.LedgerStore
	publisher events.Publisher
	logger    logger.Logger
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(store *store.LedgerStore, publisher events.Publisher, logger logger.Logger) *ShipmentService {
	return &ShipmentService{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Create creates a new load. viaURL records which entry point was used:
// true for the automated API path, false for bulk import.
func (s *ShipmentService) Create(ctx context.Context, in *models.ShipmentCreate, viaURL bool) (*models.Shipment, error) {
	shipment := models.NewShipment(in)
	shipment.AssignedViaURL = viaURL

	created, err := s.store.Create(ctx, shipment)

	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.TypeLoadCreated, created.ID, created)
	return created, nil
}

// Get retrieves a load by internal id or load code
func (s *ShipmentService) Get(ctx context.Context, identifier string) (*models.Shipment, error) {
	return s.store.Get(ctx, identifier)
}

// List returns the filtered, sorted view of the ledger
func (s *ShipmentService) List(ctx context.Context, filters *models.ShipmentFilters) ([]*models.Shipment, error) {
	snapshot, err := s.store.Snapshot(ctx)

	if err != nil {
		return nil, err
	}

	return query.Run(snapshot, filters), nil
}

// Update applies a partial update. Every update restamps the provenance
// flag for its entry point, regardless of the record's prior state. An
// explicit time_per_call_seconds is copied verbatim into the reporting
// average; otherwise a transition to agreed with no average yet backfills
// the path-dependent fallback.
func (s *ShipmentService) Update(ctx context.Context, identifier string, patch *models.ShipmentPatch, viaURL bool) (*models.Shipment, error) {
	updated, err := s.store.Update(ctx, identifier, func(sh *models.Shipment) error {
		wasAgreed := sh.Status == models.StatusAgreed

		patch.Apply(sh)
		sh.AssignedViaURL = viaURL

		if patch.TimePerCallSeconds != nil {
			v := *patch.TimePerCallSeconds
			sh.AvgTimePerCallSeconds = &v
		} else if !wasAgreed && sh.Status == models.StatusAgreed && sh.AvgTimePerCallSeconds == nil {
			fallback := DefaultManualCallSeconds
			if viaURL {
				fallback = DefaultAgentCallSeconds
			}
			sh.AvgTimePerCallSeconds = &fallback
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.TypeLoadUpdated, updated.ID, updated)
	return updated, nil
}

// Delete removes a load and its calls
func (s *ShipmentService) Delete(ctx context.Context, identifier string) error {
	shipment, err := s.store.Get(ctx, identifier)

	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, shipment.ID); err != nil {
		return err
	}

	s.publisher.Publish(events.TypeLoadDeleted, shipment.ID, nil)
	return nil
}

// RandomPending returns a uniformly random pending load, optionally
// filtered by origin substring
func (s *ShipmentService) RandomPending(ctx context.Context, origin string) (*models.Shipment, error) {
	return s.store.RandomPending(ctx, origin)
}

// Stats aggregates outcome metrics over the filtered ledger, split by
// assignment source and call type
func (s *ShipmentService) Stats(ctx context.Context, filters *models.ShipmentFilters) (*stats.Summary, error) {
	shipments, err := s.List(ctx, filters)

	if err != nil {
		return nil, err
	}

	calls, err := s.store.CallsByShipment(ctx)

	if err != nil {
		return nil, err
	}

	return stats.Aggregate(shipments, calls), nil
}

// Count returns the number of live loads
func (s *ShipmentService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
