package service

import (
	"context"

	"github.com/freightops/load-ledger-api/internal/events"
	"github.com/freightops/load-ledger-api/internal/models"
	"github.com/freightops/load-ledger-api/internal/store"
	"github.com/freightops/load-ledger-api/pkg/logger"
)

// CallService manages the negotiation call ledger attached to loads
type CallService struct {
	store     *store.LedgerStore
	publisher events.Publisher
	logger    logger.Logger
}

// NewCallService creates a new CallService
func NewCallService(store *store.LedgerStore, publisher events.Publisher, logger logger.Logger) *CallService {
	return &CallService{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Append coerces, validates and appends a call to the identified load
func (s *CallService) Append(ctx context.Context, identifier string, in *models.CallInput) (*models.Call, error) {
	call, err := s.store.AddCall(ctx, identifier, func(shipmentID string) (*models.Call, error) {
		return models.NewCall(shipmentID, in)
	})

	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.TypeCallLogged, call.ShipmentID, call)
	return call, nil
}

// List returns the load's calls in insertion order
func (s *CallService) List(ctx context.Context, identifier string) ([]*models.Call, error) {
	return s.store.ListCalls(ctx, identifier)
}

// ClearAll removes every call owned by the load
func (s *CallService) ClearAll(ctx context.Context, identifier string) error {
	return s.store.ClearCalls(ctx, identifier)
}

// ListAll gathers calls across every load, annotated with owner details,
// filtered and ordered newest-created-first
func (s *CallService) ListAll(ctx context.Context, filters *models.CallFilters) ([]*models.Call, error) {
	return s.store.AllCalls(ctx, filters)
}
