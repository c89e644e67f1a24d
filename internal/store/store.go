package store

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/freightops/load-ledger-api/internal/models"
	"github.com/freightops/load-ledger-api/pkg/errors"
	"github.com/freightops/load-ledger-api/pkg/logger"
)

// LedgerStore is the sole owner of all shipment and call state. It holds the
// authoritative id → Shipment map plus the per-shipment call lists, guarded
// by a single RWMutex so that uniqueness checks, merges and validations are
// atomic with respect to every other mutation. All state is process-lifetime
// only; nothing is persisted.
type LedgerStore struct {
	mu        sync.RWMutex
	shipments map[string]*models.Shipment
	calls     map[string][]*models.Call
	order     []string // insertion order of shipment ids, for stable listings
	logger    logger.Logger
}

// NewLedgerStore creates an empty ledger
func NewLedgerStore(logger logger.Logger) *LedgerStore {
	return &LedgerStore{
		shipments: make(map[string]*models.Shipment),
		calls:     make(map[string][]*models.Call),
		logger:    logger,
	}
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// resolve maps a caller-supplied identifier to the internal id: a direct id
// hit wins, otherwise a linear scan over load codes. Callers must hold at
// least the read lock.
func (s *LedgerStore) resolve(identifier string) (string, error) {
	if _, ok := s.shipments[identifier]; ok {
		return identifier, nil
	}

	for id, sh := range s.shipments {
		if sh.LoadID == identifier {
			return id, nil
		}
	}

	return "", errors.NewNotFoundError(fmt.Sprintf("shipment %q not found", identifier))
}

// Resolve maps an internal id or human-readable load code to the internal id
func (s *LedgerStore) Resolve(ctx context.Context, identifier string) (string, error) {
	if err := ctxErr(ctx); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.resolve(identifier)
}

// Create inserts a validated shipment, failing with Conflict when the load
// code already belongs to a live record. The uniqueness check and the insert
// happen under one write lock.
func (s *LedgerStore) Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	if err := shipment.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.shipments {
		if existing.LoadID == shipment.LoadID {
			return nil, errors.NewConflictError(fmt.Sprintf("load ID %q already exists", shipment.LoadID))
		}
	}

	s.shipments[shipment.ID] = shipment.Clone()
	s.order = append(s.order, shipment.ID)

	s.logger.Info("Created shipment", "shipmentID", shipment.ID, "loadID", shipment.LoadID)
	return shipment.Clone(), nil
}

// Get returns a copy of the shipment for the given identifier
func (s *LedgerStore) Get(ctx context.Context, identifier string) (*models.Shipment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := s.resolve(identifier)

	if err != nil {
		return nil, err
	}

	return s.shipments[id].Clone(), nil
}

// Update applies fn to a copy of the resolved shipment under the write lock,
// re-validates the merged result and commits it atomically. fn receives the
// working copy and returns an error to abort the update.
func (s *LedgerStore) Update(ctx context.Context, identifier string, fn func(*models.Shipment) error) (*models.Shipment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.resolve(identifier)

	if err != nil {
		return nil, err
	}

	merged := s.shipments[id].Clone()

	if err := fn(merged); err != nil {
		return nil, err
	}

	// A patch may rename the load code; the new code must not collide with
	// any other live record.
	for otherID, other := range s.shipments {
		if otherID != id && other.LoadID == merged.LoadID {
			return nil, errors.NewConflictError(fmt.Sprintf("load ID %q already exists", merged.LoadID))
		}
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}

	merged.UpdatedAt = models.GetCurrentTime()
	s.shipments[id] = merged

	s.logger.Info("Updated shipment", "shipmentID", id)
	return merged.Clone(), nil
}

// Delete removes the shipment and cascades removal of its owned calls
func (s *LedgerStore) Delete(ctx context.Context, identifier string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.resolve(identifier)

	if err != nil {
		return err
	}

	delete(s.shipments, id)
	delete(s.calls, id)

	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.logger.Info("Deleted shipment", "shipmentID", id)
	return nil
}

// Snapshot returns copies of all shipments in insertion order
func (s *LedgerStore) Snapshot(ctx context.Context) ([]*models.Shipment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Shipment, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.shipments[id].Clone())
	}

	return result, nil
}

// Count returns the number of live shipments
func (s *LedgerStore) Count(ctx context.Context) (int, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.shipments), nil
}

// RandomPending returns a uniformly random pending shipment, optionally
// restricted to origins containing the given substring (case-insensitive)
func (s *LedgerStore) RandomPending(ctx context.Context, origin string) (*models.Shipment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []*models.Shipment
	for _, id := range s.order {
		sh := s.shipments[id]
		if sh.Status != models.StatusPending {
			continue
		}
		if origin != "" && !strings.Contains(strings.ToLower(sh.Origin), strings.ToLower(origin)) {
			continue
		}
		candidates = append(candidates, sh)
	}

	if len(candidates) == 0 {
		return nil, errors.NewNotFoundError("no pending shipments available")
	}

	return candidates[rand.Intn(len(candidates))].Clone(), nil
}

// AddCall appends a call to the shipment's ledger, preserving insertion
// order, and refreshes the owner's update timestamp
func (s *LedgerStore) AddCall(ctx context.Context, identifier string, build func(shipmentID string) (*models.Call, error)) (*models.Call, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.resolve(identifier)

	if err != nil {
		return nil, err
	}

	call, err := build(id)

	if err != nil {
		return nil, err
	}

	s.calls[id] = append(s.calls[id], call)
	s.shipments[id].UpdatedAt = models.GetCurrentTime()

	s.logger.Info("Logged call", "shipmentID", id, "callID", call.ID, "callType", call.CallType)
	return cloneCall(call), nil
}

// ListCalls returns copies of the shipment's calls in insertion order
func (s *LedgerStore) ListCalls(ctx context.Context, identifier string) ([]*models.Call, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := s.resolve(identifier)

	if err != nil {
		return nil, err
	}

	calls := s.calls[id]
	result := make([]*models.Call, 0, len(calls))
	for _, c := range calls {
		result = append(result, cloneCall(c))
	}

	return result, nil
}

// ClearCalls removes every call owned by the shipment and refreshes its
// update timestamp. Clearing a shipment with no calls is a no-op, not an
// error.
func (s *LedgerStore) ClearCalls(ctx context.Context, identifier string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.resolve(identifier)

	if err != nil {
		return err
	}

	removed := len(s.calls[id])
	delete(s.calls, id)
	s.shipments[id].UpdatedAt = models.GetCurrentTime()

	s.logger.Info("Cleared calls", "shipmentID", id, "removed", removed)
	return nil
}

// AllCalls gathers every call across every shipment, annotated with the
// owner's load code, origin and destination, filtered conjunctively and
// ordered newest-created-first
func (s *LedgerStore) AllCalls(ctx context.Context, filters *models.CallFilters) ([]*models.Call, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Call
	for id, calls := range s.calls {
		owner := s.shipments[id]
		for _, c := range calls {
			if !filters.Match(c) {
				continue
			}
			annotated := cloneCall(c)
			annotated.LoadID = owner.LoadID
			annotated.Origin = owner.Origin
			annotated.Destination = owner.Destination
			result = append(result, annotated)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// CallsByShipment returns copies of every call list keyed by owning
// shipment id; used by the stats aggregator
func (s *LedgerStore) CallsByShipment(ctx context.Context) (map[string][]*models.Call, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]*models.Call, len(s.calls))
	for id, calls := range s.calls {
		copied := make([]*models.Call, 0, len(calls))
		for _, c := range calls {
			copied = append(copied, cloneCall(c))
		}
		result[id] = copied
	}

	return result, nil
}

func cloneCall(c *models.Call) *models.Call {
	clone := *c
	if c.CallID != nil {
		v := *c.CallID
		clone.CallID = &v
	}
	if c.Notes != nil {
		v := *c.Notes
		clone.Notes = &v
	}
	return &clone
}
