package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/freightops/load-ledger-api/internal/models"
	apperrors "github.com/freightops/load-ledger-api/pkg/errors"
	"github.com/gorilla/mux"
)

// getShipmentsHandler lists loads with optional filtering and sorting
func (s *Server) getShipmentsHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := parseShipmentFilters(r)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	shipments, err := s.shipments.List(r.Context(), filters)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: shipments})
}

// createShipmentHandler creates a new load via the automated API path
func (s *Server) createShipmentHandler(w http.ResponseWriter, r *http.Request) {
	var in models.ShipmentCreate
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&in); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	shipment, err := s.shipments.Create(r.Context(), &in, true)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: shipment})
}

// getShipmentHandler returns a load by internal id or load code
func (s *Server) getShipmentHandler(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	shipment, err := s.shipments.Get(r.Context(), identifier)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: shipment})
}

// updateShipmentHandler applies a partial update via the automated API path
func (s *Server) updateShipmentHandler(w http.ResponseWriter, r *http.Request) {
	s.patchShipment(w, r, true)
}

// updateShipmentManualHandler applies a partial update via the manual
// dashboard path
func (s *Server) updateShipmentManualHandler(w http.ResponseWriter, r *http.Request) {
	s.patchShipment(w, r, false)
}

func (s *Server) patchShipment(w http.ResponseWriter, r *http.Request, viaURL bool) {
	identifier := mux.Vars(r)["identifier"]

	var patch models.ShipmentPatch
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&patch); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	shipment, err := s.shipments.Update(r.Context(), identifier, &patch, viaURL)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: shipment})
}

// deleteShipmentHandler removes a load and its calls
func (s *Server) deleteShipmentHandler(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	if err := s.shipments.Delete(r.Context(), identifier); err != nil {
		s.respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getRandomShipmentHandler returns a uniformly random pending load
func (s *Server) getRandomShipmentHandler(w http.ResponseWriter, r *http.Request) {
	origin := r.URL.Query().Get("origin")

	shipment, err := s.shipments.RandomPending(r.Context(), origin)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: shipment})
}

// getStatsHandler aggregates outcome metrics over the filtered ledger
func (s *Server) getStatsHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := parseShipmentFilters(r)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	summary, err := s.shipments.Stats(r.Context(), filters)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, summary)
}

// getCarrierHandler verifies a carrier against the FMCSA registry
func (s *Server) getCarrierHandler(w http.ResponseWriter, r *http.Request) {
	docket := mux.Vars(r)["docket"]

	carrier, err := s.fmcsa.SearchByDocket(r.Context(), docket)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: carrier})
}

func parseShipmentFilters(r *http.Request) (*models.ShipmentFilters, error) {
	q := r.URL.Query()
	filters := &models.ShipmentFilters{
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}

	if v := q.Get("status"); v != "" {
		status := models.Status(v)
		if !models.ValidStatus(status) {
			return nil, apperrors.NewValidationError("status", v, "status must be pending or agreed")
		}
		filters.Status = &status
	}

	if v := q.Get("assigned_via_url"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, apperrors.NewValidationError("assigned_via_url", v, "assigned_via_url must be a boolean")
		}
		filters.AssignedViaURL = &b
	}

	if v := q.Get("equipment_type"); v != "" {
		filters.EquipmentType = &v
	}
	if v := q.Get("commodity_type"); v != "" {
		filters.CommodityType = &v
	}
	if v := q.Get("origin"); v != "" {
		filters.Origin = &v
	}
	if v := q.Get("destination"); v != "" {
		filters.Destination = &v
	}
	if v := q.Get("q"); v != "" {
		filters.Q = &v
	}

	var err error

	if filters.PickupFrom, err = parseTimeParam(q.Get("pickup_from"), "pickup_from"); err != nil {
		return nil, err
	}
	if filters.PickupTo, err = parseTimeParam(q.Get("pickup_to"), "pickup_to"); err != nil {
		return nil, err
	}
	if filters.DeliveryFrom, err = parseTimeParam(q.Get("delivery_from"), "delivery_from"); err != nil {
		return nil, err
	}
	if filters.DeliveryTo, err = parseTimeParam(q.Get("delivery_to"), "delivery_to"); err != nil {
		return nil, err
	}

	return filters, nil
}

func parseTimeParam(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)

	if err != nil {
		return nil, apperrors.NewValidationError(field, raw, "must be an RFC 3339 datetime")
	}

	return &t, nil
}
