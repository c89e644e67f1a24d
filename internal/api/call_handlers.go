package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/freightops/load-ledger-api/internal/models"
	apperrors "github.com/freightops/load-ledger-api/pkg/errors"
	"github.com/gorilla/mux"
)

// addCallHandler logs a negotiation call against a load
func (s *Server) addCallHandler(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	var in models.CallInput
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&in); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	call, err := s.calls.Append(r.Context(), identifier, &in)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: call})
}

// getCallsHandler lists a load's calls in insertion order
func (s *Server) getCallsHandler(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	calls, err := s.calls.List(r.Context(), identifier)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: calls})
}

// clearCallsHandler removes every call owned by a load
func (s *Server) clearCallsHandler(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	if err := s.calls.ClearAll(r.Context(), identifier); err != nil {
		s.respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getAllCallsHandler lists calls across all loads, newest first
func (s *Server) getAllCallsHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := parseCallFilters(r)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	calls, err := s.calls.ListAll(r.Context(), filters)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: calls})
}

func parseCallFilters(r *http.Request) (*models.CallFilters, error) {
	q := r.URL.Query()
	filters := &models.CallFilters{}

	if v := q.Get("call_type"); v != "" {
		callType := models.CallType(v)
		if callType != models.CallTypeManual && callType != models.CallTypeAgent {
			return nil, apperrors.NewValidationError("call_type", v, "call_type must be manual or agent")
		}
		filters.CallType = &callType
	}

	if v := q.Get("agreed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, apperrors.NewValidationError("agreed", v, "agreed must be a boolean")
		}
		filters.Agreed = &b
	}

	if v := q.Get("sentiment"); v != "" {
		sentiment := models.Sentiment(v)
		if sentiment != models.SentimentPositive && sentiment != models.SentimentNeutral && sentiment != models.SentimentNegative {
			return nil, apperrors.NewValidationError("sentiment", v, "sentiment must be positive, neutral or negative")
		}
		filters.Sentiment = &sentiment
	}

	return filters, nil
}
