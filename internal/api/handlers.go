package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	apperrors "github.com/freightops/load-ledger-api/pkg/errors"
)

// ApiResponse is the JSON envelope for every response
type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Health represents the health check response
type Health struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// healthCheckHandler handles the health check endpoint
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	health := Health{
		Status:    "healthy",
		Version:   "1.0.0",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    health,
	})
}

// debugHandler reports the ledger state and seed file availability
func (s *Server) debugHandler(w http.ResponseWriter, r *http.Request) {
	shipments, err := s.shipments.List(r.Context(), nil)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	seedPath := s.config.SeedDataPath
	csvPath := strings.TrimSuffix(seedPath, ".xlsx") + ".csv"

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]interface{}{
			"shipments_count": len(shipments),
			"shipments":       shipments,
			"data_files": map[string]bool{
				"csv_exists":   fileExists(csvPath),
				"excel_exists": fileExists(seedPath),
			},
		},
	})
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// respondWithAppError maps a domain error onto its HTTP status
func (s *Server) respondWithAppError(w http.ResponseWriter, err error) {
	s.respondWithError(w, apperrors.StatusCode(err), err.Error())
}

// respondWithError sends a JSON response with an error message
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, ApiResponse{
		Success: false,
		Error:   message,
	})
}

// respondWithJSON sends a JSON response
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)

	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
