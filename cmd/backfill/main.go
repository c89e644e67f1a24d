// Backfill stamps the assignment source on historical records that predate
// provenance tracking. It talks to a running API instance through the same
// update contract the dashboards use, so the store needs no special cases.
// The heuristic is a best guess for legacy data, not an audit trail.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/freightops/load-ledger-api/internal/models"
	"github.com/go-resty/resty/v2"
)

var (
	baseURL string
	apiKey  string
	dryRun  bool
)

func init() {
	flag.StringVar(&baseURL, "base-url", "http://localhost:8000", "Base URL of the load ledger API")
	flag.StringVar(&apiKey, "api-key", "", "API key for the load ledger API")
	flag.BoolVar(&dryRun, "dry-run", false, "Report what would change without updating anything")
}

func main() {
	flag.Parse()

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("X-API-Key", apiKey)

	var listResp struct {
		Success bool               `json:"success"`
		Data    []*models.Shipment `json:"data"`
		Error   string             `json:"error"`
	}

	resp, err := client.R().SetResult(&listResp).Get("/shipments")

	if err != nil {
		log.Fatalf("Failed to list shipments: %v", err)
	}

	if resp.IsError() || !listResp.Success {
		log.Fatalf("Failed to list shipments: %d %s", resp.StatusCode(), listResp.Error)
	}

	updated := 0
	viaURL := 0

	for _, shipment := range listResp.Data {
		assignedViaURL := determineAssignmentSource(shipment)

		if assignedViaURL {
			viaURL++
		}

		if dryRun {
			fmt.Printf("would set %s (%s) assigned_via_url=%v\n", shipment.LoadID, shipment.ID, assignedViaURL)
			continue
		}

		// The automated and manual entry points each stamp their own
		// provenance, so the right endpoint carries the flag for us.
		endpoint := fmt.Sprintf("/shipments/%s/manual", shipment.ID)
		if assignedViaURL {
			endpoint = fmt.Sprintf("/shipments/%s", shipment.ID)
		}

		patchResp, err := client.R().
			SetBody(map[string]interface{}{}).
			Patch(endpoint)

		if err != nil {
			log.Printf("Failed to update %s: %v", shipment.ID, err)
			continue
		}

		if patchResp.IsError() {
			log.Printf("Failed to update %s: %d", shipment.ID, patchResp.StatusCode())
			continue
		}

		updated++
	}

	if dryRun {
		fmt.Printf("dry run: %d shipments inspected, %d would be marked as URL/API assignments\n",
			len(listResp.Data), viaURL)
		return
	}

	fmt.Printf("backfill complete: %d of %d shipments updated, %d marked as URL/API assignments\n",
		updated, len(listResp.Data), viaURL)
}

// determineAssignmentSource guesses whether a legacy record was assigned
// through the API or manually. API-looking load ids, automation-flavoured
// carrier descriptions and recent creation all point at the API path;
// everything else defaults to manual.
func determineAssignmentSource(s *models.Shipment) bool {
	upper := strings.ToUpper(s.LoadID)
	if strings.HasPrefix(upper, "API-") || strings.Contains(upper, "API") {
		return true
	}

	if s.CarrierDescription != nil {
		desc := strings.ToUpper(*s.CarrierDescription)
		for _, indicator := range []string{"BOT", "AUTO", "SYSTEM", "API"} {
			if strings.Contains(desc, indicator) {
				return true
			}
		}
	}

	if time.Since(s.CreatedAt) < 30*24*time.Hour {
		return true
	}

	return false
}
