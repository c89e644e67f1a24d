// Package seed imports historical load records from a spreadsheet file at
// startup. Imports go through the regular create path with the manual
// provenance, so seeded records count as manually assigned until something
// updates them.
package seed

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/freightops/load-ledger-api/internal/models"
	"github.com/freightops/load-ledger-api/internal/service"
	"github.com/freightops/load-ledger-api/pkg/logger"
	"github.com/xuri/excelize/v2"
)

var requiredColumns = []string{"load_id", "origin", "destination", "pickup_datetime", "delivery_datetime"}

// Loader imports seed shipments through the ShipmentService
type Loader struct {
	shipments *service.ShipmentService
	logger    logger.Logger
}

// NewLoader creates a new seed loader
func NewLoader(shipments *service.ShipmentService, logger logger.Logger) *Loader {
	return &Loader{
		shipments: shipments,
		logger:    logger,
	}
}

// Load reads seed data from path. A CSV file with the same base name is
// preferred over the Excel file when both exist; a missing file is not an
// error, just a skipped import. Returns the number of records imported.
func (l *Loader) Load(ctx context.Context, path string) (int, error) {
	csvPath := strings.TrimSuffix(path, ".xlsx") + ".csv"

	var rows [][]string
	var err error

	switch {
	case fileExists(csvPath):
		l.logger.Info("Loading seed data", "path", csvPath)
		rows, err = readCSV(csvPath)
	case fileExists(path):
		l.logger.Info("Loading seed data", "path", path)
		rows, err = readXLSX(path)
	default:
		l.logger.Info("Seed data file not found, skipping import", "path", path)
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	return l.importRows(ctx, rows)
}

func (l *Loader) importRows(ctx context.Context, rows [][]string) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, col := range requiredColumns {
		if _, ok := header[col]; !ok {
			return 0, fmt.Errorf("seed data missing required column %q", col)
		}
	}

	loaded := 0
	duplicates := 0
	seen := make(map[string]bool)

	for i, row := range rows[1:] {
		in, ok := l.buildCreate(header, row)
		if !ok {
			continue
		}

		// Collisions within the file or against live records get a
		// disambiguating suffix instead of failing the whole import.
		if seen[in.LoadID] {
			duplicates++
			renamed := fmt.Sprintf("%s-DUP%d", in.LoadID, duplicates)
			l.logger.Warn("Duplicate load ID in seed data, renamed", "loadID", in.LoadID, "renamed", renamed)
			in.LoadID = renamed
		}

		if _, err := l.shipments.Create(ctx, in, false); err != nil {
			l.logger.Warn("Skipping seed row", "row", i+2, "error", err)
			continue
		}

		seen[in.LoadID] = true
		loaded++
	}

	l.logger.Info("Seed import complete", "loaded", loaded, "duplicatesRenamed", duplicates)
	return loaded, nil
}

func (l *Loader) buildCreate(header map[string]int, row []string) (*models.ShipmentCreate, bool) {
	cell := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	in := &models.ShipmentCreate{
		LoadID:      cell("load_id"),
		Origin:      cell("origin"),
		Destination: cell("destination"),
		Status:      models.StatusPending,
	}

	if in.LoadID == "" || in.Origin == "" || in.Destination == "" {
		return nil, false
	}

	pickup, err := parseDatetime(cell("pickup_datetime"))

	if err != nil {
		l.logger.Warn("Could not parse pickup_datetime", "loadID", in.LoadID, "value", cell("pickup_datetime"))
		return nil, false
	}
	in.PickupDatetime = pickup

	// Older seed files used an "eta" column for the delivery time
	deliveryRaw := cell("delivery_datetime")
	if deliveryRaw == "" {
		deliveryRaw = cell("eta")
	}

	delivery, err := parseDatetime(deliveryRaw)

	if err != nil {
		l.logger.Warn("Could not parse delivery_datetime", "loadID", in.LoadID, "value", deliveryRaw)
		return nil, false
	}
	in.DeliveryDatetime = delivery

	if v := cell("equipment_type"); v != "" {
		in.EquipmentType = &v
	}
	if v := cell("notes"); v != "" {
		in.Notes = &v
	}
	if v := cell("commodity_type"); v != "" {
		in.CommodityType = &v
	}
	if v := cell("dimensions"); v != "" {
		in.Dimensions = &v
	}

	in.LoadboardRate = l.parseFloatCell(in.LoadID, "loadboard_rate", cell("loadboard_rate"))
	in.Weight = l.parseFloatCell(in.LoadID, "weight", cell("weight"))
	in.Miles = l.parseFloatCell(in.LoadID, "miles", cell("miles"))

	if v := cell("num_of_pieces"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			in.NumOfPieces = &n
		} else {
			l.logger.Warn("Could not parse num_of_pieces", "loadID", in.LoadID, "value", v)
		}
	}

	if v := strings.ToLower(cell("status")); v == string(models.StatusPending) || v == string(models.StatusAgreed) {
		in.Status = models.Status(v)
	}

	return in, true
}

func (l *Loader) parseFloatCell(loadID, field, raw string) *float64 {
	if raw == "" {
		return nil
	}

	v, err := strconv.ParseFloat(raw, 64)

	if err != nil {
		l.logger.Warn("Could not parse numeric seed field", "loadID", loadID, "field", field, "value", raw)
		return nil
	}

	return &v
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01-02-06 15:04", // excelize default datetime rendering
}

func parseDatetime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}

	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized datetime %q", raw)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()

	if err != nil {
		return nil, fmt.Errorf("failed to read seed csv: %w", err)
	}

	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)

	if err != nil {
		return nil, fmt.Errorf("failed to open seed workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("seed workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])

	if err != nil {
		return nil, fmt.Errorf("failed to read seed workbook: %w", err)
	}

	return rows, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
