package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/freightops/load-ledger-api/internal/events"
	"github.com/freightops/load-ledger-api/internal/models"
	"github.com/freightops/load-ledger-api/internal/service"
	"github.com/freightops/load-ledger-api/internal/store"
	"github.com/freightops/load-ledger-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*Loader, *service.ShipmentService) {
	t.Helper()

	ledger := store.NewLedgerStore(logger.NewNopLogger())
	shipments := service.NewShipmentService(ledger, events.NopPublisher{}, logger.NewNopLogger())

	return NewLoader(shipments, logger.NewNopLogger()), shipments
}

func writeSeedCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "seed_shipments.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// Load is called with the xlsx path and prefers the csv sibling
	return filepath.Join(filepath.Dir(path), "seed_shipments.xlsx")
}

func TestLoadImportsCSVRows(t *testing.T) {
	loader, shipments := newFixture(t)

	path := writeSeedCSV(t, `load_id,origin,destination,pickup_datetime,delivery_datetime,loadboard_rate,miles,equipment_type
LD-100,Madrid,Paris,2025-09-11T08:00:00Z,2025-09-12T08:00:00Z,1800,1100,Dry Van
LD-101,Austin,Chicago,2025-09-11 08:00:00,2025-09-13 08:00:00,2000,,
`)

	loaded, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	ctx := context.Background()

	first, err := shipments.Get(ctx, "LD-100")
	require.NoError(t, err)
	assert.Equal(t, "Madrid", first.Origin)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.False(t, first.AssignedViaURL)
	require.NotNil(t, first.LoadboardRate)
	assert.Equal(t, 1800.0, *first.LoadboardRate)
	require.NotNil(t, first.EquipmentType)
	assert.Equal(t, "Dry Van", *first.EquipmentType)

	second, err := shipments.Get(ctx, "LD-101")
	require.NoError(t, err)
	assert.Nil(t, second.Miles)
	assert.Nil(t, second.EquipmentType)
}

func TestLoadRenamesDuplicateLoadIDs(t *testing.T) {
	loader, shipments := newFixture(t)

	path := writeSeedCSV(t, `load_id,origin,destination,pickup_datetime,delivery_datetime
LD-100,Madrid,Paris,2025-09-11T08:00:00Z,2025-09-12T08:00:00Z
LD-100,Austin,Chicago,2025-09-11T08:00:00Z,2025-09-12T08:00:00Z
LD-100,Boise,Denver,2025-09-11T08:00:00Z,2025-09-12T08:00:00Z
`)

	loaded, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded)

	ctx := context.Background()

	original, err := shipments.Get(ctx, "LD-100")
	require.NoError(t, err)
	assert.Equal(t, "Madrid", original.Origin)

	renamed, err := shipments.Get(ctx, "LD-100-DUP1")
	require.NoError(t, err)
	assert.Equal(t, "Austin", renamed.Origin)

	_, err = shipments.Get(ctx, "LD-100-DUP2")
	assert.NoError(t, err)
}

func TestLoadSkipsBrokenRows(t *testing.T) {
	loader, _ := newFixture(t)

	path := writeSeedCSV(t, `load_id,origin,destination,pickup_datetime,delivery_datetime
LD-100,Madrid,Paris,2025-09-11T08:00:00Z,2025-09-12T08:00:00Z
,Austin,Chicago,2025-09-11T08:00:00Z,2025-09-12T08:00:00Z
LD-102,Boise,Denver,not-a-date,2025-09-12T08:00:00Z
`)

	loaded, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)
}

func TestLoadUsesEtaFallbackColumn(t *testing.T) {
	loader, shipments := newFixture(t)

	path := writeSeedCSV(t, `load_id,origin,destination,pickup_datetime,delivery_datetime,eta
LD-100,Madrid,Paris,2025-09-11T08:00:00Z,,2025-09-12T08:00:00Z
`)

	loaded, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	s, err := shipments.Get(context.Background(), "LD-100")
	require.NoError(t, err)
	assert.Equal(t, 12, s.DeliveryDatetime.Day())
}

func TestLoadMissingFileIsSkipped(t *testing.T) {
	loader, _ := newFixture(t)

	loaded, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "absent.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, 0, loaded)
}

func TestLoadRejectsMissingRequiredColumns(t *testing.T) {
	loader, _ := newFixture(t)

	path := writeSeedCSV(t, `load_id,origin
LD-100,Madrid
`)

	_, err := loader.Load(context.Background(), path)
	assert.Error(t, err)
}
