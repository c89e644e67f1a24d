// Package query implements the pure filter/sort engine over shipment
// snapshots. It never mutates the store or the records it is given.
package query

import (
	"sort"
	"strings"

	"github.com/freightops/load-ledger-api/internal/models"
)

// Run filters and sorts a shipment snapshot according to the supplied
// parameters. Filters are conjunctive; sorting is stable so records with
// equal keys keep their insertion order.
func Run(shipments []*models.Shipment, filters *models.ShipmentFilters) []*models.Shipment {
	result := filter(shipments, filters)

	sortBy := ""
	sortOrder := ""
	if filters != nil {
		sortBy = filters.SortBy
		sortOrder = filters.SortOrder
	}

	sortShipments(result, sortBy, sortOrder)
	return result
}

func filter(shipments []*models.Shipment, f *models.ShipmentFilters) []*models.Shipment {
	result := make([]*models.Shipment, 0, len(shipments))

	for _, s := range shipments {
		if matches(s, f) {
			result = append(result, s)
		}
	}

	return result
}

func matches(s *models.Shipment, f *models.ShipmentFilters) bool {
	if f == nil {
		return true
	}

	if f.Status != nil && s.Status != *f.Status {
		return false
	}

	if f.AssignedViaURL != nil && s.AssignedViaURL != *f.AssignedViaURL {
		return false
	}

	if f.EquipmentType != nil && !containsFold(deref(s.EquipmentType), *f.EquipmentType) {
		return false
	}

	if f.CommodityType != nil && !containsFold(deref(s.CommodityType), *f.CommodityType) {
		return false
	}

	if f.Origin != nil && !containsFold(s.Origin, *f.Origin) {
		return false
	}

	if f.Destination != nil && !containsFold(s.Destination, *f.Destination) {
		return false
	}

	if f.PickupFrom != nil && s.PickupDatetime.Before(*f.PickupFrom) {
		return false
	}

	if f.PickupTo != nil && s.PickupDatetime.After(*f.PickupTo) {
		return false
	}

	if f.DeliveryFrom != nil && s.DeliveryDatetime.Before(*f.DeliveryFrom) {
		return false
	}

	if f.DeliveryTo != nil && s.DeliveryDatetime.After(*f.DeliveryTo) {
		return false
	}

	if f.Q != nil && !textMatch(s, *f.Q) {
		return false
	}

	return true
}

// textMatch is the free-text search: the record is included when any of
// load_id, origin, destination, commodity_type or notes contains q
func textMatch(s *models.Shipment, q string) bool {
	return containsFold(s.LoadID, q) ||
		containsFold(s.Origin, q) ||
		containsFold(s.Destination, q) ||
		containsFold(deref(s.CommodityType), q) ||
		containsFold(deref(s.Notes), q)
}

func containsFold(haystack, needle string) bool {
	if haystack == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func sortShipments(shipments []*models.Shipment, sortBy, sortOrder string) {
	desc := strings.ToLower(sortOrder) != "asc"

	var less func(a, b *models.Shipment) bool

	switch sortBy {
	case "pickup_datetime":
		less = func(a, b *models.Shipment) bool { return a.PickupDatetime.Before(b.PickupDatetime) }
	case "delivery_datetime":
		less = func(a, b *models.Shipment) bool { return a.DeliveryDatetime.Before(b.DeliveryDatetime) }
	case "loadboard_rate":
		less = func(a, b *models.Shipment) bool { return numOrZero(a.LoadboardRate) < numOrZero(b.LoadboardRate) }
	case "miles":
		less = func(a, b *models.Shipment) bool { return numOrZero(a.Miles) < numOrZero(b.Miles) }
	default:
		// Unrecognized sort keys fall back to creation time
		less = func(a, b *models.Shipment) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}

	sort.SliceStable(shipments, func(i, j int) bool {
		if desc {
			return less(shipments[j], shipments[i])
		}
		return less(shipments[i], shipments[j])
	})
}

func numOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
