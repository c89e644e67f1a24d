package models

import "time"

// ShipmentFilters are the optional, conjunctive query parameters for load
// listings. A record must satisfy every supplied filter to be included.
type ShipmentFilters struct {
	Status         *Status
	AssignedViaURL *bool

	EquipmentType *string
	CommodityType *string
	Origin        *string
	Destination   *string

	PickupFrom   *time.Time
	PickupTo     *time.Time
	DeliveryFrom *time.Time
	DeliveryTo   *time.Time

	// Q is a free-text search over load_id, origin, destination,
	// commodity_type and notes; a record matches if any field matches.
	Q *string

	SortBy    string
	SortOrder string
}
