package models

import (
	"strings"
	"time"

	"github.com/freightops/load-ledger-api/pkg/errors"
)

// Status represents the lifecycle state of a load
type Status string

const (
	StatusPending Status = "pending"
	StatusAgreed  Status = "agreed"
)

// ValidStatus reports whether s is one of the known load statuses
func ValidStatus(s Status) bool {
	return s == StatusPending || s == StatusAgreed
}

// Shipment represents one load to be transported, together with its
// negotiation bookkeeping. ID is the internal identity; LoadID is the
// human-readable code operators use (unique across live records).
type Shipment struct {
	ID     string `json:"id"`
	LoadID string `json:"load_id"`

	Origin           string    `json:"origin"`
	Destination      string    `json:"destination"`
	PickupDatetime   time.Time `json:"pickup_datetime"`
	DeliveryDatetime time.Time `json:"delivery_datetime"`

	EquipmentType *string  `json:"equipment_type"`
	LoadboardRate *float64 `json:"loadboard_rate"`
	Notes         *string  `json:"notes"`
	Weight        *float64 `json:"weight"`
	CommodityType *string  `json:"commodity_type"`
	NumOfPieces   *int     `json:"num_of_pieces"`
	Miles         *float64 `json:"miles"`
	Dimensions    *string  `json:"dimensions"`

	Status             Status   `json:"status"`
	AgreedPrice        *float64 `json:"agreed_price"`
	CarrierDescription *string  `json:"carrier_description"`

	// AssignedViaURL records whether the most recent create/update came
	// through the automated API path (true) or the manual path (false).
	AssignedViaURL bool `json:"assigned_via_url"`

	// TimePerCallSeconds is the manually entered handling time.
	// AvgTimePerCallSeconds is the reporting value derived from it; when no
	// measurement exists it may hold a provisional path-dependent default.
	TimePerCallSeconds    *float64 `json:"time_per_call_seconds"`
	AvgTimePerCallSeconds *float64 `json:"avg_time_per_call_seconds"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewShipment builds a shipment from a create payload, generating the
// internal id and stamping identical creation/update timestamps.
func NewShipment(in *ShipmentCreate) *Shipment {
	now := GetCurrentTime()

	s := &Shipment{
		ID:                    GenerateID("shp"),
		LoadID:                in.LoadID,
		Origin:                in.Origin,
		Destination:           in.Destination,
		PickupDatetime:        in.PickupDatetime,
		DeliveryDatetime:      in.DeliveryDatetime,
		EquipmentType:         in.EquipmentType,
		LoadboardRate:         in.LoadboardRate,
		Notes:                 in.Notes,
		Weight:                in.Weight,
		CommodityType:         in.CommodityType,
		NumOfPieces:           in.NumOfPieces,
		Miles:                 in.Miles,
		Dimensions:            in.Dimensions,
		Status:                in.Status,
		AgreedPrice:           in.AgreedPrice,
		CarrierDescription:    in.CarrierDescription,
		TimePerCallSeconds:    in.TimePerCallSeconds,
		AvgTimePerCallSeconds: in.AvgTimePerCallSeconds,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if s.Status == "" {
		s.Status = StatusPending
	}

	return s
}

// Validate re-checks the shipment's invariants. It is run on create and
// again after every merge so a partial update cannot leave the record in an
// inconsistent state.
func (s *Shipment) Validate() error {
	if strings.TrimSpace(s.LoadID) == "" {
		return errors.NewValidationError("load_id", s.LoadID, "load_id is required")
	}

	if strings.TrimSpace(s.Origin) == "" {
		return errors.NewValidationError("origin", s.Origin, "origin is required")
	}

	if strings.TrimSpace(s.Destination) == "" {
		return errors.NewValidationError("destination", s.Destination, "destination is required")
	}

	if !ValidStatus(s.Status) {
		return errors.NewValidationError("status", s.Status, "status must be pending or agreed")
	}

	if !s.DeliveryDatetime.After(s.PickupDatetime) {
		return errors.NewValidationError("delivery_datetime", s.DeliveryDatetime,
			"delivery_datetime must be after pickup_datetime")
	}

	if s.Status == StatusAgreed {
		if s.AgreedPrice == nil {
			return errors.NewValidationError("agreed_price", nil,
				"agreed_price is required when status is agreed")
		}
		if s.CarrierDescription == nil || strings.TrimSpace(*s.CarrierDescription) == "" {
			return errors.NewValidationError("carrier_description", s.CarrierDescription,
				"carrier_description is required when status is agreed")
		}
	}

	if s.LoadboardRate != nil && *s.LoadboardRate < 0 {
		return errors.NewValidationError("loadboard_rate", *s.LoadboardRate, "loadboard_rate must be non-negative")
	}

	if s.AgreedPrice != nil && *s.AgreedPrice < 0 {
		return errors.NewValidationError("agreed_price", *s.AgreedPrice, "agreed_price must be non-negative")
	}

	if s.TimePerCallSeconds != nil && *s.TimePerCallSeconds < 0 {
		return errors.NewValidationError("time_per_call_seconds", *s.TimePerCallSeconds,
			"time_per_call_seconds must be non-negative")
	}

	return nil
}

// Clone returns a deep copy so callers never hold a pointer into the store
func (s *Shipment) Clone() *Shipment {
	c := *s
	c.EquipmentType = clonePtr(s.EquipmentType)
	c.LoadboardRate = clonePtr(s.LoadboardRate)
	c.Notes = clonePtr(s.Notes)
	c.Weight = clonePtr(s.Weight)
	c.CommodityType = clonePtr(s.CommodityType)
	c.NumOfPieces = clonePtr(s.NumOfPieces)
	c.Miles = clonePtr(s.Miles)
	c.Dimensions = clonePtr(s.Dimensions)
	c.AgreedPrice = clonePtr(s.AgreedPrice)
	c.CarrierDescription = clonePtr(s.CarrierDescription)
	c.TimePerCallSeconds = clonePtr(s.TimePerCallSeconds)
	c.AvgTimePerCallSeconds = clonePtr(s.AvgTimePerCallSeconds)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
