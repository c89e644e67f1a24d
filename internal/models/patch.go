package models

import "time"

// ShipmentCreate is the payload for creating a new load
type ShipmentCreate struct {
	LoadID           string    `json:"load_id"`
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

	TimePerCallSeconds    *float64 `json:"time_per_call_seconds"`
	AvgTimePerCallSeconds *float64 `json:"avg_time_per_call_seconds"`
}

// ShipmentPatch is a typed partial update. Every field is an explicit
// optional: a nil pointer means "leave untouched", a set pointer means
// "assign this value". The merge is field-by-field, never a replace.
type ShipmentPatch struct {
	LoadID           *string    `json:"load_id"`
	Origin           *string    `json:"origin"`
	Destination      *string    `json:"destination"`
	PickupDatetime   *time.Time `json:"pickup_datetime"`
	DeliveryDatetime *time.Time `json:"delivery_datetime"`

	EquipmentType *string  `json:"equipment_type"`
	LoadboardRate *float64 `json:"loadboard_rate"`
	Notes         *string  `json:"notes"`
	Weight        *float64 `json:"weight"`
	CommodityType *string  `json:"commodity_type"`
	NumOfPieces   *int     `json:"num_of_pieces"`
	Miles         *float64 `json:"miles"`
	Dimensions    *string  `json:"dimensions"`

	Status             *Status  `json:"status"`
	AgreedPrice        *float64 `json:"agreed_price"`
	CarrierDescription *string  `json:"carrier_description"`

	TimePerCallSeconds    *float64 `json:"time_per_call_seconds"`
	AvgTimePerCallSeconds *float64 `json:"avg_time_per_call_seconds"`
}

// Apply merges the set fields of the patch into s
func (p *ShipmentPatch) Apply(s *Shipment) {
	if p.LoadID != nil {
		s.LoadID = *p.LoadID
	}
	if p.Origin != nil {
		s.Origin = *p.Origin
	}
	if p.Destination != nil {
		s.Destination = *p.Destination
	}
	if p.PickupDatetime != nil {
		s.PickupDatetime = *p.PickupDatetime
	}
	if p.DeliveryDatetime != nil {
		s.DeliveryDatetime = *p.DeliveryDatetime
	}
	if p.EquipmentType != nil {
		s.EquipmentType = p.EquipmentType
	}
	if p.LoadboardRate != nil {
		s.LoadboardRate = p.LoadboardRate
	}
	if p.Notes != nil {
		s.Notes = p.Notes
	}
	if p.Weight != nil {
		s.Weight = p.Weight
	}
	if p.CommodityType != nil {
		s.CommodityType = p.CommodityType
	}
	if p.NumOfPieces != nil {
		s.NumOfPieces = p.NumOfPieces
	}
	if p.Miles != nil {
		s.Miles = p.Miles
	}
	if p.Dimensions != nil {
		s.Dimensions = p.Dimensions
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.AgreedPrice != nil {
		s.AgreedPrice = p.AgreedPrice
	}
	if p.CarrierDescription != nil {
		s.CarrierDescription = p.CarrierDescription
	}
	if p.TimePerCallSeconds != nil {
		s.TimePerCallSeconds = p.TimePerCallSeconds
	}
	if p.AvgTimePerCallSeconds != nil {
		s.AvgTimePerCallSeconds = p.AvgTimePerCallSeconds
	}
}
