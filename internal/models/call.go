package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/freightops/load-ledger-api/pkg/errors"
)

// CallType distinguishes calls placed by the automated agent from calls a
// human operator logged through the dashboard
type CallType string

const (
	CallTypeManual CallType = "manual"
	CallTypeAgent  CallType = "agent"
)

// Sentiment is the recorded tone of a negotiation call
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Call represents one negotiation conversation about a load. Immutable after
// creation; ShipmentID is a lookup back-reference, never an ownership link.
type Call struct {
	ID         string    `json:"id"`
	ShipmentID string    `json:"shipment_id"`
	Agreed     bool      `json:"agreed"`
	Seconds    float64   `json:"seconds"`
	CallType   CallType  `json:"call_type"`
	Sentiment  Sentiment `json:"sentiment"`
	CallID     *string   `json:"call_id"`
	Notes      *string   `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`

	// Owner annotation for cross-shipment listings; left empty elsewhere.
	LoadID      string `json:"load_id,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// CallInput is the payload for logging a call. Agreed and Seconds arrive as
// raw JSON because upstream automations send them as either native values or
// strings; coercion happens in NewCall.
type CallInput struct {
	Agreed    json.RawMessage `json:"agreed"`
	Seconds   json.RawMessage `json:"seconds"`
	CallType  string          `json:"call_type"`
	Sentiment string          `json:"sentiment"`
	CallID    *string         `json:"call_id"`
	Notes     *string         `json:"notes"`
}

// NewCall coerces and validates a call payload into an owned Call record
func NewCall(shipmentID string, in *CallInput) (*Call, error) {
	agreed, err := ParseAgreed(in.Agreed)

	if err != nil {
		return nil, err
	}

	seconds, err := ParseSeconds(in.Seconds)

	if err != nil {
		return nil, err
	}

	callType := CallType(in.CallType)

	if callType != CallTypeManual && callType != CallTypeAgent {
		return nil, errors.NewValidationError("call_type", in.CallType, "call_type must be manual or agent")
	}

	sentiment := Sentiment(in.Sentiment)

	if sentiment == "" {
		sentiment = SentimentNeutral
	}

	if sentiment != SentimentPositive && sentiment != SentimentNeutral && sentiment != SentimentNegative {
		return nil, errors.NewValidationError("sentiment", in.Sentiment,
			"sentiment must be positive, neutral or negative")
	}

	return &Call{
		ID:         GenerateID("call"),
		ShipmentID: shipmentID,
		Agreed:     agreed,
		Seconds:    seconds,
		CallType:   callType,
		Sentiment:  sentiment,
		CallID:     in.CallID,
		Notes:      in.Notes,
		CreatedAt:  GetCurrentTime(),
	}, nil
}

// ParseAgreed accepts a JSON boolean or a boolean-ish string
// (true/1/yes/y and false/0/no/n, case-insensitive)
func ParseAgreed(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 {
		return false, errors.NewValidationError("agreed", nil, "agreed is required")
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes", "y":
			return true, nil
		case "false", "0", "no", "n":
			return false, nil
		}
		return false, errors.NewValidationError("agreed", s, "agreed must be a boolean or boolean-like string")
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == 1 {
			return true, nil
		}
		if n == 0 {
			return false, nil
		}
	}

	return false, errors.NewValidationError("agreed", string(raw), "agreed must be a boolean or boolean-like string")
}

// ParseSeconds accepts a non-negative JSON number or a numeric string
func ParseSeconds(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, errors.NewValidationError("seconds", nil, "seconds is required")
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return 0, errors.NewValidationError("seconds", n, "seconds must be non-negative")
		}
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, errors.NewValidationError("seconds", s, "seconds must be numeric")
		}
		if n < 0 {
			return 0, errors.NewValidationError("seconds", s, "seconds must be non-negative")
		}
		return n, nil
	}

	return 0, errors.NewValidationError("seconds", string(raw), "seconds must be numeric")
}

// CallFilters narrows cross-shipment call listings; all filters are
// exact-match and conjunctive
type CallFilters struct {
	CallType  *CallType
	Agreed    *bool
	Sentiment *Sentiment
}

// Match reports whether the call satisfies every supplied filter
func (f *CallFilters) Match(c *Call) bool {
	if f == nil {
		return true
	}
	if f.CallType != nil && c.CallType != *f.CallType {
		return false
	}
	if f.Agreed != nil && c.Agreed != *f.Agreed {
		return false
	}
	if f.Sentiment != nil && c.Sentiment != *f.Sentiment {
		return false
	}
	return true
}
