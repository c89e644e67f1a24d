package models

import (
	"encoding/json"
	"testing"

	apperrors "github.com/freightops/load-ledger-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestParseAgreed(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    bool
		wantErr bool
	}{
		{name: "native true", input: `true`, want: true},
		{name: "native false", input: `false`, want: false},
		{name: "string yes", input: `"yes"`, want: true},
		{name: "string Y uppercase", input: `"Y"`, want: true},
		{name: "string 1", input: `"1"`, want: true},
		{name: "string no", input: `"no"`, want: false},
		{name: "string 0", input: `"0"`, want: false},
		{name: "padded string", input: `" true "`, want: true},
		{name: "number one", input: `1`, want: true},
		{name: "number zero", input: `0`, want: false},
		{name: "unrecognized string", input: `"maybe"`, wantErr: true},
		{name: "other number", input: `2`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAgreed(raw(tc.input))

			if tc.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseAgreedMissing(t *testing.T) {
	_, err := ParseAgreed(nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestParseSeconds(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "native number", input: `95`, want: 95},
		{name: "native float", input: `12.5`, want: 12.5},
		{name: "numeric string", input: `"12.5"`, want: 12.5},
		{name: "padded numeric string", input: `" 60 "`, want: 60},
		{name: "zero", input: `0`, want: 0},
		{name: "negative number", input: `-1`, wantErr: true},
		{name: "negative string", input: `"-5"`, wantErr: true},
		{name: "non-numeric string", input: `"fast"`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSeconds(raw(tc.input))

			if tc.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewCallCoercesLooseInput(t *testing.T) {
	call, err := NewCall("shp-1", &CallInput{
		Agreed:   raw(`"yes"`),
		Seconds:  raw(`"12.5"`),
		CallType: "agent",
	})
	require.NoError(t, err)

	assert.True(t, call.Agreed)
	assert.Equal(t, 12.5, call.Seconds)
	assert.Equal(t, CallTypeAgent, call.CallType)
	assert.Equal(t, SentimentNeutral, call.Sentiment)
	assert.Equal(t, "shp-1", call.ShipmentID)
	assert.NotEmpty(t, call.ID)
	assert.False(t, call.CreatedAt.IsZero())
}

func TestNewCallRequiresCallType(t *testing.T) {
	_, err := NewCall("shp-1", &CallInput{
		Agreed:  raw(`true`),
		Seconds: raw(`60`),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = NewCall("shp-1", &CallInput{
		Agreed:   raw(`true`),
		Seconds:  raw(`60`),
		CallType: "robot",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestNewCallRejectsUnknownSentiment(t *testing.T) {
	_, err := NewCall("shp-1", &CallInput{
		Agreed:    raw(`true`),
		Seconds:   raw(`60`),
		CallType:  "manual",
		Sentiment: "angry",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCallFiltersMatch(t *testing.T) {
	call := &Call{CallType: CallTypeAgent, Agreed: true, Sentiment: SentimentPositive}

	agent := CallTypeAgent
	manual := CallTypeManual
	yes := true
	positive := SentimentPositive

	assert.True(t, (*CallFilters)(nil).Match(call))
	assert.True(t, (&CallFilters{}).Match(call))
	assert.True(t, (&CallFilters{CallType: &agent, Agreed: &yes, Sentiment: &positive}).Match(call))
	assert.False(t, (&CallFilters{CallType: &manual}).Match(call))
}
