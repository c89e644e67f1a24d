// Package stats computes the grouped outcome summary over a filtered
// shipment set, split by assignment source and call type.
package stats

import (
	"math"

	"github.com/freightops/load-ledger-api/internal/models"
)

// CallTypeStats summarizes the calls of one call type across the whole
// filtered set
type CallTypeStats struct {
	TotalCalls           int     `json:"total_calls"`
	AgreedCalls          int     `json:"agreed_calls"`
	TotalDurationMinutes float64 `json:"total_duration_minutes"`
}

// Bucket holds the per-assignment-source metrics. Count and the price/time
// totals cover only agreed records in the bucket; CallStats covers every
// record of the parent filtered set regardless of status and is attached
// identically to both buckets.
type Bucket struct {
	Count                     int                       `json:"count"`
	TotalAgreedPrice          float64                   `json:"total_agreed_price"`
	TotalAgreedMinusLoadboard float64                   `json:"total_agreed_minus_loadboard"`
	AvgTimePerCallSeconds     float64                   `json:"avg_time_per_call_seconds"`
	CallStats                 map[string]*CallTypeStats `json:"call_stats"`
}

// Summary is the full aggregation result keyed by assignment source
type Summary struct {
	Manual *Bucket `json:"manual"`
	URLAPI *Bucket `json:"url_api"`
}

// Aggregate partitions the (already filtered) shipments by provenance and
// computes per-bucket totals plus the shared per-call-type call statistics.
// calls maps shipment id to that shipment's call list.
func Aggregate(shipments []*models.Shipment, calls map[string][]*models.Call) *Summary {
	manual := newBucket()
	urlAPI := newBucket()

	var manualTimes, urlTimes []float64

	for _, s := range shipments {
		bucket := manual
		if s.AssignedViaURL {
			bucket = urlAPI
		}

		if s.Status == models.StatusAgreed {
			bucket.Count++

			price := 0.0
			if s.AgreedPrice != nil {
				price = *s.AgreedPrice
			}
			bucket.TotalAgreedPrice += price

			rate := 0.0
			if s.LoadboardRate != nil {
				rate = *s.LoadboardRate
			}
			bucket.TotalAgreedMinusLoadboard += price - rate

			// Only positive manually-entered handling times feed the mean
			if s.TimePerCallSeconds != nil && *s.TimePerCallSeconds > 0 {
				if s.AssignedViaURL {
					urlTimes = append(urlTimes, *s.TimePerCallSeconds)
				} else {
					manualTimes = append(manualTimes, *s.TimePerCallSeconds)
				}
			}
		}
	}

	manual.AvgTimePerCallSeconds = mean(manualTimes)
	urlAPI.AvgTimePerCallSeconds = mean(urlTimes)

	callStats := aggregateCalls(shipments, calls)
	manual.CallStats = callStats
	urlAPI.CallStats = copyCallStats(callStats)

	return &Summary{Manual: manual, URLAPI: urlAPI}
}

// aggregateCalls groups the calls of every shipment in the filtered set by
// call type, regardless of the owning shipment's status or provenance
func aggregateCalls(shipments []*models.Shipment, calls map[string][]*models.Call) map[string]*CallTypeStats {
	result := map[string]*CallTypeStats{
		string(models.CallTypeManual): {},
		string(models.CallTypeAgent):  {},
	}
	seconds := make(map[string]float64, len(result))

	for _, s := range shipments {
		for _, c := range calls[s.ID] {
			cs, ok := result[string(c.CallType)]
			if !ok {
				cs = &CallTypeStats{}
				result[string(c.CallType)] = cs
			}

			cs.TotalCalls++
			if c.Agreed {
				cs.AgreedCalls++
			}
			seconds[string(c.CallType)] += c.Seconds
		}
	}

	for callType, cs := range result {
		cs.TotalDurationMinutes = round1(seconds[callType] / 60)
	}

	return result
}

func newBucket() *Bucket {
	return &Bucket{CallStats: make(map[string]*CallTypeStats)}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func copyCallStats(src map[string]*CallTypeStats) map[string]*CallTypeStats {
	dst := make(map[string]*CallTypeStats, len(src))
	for k, v := range src {
		c := *v
		dst[k] = &c
	}
	return dst
}
