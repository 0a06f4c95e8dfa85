// Package report provides per-symbiont exit records, population samples and
// their CSV serialization. It stores pure data types and has no dependency
// on the sim package.
package report

import (
	"strconv"
	"strings"
)

// ExitReason is the terminal classification written to output records. It
// is deliberately distinct from the transient mitosis-outcome signaling in
// the core: records never carry in-flight protocol states.
type ExitReason string

const (
	ExitDigestionInG0        ExitReason = "DigestionInG0"
	ExitDigestionInMitosis   ExitReason = "DigestionInMitosis"
	ExitEscapeInG0           ExitReason = "EscapeInG0"
	ExitEscapeInMitosis      ExitReason = "EscapeInMitosis"
	ExitDepartureInG0        ExitReason = "DepartureInG0"
	ExitDepartureInMitosis   ExitReason = "DepartureInMitosis"
	ExitParentEvicted        ExitReason = "ParentEvicted"
	ExitChildEvicted         ExitReason = "ChildEvicted"
	ExitParentNoAffinity     ExitReason = "ParentNoAffinity"
	ExitChildNoAffinity      ExitReason = "ChildNoAffinity"
	ExitParentInfectsOutside ExitReason = "ParentInfectsOutside"
	ExitChildInfectsOutside  ExitReason = "ChildInfectsOutside"
	ExitStillResident        ExitReason = "StillResident"
)

// ExitRecord captures one symbiont at the moment it leaves the simulation
// (or at end-of-run for symbionts still in residence). History fields are
// semicolon-joined in parallel order.
type ExitRecord struct {
	ID               int64      `csv:"symbiont_id"`
	ArrivalMode      string     `csv:"arrival_mode"`
	ParentID         int64      `csv:"parent_id"`
	AgentZero        int64      `csv:"agent_zero"`
	Clade            string     `csv:"clade"`
	MitoticCostRate  float64    `csv:"mitotic_cost_rate"`
	ProductionRate   float64    `csv:"production_rate"`
	ArrivalTime      float64    `csv:"arrival_time"`
	ExitTime         float64    `csv:"exit_time"`
	ExitReason       ExitReason `csv:"exit_reason"`
	LastEventTime    float64    `csv:"last_event_time"`
	LastEventKind    string     `csv:"last_event_kind"`
	ResidenceTime    float64    `csv:"residence_time"`
	SurplusOnArrival float64    `csv:"surplus_on_arrival"`
	SurplusAtExit    float64    `csv:"surplus_at_exit"`
	Divisions        int        `csv:"divisions"`
	TimeOfEscape     float64    `csv:"time_of_escape"`
	TimeOfDigestion  float64    `csv:"time_of_digestion"`
	TimeOfDeparture  float64    `csv:"time_of_departure"`
	SlotsInhabited   string     `csv:"slots_inhabited"`
	InhabitTimes     string     `csv:"inhabit_times"`
	SlotDemands      string     `csv:"slot_demands"`
	G0Durations      string     `csv:"g0_durations"`
	MitosisDurations string     `csv:"mitosis_durations"`
}

// PopulationSample is one point of the resident-count time series.
type PopulationSample struct {
	Time      float64 `csv:"time"`
	Residents int     `csv:"residents"`
}

// JoinStrings renders a history list as a semicolon-joined field.
func JoinStrings(vals []string) string {
	return strings.Join(vals, ";")
}

// JoinFloats renders a numeric history list as a semicolon-joined field.
func JoinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ";")
}
