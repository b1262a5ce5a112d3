package entities

import (
	"fmt"
	"strings"
)

// TravelMode is the way a route is travelled
type TravelMode string

const (
	TravelModeDriving TravelMode = "DRIVING"
	TravelModeWalking TravelMode = "WALKING"
	TravelModeAir     TravelMode = "AIR"
)

// TravelModes lists the modes offered by the mode selector, in display order
var TravelModes = []TravelMode{TravelModeDriving, TravelModeWalking, TravelModeAir}

// ParseTravelMode parses a mode label case-insensitively
func ParseTravelMode(s string) (TravelMode, error) {
	switch m := TravelMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case TravelModeDriving, TravelModeWalking, TravelModeAir:
		return m, nil
	default:
		return "", fmt.Errorf("unknown travel mode %q", s)
	}
}

// IsGround reports whether the mode goes through the directions provider
func (m TravelMode) IsGround() bool {
	return m == TravelModeDriving || m == TravelModeWalking
}

// RouteTrigger records who asked for a route computation. Only automatic
// computations may fall back to AIR.
type RouteTrigger int

const (
	RouteTriggerAuto RouteTrigger = iota
	RouteTriggerManual
)

func (t RouteTrigger) String() string {
	if t == RouteTriggerManual {
		return "MANUAL"
	}
	return "AUTO"
}

// RouteRequest asks a directions provider for an ordered multi-stop route.
// Waypoints are stopovers visited in the given order.
type RouteRequest struct {
	Origin      string
	Destination string
	Waypoints   []string
	Mode        TravelMode
}

// RouteLeg is one stop-to-stop section of a route
type RouteLeg struct {
	StartAddress    string      `json:"start_address"`
	EndAddress      string      `json:"end_address"`
	Start           Coordinates `json:"start"`
	End             Coordinates `json:"end"`
	DistanceMeters  int         `json:"distance_meters"`
	DurationSeconds int         `json:"duration_seconds"`
}

// Directions is a ground route as returned by a directions provider
type Directions struct {
	Mode             TravelMode `json:"mode"`
	Summary          string     `json:"summary,omitempty"`
	Legs             []RouteLeg `json:"legs"`
	OverviewPolyline string     `json:"overview_polyline,omitempty"`
	Bounds           *Bounds    `json:"bounds,omitempty"`
}

// TotalDistanceMeters sums the distance over all legs
func (d *Directions) TotalDistanceMeters() int {
	total := 0
	for _, leg := range d.Legs {
		total += leg.DistanceMeters
	}
	return total
}

// TotalDurationSeconds sums the duration over all legs
func (d *Directions) TotalDurationSeconds() int {
	total := 0
	for _, leg := range d.Legs {
		total += leg.DurationSeconds
	}
	return total
}

// RouteSegment is one hop between consecutive places
type RouteSegment struct {
	From       ResolvedPlace `json:"from"`
	To         ResolvedPlace `json:"to"`
	Mode       TravelMode    `json:"mode"`
	DistanceKm float64       `json:"distance_km"`
	Path       []Coordinates `json:"path,omitempty"`
}

// RouteStats is the aggregate shown next to a route
type RouteStats struct {
	Mode      TravelMode `json:"mode"`
	Distance  string     `json:"distance"`
	Duration  string     `json:"duration"`
	Estimated bool       `json:"estimated"`
}
