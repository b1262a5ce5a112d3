package dashboard

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

const (
	// CruiseSpeedKmh is the assumed average flight speed
	CruiseSpeedKmh = 800.0

	// StopPenaltyMinutes is added once per hop for boarding and transfers
	StopPenaltyMinutes = 60
)

// FormatDistance renders a metered distance as kilometres with one decimal
func FormatDistance(meters int) string {
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

// FormatDuration renders seconds as "H hr M min", dropping a zero hour part
func FormatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%d hr %d min", h, m)
	}
	return fmt.Sprintf("%d min", m)
}

// AirMinutes estimates door-to-door flight time over a path visiting the
// given number of locations
func AirMinutes(distanceKm float64, locations int) int {
	hops := locations - 1
	if hops < 0 {
		hops = 0
	}
	return int(math.Round(distanceKm/CruiseSpeedKmh*60 + float64(hops*StopPenaltyMinutes)))
}

// FormatAirDistance renders whole kilometres with thousands separators
func FormatAirDistance(distanceKm float64) string {
	return humanize.Comma(int64(math.Round(distanceKm))) + " km"
}

// FormatAirDuration renders an estimated duration with a leading "~"
func FormatAirDuration(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if h > 0 {
		return fmt.Sprintf("~%d hr %d min", h, m)
	}
	return fmt.Sprintf("~%d min", m)
}
