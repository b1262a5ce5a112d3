// Package geo holds spherical geometry used for flight paths.
package geo

import (
	"math"

	"github.com/geosight/dashboard/internal/domain/entities"
)

// EarthRadiusKm is the mean Earth radius
const EarthRadiusKm = 6371.0

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// HaversineKm returns the great-circle distance between two points
func HaversineKm(a, b entities.Coordinates) float64 {
	phi1 := toRadians(a.Latitude)
	phi2 := toRadians(b.Latitude)
	dPhi := toRadians(b.Latitude - a.Latitude)
	dLambda := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathKm sums the great-circle distance between consecutive points
func PathKm(points []entities.Coordinates) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += HaversineKm(points[i-1], points[i])
	}
	return total
}

// GreatCircle returns steps+1 points along the geodesic from a to b,
// including both endpoints.
func GreatCircle(a, b entities.Coordinates, steps int) []entities.Coordinates {
	if steps < 1 {
		steps = 1
	}

	phi1, lambda1 := toRadians(a.Latitude), toRadians(a.Longitude)
	phi2, lambda2 := toRadians(b.Latitude), toRadians(b.Longitude)
	delta := HaversineKm(a, b) / EarthRadiusKm

	points := make([]entities.Coordinates, 0, steps+1)
	if delta == 0 {
		for i := 0; i <= steps; i++ {
			points = append(points, a)
		}
		return points
	}

	sinDelta := math.Sin(delta)
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		ka := math.Sin((1-f)*delta) / sinDelta
		kb := math.Sin(f*delta) / sinDelta

		x := ka*math.Cos(phi1)*math.Cos(lambda1) + kb*math.Cos(phi2)*math.Cos(lambda2)
		y := ka*math.Cos(phi1)*math.Sin(lambda1) + kb*math.Cos(phi2)*math.Sin(lambda2)
		z := ka*math.Sin(phi1) + kb*math.Sin(phi2)

		points = append(points, entities.Coordinates{
			Latitude:  toDegrees(math.Atan2(z, math.Sqrt(x*x+y*y))),
			Longitude: toDegrees(math.Atan2(y, x)),
		})
	}
	return points
}
