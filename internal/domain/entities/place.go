package entities

import "math"

// Coordinates represents geographic coordinates
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Bounds is a lat/lon rectangle
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// PointBounds returns the degenerate rectangle around c
func PointBounds(c Coordinates) Bounds {
	return Bounds{North: c.Latitude, South: c.Latitude, East: c.Longitude, West: c.Longitude}
}

// Union returns the smallest rectangle containing b and other
func (b Bounds) Union(other Bounds) Bounds {
	return Bounds{
		North: math.Max(b.North, other.North),
		South: math.Min(b.South, other.South),
		East:  math.Max(b.East, other.East),
		West:  math.Min(b.West, other.West),
	}
}

// Center returns the midpoint of b
func (b Bounds) Center() Coordinates {
	return Coordinates{
		Latitude:  (b.North + b.South) / 2,
		Longitude: (b.East + b.West) / 2,
	}
}

// BoundsBuilder accumulates points and rectangles. The zero value is empty.
type BoundsBuilder struct {
	bounds Bounds
	ok     bool
}

// AddPoint extends the accumulated bounds to include c
func (bb *BoundsBuilder) AddPoint(c Coordinates) {
	bb.AddBounds(PointBounds(c))
}

// AddBounds extends the accumulated bounds to include b
func (bb *BoundsBuilder) AddBounds(b Bounds) {
	if !bb.ok {
		bb.bounds, bb.ok = b, true
		return
	}
	bb.bounds = bb.bounds.Union(b)
}

// Bounds returns the accumulated rectangle and whether anything was added
func (bb *BoundsBuilder) Bounds() (Bounds, bool) {
	return bb.bounds, bb.ok
}

// ResolvedPlace is a geocoded place ready to be plotted
type ResolvedPlace struct {
	Name     string      `json:"name"`
	Location Coordinates `json:"location"`
	Viewport *Bounds     `json:"viewport,omitempty"`
	PlaceID  string      `json:"place_id,omitempty"`
	Address  string      `json:"formatted_address,omitempty"`
}

// Extent returns the viewport when known, otherwise the point itself
func (p ResolvedPlace) Extent() Bounds {
	if p.Viewport != nil {
		return *p.Viewport
	}
	return PointBounds(p.Location)
}
