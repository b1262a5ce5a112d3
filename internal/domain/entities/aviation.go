package entities

import "fmt"

// Airport is a commercial airport with an IATA code
type Airport struct {
	IATA     string      `json:"iata_code"`
	Name     string      `json:"name"`
	City     string      `json:"city_name,omitempty"`
	Location Coordinates `json:"location"`
}

// Flight is a scheduled direct service between two airports
type Flight struct {
	Origin      string `json:"source_iata"`
	Destination string `json:"dest_iata"`
	Airline     string `json:"airline_code"`
}

// TripSegmentType labels the legs of a multimodal trip
type TripSegmentType string

const (
	TripSegmentDriving TripSegmentType = "DRIVING"
	TripSegmentFlight  TripSegmentType = "FLIGHT"
)

// TripSegment is one leg of a multimodal trip. The IATA codes and airline
// are set on flight legs only.
type TripSegment struct {
	Type     TripSegmentType `json:"type"`
	From     Coordinates     `json:"from"`
	To       Coordinates     `json:"to"`
	FromIATA string          `json:"from_iata,omitempty"`
	ToIATA   string          `json:"to_iata,omitempty"`
	Airline  string          `json:"airline,omitempty"`
	Label    string          `json:"label"`
}

// MultimodalRoute is a drive to an airport, a direct flight and a drive from
// the arrival airport.
type MultimodalRoute struct {
	Type            string        `json:"type"`
	TotalDistanceKm float64       `json:"total_distance_km"`
	Segments        []TripSegment `json:"segments"`
}

// NewDriveFlyDrive builds the three-leg trip from start to end through the
// two airports.
func NewDriveFlyDrive(start, end Coordinates, origin, dest Airport, flight Flight, totalKm float64) *MultimodalRoute {
	return &MultimodalRoute{
		Type:            "multimodal",
		TotalDistanceKm: totalKm,
		Segments: []TripSegment{
			{
				Type:  TripSegmentDriving,
				From:  start,
				To:    origin.Location,
				Label: fmt.Sprintf("Drive to %s (%s)", origin.Name, origin.IATA),
			},
			{
				Type:     TripSegmentFlight,
				From:     origin.Location,
				To:       dest.Location,
				FromIATA: origin.IATA,
				ToIATA:   dest.IATA,
				Airline:  flight.Airline,
				Label:    fmt.Sprintf("Flight to %s (%s)", dest.Name, dest.IATA),
			},
			{
				Type:  TripSegmentDriving,
				From:  dest.Location,
				To:    end,
				Label: "Drive to Destination",
			},
		},
	}
}
