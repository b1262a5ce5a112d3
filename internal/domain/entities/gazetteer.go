package entities

// Gazetteer place kinds
const (
	PlaceTypeCountry = "country"
	PlaceTypeState   = "state"
	PlaceTypeCity    = "city"
)

// GazetteerPlace is a named place stored in the local gazetteer
type GazetteerPlace struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Population int64       `json:"population"`
	Location   Coordinates `json:"location"`
	AltNames   []string    `json:"alt_names,omitempty"`
	Code       string      `json:"code,omitempty"`
}

// GazetteerMatch is a gazetteer place with its similarity to the search term
type GazetteerMatch struct {
	Place GazetteerPlace `json:"place"`
	Score float64        `json:"score"`
}

// ToPlaceResult converts a match into a resolve result entry
func (m GazetteerMatch) ToPlaceResult(token, source string) PlaceResult {
	score := m.Score
	res := PlaceResult{
		Token:         token,
		CityName:      m.Place.Name,
		CanonicalName: m.Place.Name,
		Confidence:    &score,
		Type:          m.Place.Type,
		Population:    m.Place.Population,
		Source:        source,
	}
	res.SetCoordinates(m.Place.Location)
	return res
}
