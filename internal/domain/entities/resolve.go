package entities

// Intent classifies what the user asked for
type Intent string

const (
	IntentRoute   Intent = "ROUTE"
	IntentInfo    Intent = "INFO"
	IntentWeather Intent = "WEATHER"
	IntentNearby  Intent = "NEARBY"
)

// ParseIntent normalises an intent label. Unknown labels become INFO.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentRoute, IntentWeather, IntentNearby:
		return Intent(s)
	default:
		return IntentInfo
	}
}

// PlaceStatus is the resolution status attached to a place by the resolve backend
type PlaceStatus string

const (
	PlaceStatusResolved              PlaceStatus = "resolved"
	PlaceStatusClarificationRequired PlaceStatus = "clarification_required"
	PlaceStatusUnmatched             PlaceStatus = "unmatched"
)

// Result source labels
const (
	SourceGazetteer = "gazetteer"
	SourceIndex     = "index"
	SourceGeocoder  = "geocoder"
	SourceNearby    = "nearby"
)

// ResolveResult is the response of the resolve endpoint. MultimodalRoute is
// only set for long ROUTE queries with a direct flight between the ends.
type ResolveResult struct {
	Status          string           `json:"status,omitempty"`
	Intent          Intent           `json:"intent"`
	Results         []PlaceResult    `json:"results"`
	MultimodalRoute *MultimodalRoute `json:"multimodal_route,omitempty"`
}

// PlaceResult is a single candidate place returned for a query
type PlaceResult struct {
	Token           string           `json:"token,omitempty"`
	CityName        string           `json:"city_name,omitempty"`
	CanonicalName   string           `json:"canonical_name,omitempty"`
	Status          PlaceStatus      `json:"status,omitempty"`
	Confidence      *float64         `json:"confidence,omitempty"`
	Lat             *float64         `json:"lat,omitempty"`
	Lon             *float64         `json:"lon,omitempty"`
	Type            string           `json:"type,omitempty"`
	Population      int64            `json:"population,omitempty"`
	Source          string           `json:"source,omitempty"`
	AIAnswer        string           `json:"ai_answer,omitempty"`
	AISummary       string           `json:"ai_summary,omitempty"`
	Weather         *CurrentWeather  `json:"weather,omitempty"`
	RainfallHistory *RainfallHistory `json:"rainfall_history,omitempty"`
}

// Name is the display name: city_name, then canonical_name, then token.
func (p PlaceResult) Name() string {
	switch {
	case p.CityName != "":
		return p.CityName
	case p.CanonicalName != "":
		return p.CanonicalName
	default:
		return p.Token
	}
}

// Plottable reports whether the place may be drawn on the map. A missing
// status counts as resolved.
func (p PlaceResult) Plottable() bool {
	return p.Status == "" || p.Status == PlaceStatusResolved
}

// Coordinates returns the backend-supplied point, if any.
func (p PlaceResult) Coordinates() (Coordinates, bool) {
	if p.Lat == nil || p.Lon == nil {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: *p.Lat, Longitude: *p.Lon}, true
}

// SetCoordinates attaches a point to the result
func (p *PlaceResult) SetCoordinates(c Coordinates) {
	lat, lon := c.Latitude, c.Longitude
	p.Lat = &lat
	p.Lon = &lon
}

// PlottableResults filters results down to the ones that may be drawn
func (r *ResolveResult) PlottableResults() []PlaceResult {
	out := make([]PlaceResult, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Plottable() {
			out = append(out, res)
		}
	}
	return out
}
