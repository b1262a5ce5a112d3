package entities

import "time"

// DashboardState is the presentation state of a dashboard
type DashboardState string

const (
	DashboardStateIdle           DashboardState = "IDLE"
	DashboardStateDispatching    DashboardState = "DISPATCHING"
	DashboardStateRenderingInfo  DashboardState = "RENDERING_INFO"
	DashboardStateRenderingRoute DashboardState = "RENDERING_ROUTE"
)

// Marker is a pin on the map
type Marker struct {
	PlaceID  string      `json:"place_id,omitempty"`
	Title    string      `json:"title"`
	Position Coordinates `json:"position"`
}

// CardKind identifies the kind of side-panel card
type CardKind string

const (
	CardKindInfo       CardKind = "info"
	CardKindWeather    CardKind = "weather"
	CardKindRainfall   CardKind = "rainfall"
	CardKindComparison CardKind = "comparison"
)

// Chart is a bar chart description handed to the chart renderer
type Chart struct {
	Type   string    `json:"type"`
	Label  string    `json:"label"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Card is a side-panel card
type Card struct {
	Kind    CardKind        `json:"kind"`
	Title   string          `json:"title"`
	Text    string          `json:"text,omitempty"`
	SubText string          `json:"sub_text,omitempty"`
	Weather *CurrentWeather `json:"weather,omitempty"`
	Chart   *Chart          `json:"chart,omitempty"`
}

// NoticeLevel is the severity of a user-visible notice
type NoticeLevel string

const (
	NoticeLevelInfo  NoticeLevel = "info"
	NoticeLevelError NoticeLevel = "error"
)

// Notice is a user-visible message
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// ModeSelector is the travel-mode toggle shown for routes
type ModeSelector struct {
	Visible bool         `json:"visible"`
	Active  TravelMode   `json:"active,omitempty"`
	Modes   []TravelMode `json:"modes,omitempty"`
}

// FlightPath is a great-circle line between two points
type FlightPath struct {
	From Coordinates   `json:"from"`
	To   Coordinates   `json:"to"`
	Path []Coordinates `json:"path"`
}

// FeatureStyle is the style applied to a highlighted map feature
type FeatureStyle struct {
	FillColor     string  `json:"fill_color"`
	FillOpacity   float64 `json:"fill_opacity"`
	StrokeColor   string  `json:"stroke_color"`
	StrokeWeight  float64 `json:"stroke_weight"`
	StrokeOpacity float64 `json:"stroke_opacity"`
}

// Scene is everything a dashboard currently displays
type Scene struct {
	SessionID    string         `json:"session_id"`
	Version      uint64         `json:"version"`
	State        DashboardState `json:"state"`
	Loading      bool           `json:"loading"`
	Query        string         `json:"query,omitempty"`
	Intent       Intent         `json:"intent,omitempty"`
	Markers      []Marker       `json:"markers"`
	Highlights   []string       `json:"highlights"`
	Camera       *Bounds        `json:"camera,omitempty"`
	Directions   *Directions    `json:"directions,omitempty"`
	FlightPaths  []FlightPath   `json:"flight_paths"`
	RouteStats   *RouteStats    `json:"route_stats,omitempty"`
	ModeSelector ModeSelector   `json:"mode_selector"`
	Cards        []Card         `json:"cards"`
	Notices      []Notice       `json:"notices"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// FeatureInspection is what a click on a highlighted feature reveals
type FeatureInspection struct {
	PlaceID    string          `json:"place_id"`
	Name       string          `json:"name"`
	Location   Coordinates     `json:"location"`
	Weather    *CurrentWeather `json:"weather,omitempty"`
	AirQuality *AirQuality     `json:"air_quality,omitempty"`
}
