package entities

// CurrentWeather is the current conditions at a point
type CurrentWeather struct {
	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windspeed"`
	WeatherCode   int     `json:"weathercode"`
	ConditionText string  `json:"condition_text"`
}

// RainfallHistory holds daily precipitation totals, oldest first
type RainfallHistory struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

// AirQuality is the current US AQI at a point
type AirQuality struct {
	USAQI    int    `json:"us_aqi"`
	Category string `json:"category"`
}

// ConditionText maps a WMO weather code to a short description
func ConditionText(code int) string {
	switch code {
	case 0:
		return "Clear sky"
	case 1, 2, 3:
		return "Partly cloudy"
	case 45, 48:
		return "Foggy"
	case 51, 53, 55:
		return "Drizzle"
	case 61, 63, 65:
		return "Rain"
	case 71, 73, 75:
		return "Snow"
	case 80, 81, 82:
		return "Showers"
	case 95, 96, 99:
		return "Thunderstorm"
	default:
		return "Overcast"
	}
}

// AQICategory returns the EPA band for a US AQI value
func AQICategory(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}
