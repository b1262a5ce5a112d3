package dashboard

import (
	"fmt"

	"github.com/geosight/dashboard/internal/domain/entities"
)

const defaultCardText = "Location identified."

// BuildCards lays out the side panel for an informational result set. The
// population comparison comes first when at least two entries report a
// population; then each entry gets its info card followed by its weather
// and rainfall cards when that data is present.
func BuildCards(results []entities.PlaceResult) []entities.Card {
	cards := make([]entities.Card, 0, len(results)+1)

	if chart := populationChart(results); chart != nil {
		cards = append(cards, entities.Card{
			Kind:  entities.CardKindComparison,
			Title: "Comparison Analysis",
			Chart: chart,
		})
	}

	for _, res := range results {
		name := res.Name()
		cards = append(cards, infoCard(res))

		if res.Weather != nil {
			w := *res.Weather
			cards = append(cards, entities.Card{
				Kind:    entities.CardKindWeather,
				Title:   "Weather in " + name,
				Text:    fmt.Sprintf("%.1f°C", w.Temperature),
				SubText: fmt.Sprintf("%s, wind %.1f km/h", w.ConditionText, w.WindSpeed),
				Weather: &w,
			})
		}

		if res.RainfallHistory != nil {
			cards = append(cards, entities.Card{
				Kind:  entities.CardKindRainfall,
				Title: fmt.Sprintf("Rainfall in %s (Last %d Days)", name, len(res.RainfallHistory.Dates)),
				Chart: rainfallChart(res.RainfallHistory),
			})
		}
	}

	return cards
}

func infoCard(res entities.PlaceResult) entities.Card {
	card := entities.Card{
		Kind:  entities.CardKindInfo,
		Title: res.Name(),
	}
	switch {
	case res.AIAnswer != "":
		card.Text = res.AIAnswer
		card.SubText = res.AISummary
	case res.AISummary != "":
		card.Text = res.AISummary
	default:
		card.Text = defaultCardText
	}
	return card
}

func populationChart(results []entities.PlaceResult) *entities.Chart {
	chart := &entities.Chart{Type: "bar", Label: "Population"}
	for _, res := range results {
		if res.Population <= 0 {
			continue
		}
		chart.Labels = append(chart.Labels, res.Name())
		chart.Values = append(chart.Values, float64(res.Population))
	}
	if len(chart.Labels) < 2 {
		return nil
	}
	return chart
}

// rainfallChart labels each bar with the MM-DD part of its date
func rainfallChart(h *entities.RainfallHistory) *entities.Chart {
	chart := &entities.Chart{
		Type:   "bar",
		Label:  "Precipitation (mm)",
		Labels: make([]string, len(h.Dates)),
		Values: make([]float64, len(h.Values)),
	}
	for i, d := range h.Dates {
		if len(d) >= 10 {
			d = d[5:10]
		}
		chart.Labels[i] = d
	}
	copy(chart.Values, h.Values)
	return chart
}
