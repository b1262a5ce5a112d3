package analyzer

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	apperrors "github.com/geosight/dashboard/pkg/errors"
)

var (
	tokenPattern  = regexp.MustCompile(`[A-Za-z]+`)
	wordPattern   = regexp.MustCompile(`[a-z]+`)
	radiusPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:km|kms|kilometers|kilometres)\b`)
)

var (
	weatherWords = []string{"weather", "temperature", "climate", "forecast", "rain", "rainfall"}
	routeWords   = []string{"route", "drive", "driving", "fly", "flight", "from", "to", "travel", "journey", "directions"}
	nearbyWords  = []string{"nearby", "near", "around"}
)

// words that look like place names when capitalised at the start of a query
var stopwords = map[string]struct{}{
	"From": {}, "To": {}, "Via": {}, "In": {}, "The": {}, "And": {}, "Or": {},
	"Weather": {}, "Route": {}, "Tell": {}, "About": {}, "Temperature": {},
	"Climate": {}, "Distance": {}, "Forecast": {}, "Compare": {}, "Between": {},
	"What": {}, "Where": {}, "Show": {}, "Me": {}, "Is": {}, "How": {}, "Near": {},
	"Cities": {}, "Places": {}, "Drive": {}, "Fly": {},
}

// RuleAnalyzer is a keyword and capitalisation based analyzer. It needs no
// external service and is used when the LLM is unavailable.
type RuleAnalyzer struct{}

// NewRuleAnalyzer creates a rule-based analyzer
func NewRuleAnalyzer() *RuleAnalyzer {
	return &RuleAnalyzer{}
}

// Analyze implements QueryAnalyzer
func (RuleAnalyzer) Analyze(_ context.Context, query string) (*providers.QueryAnalysis, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}

	analysis := &providers.QueryAnalysis{
		Intent:          detectIntent(query),
		LocationDetails: make(map[string]providers.LocationDetail),
	}

	if analysis.Intent == entities.IntentNearby {
		analysis.RadiusKm = providers.DefaultNearbyRadiusKm
		if m := radiusPattern.FindStringSubmatch(query); m != nil {
			if km, err := strconv.ParseFloat(m[1], 64); err == nil && km > 0 {
				analysis.RadiusKm = km
			}
		}
	}

	analysis.Locations = extractPlaces(query, analysis.Intent == entities.IntentRoute)
	for _, loc := range analysis.Locations {
		analysis.LocationDetails[loc] = providers.LocationDetail{}
	}
	return analysis, nil
}

func detectIntent(query string) entities.Intent {
	words := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		words[w] = struct{}{}
	}
	hasAny := func(list []string) bool {
		for _, w := range list {
			if _, ok := words[w]; ok {
				return true
			}
		}
		return false
	}

	switch {
	case hasAny(weatherWords):
		return entities.IntentWeather
	case hasAny(routeWords):
		return entities.IntentRoute
	case hasAny(nearbyWords), strings.Contains(strings.ToLower(query), "close to"):
		return entities.IntentNearby
	default:
		return entities.IntentInfo
	}
}

// route roles, in travel order
const (
	roleOrigin = iota
	roleVia
	roleDestination
)

type placeMatch struct {
	name string
	role int
}

// extractPlaces returns runs of capitalised words that are not stopwords,
// without repeats. For routes, places after "via" are moved between the
// origin and the places after "to".
func extractPlaces(query string, route bool) []string {
	var matches []placeMatch
	seen := make(map[string]struct{})
	add := func(start, end int) {
		name := strings.Join(strings.Fields(query[start:end]), " ")
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		matches = append(matches, placeMatch{name: name, role: roleBefore(query[:start])})
	}

	start, end := -1, -1
	for _, idx := range tokenPattern.FindAllStringIndex(query, -1) {
		word := query[idx[0]:idx[1]]
		if _, stop := stopwords[word]; stop || !capitalised(word) {
			if start >= 0 {
				add(start, end)
				start = -1
			}
			continue
		}
		// extend the current run only across whitespace
		if start >= 0 && strings.TrimSpace(query[end:idx[0]]) == "" {
			end = idx[1]
			continue
		}
		if start >= 0 {
			add(start, end)
		}
		start, end = idx[0], idx[1]
	}
	if start >= 0 {
		add(start, end)
	}

	if route {
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].role < matches[j].role })
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

// capitalised reports whether word is an upper-case letter followed by
// lower-case letters
func capitalised(word string) bool {
	if len(word) < 2 || word[0] < 'A' || word[0] > 'Z' {
		return false
	}
	for i := 1; i < len(word); i++ {
		if word[i] < 'a' || word[i] > 'z' {
			return false
		}
	}
	return true
}

// roleBefore looks at the last route keyword preceding a match
func roleBefore(prefix string) int {
	words := wordPattern.FindAllString(strings.ToLower(prefix), -1)
	for i := len(words) - 1; i >= 0; i-- {
		switch words[i] {
		case "via", "through":
			return roleVia
		case "to":
			return roleDestination
		case "from":
			return roleOrigin
		}
	}
	return roleOrigin
}
