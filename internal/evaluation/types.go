package evaluation

import (
	"time"

	"github.com/geosight/dashboard/internal/domain/entities"
)

// ValidIntents returns the intents a golden query may expect.
func ValidIntents() []entities.Intent {
	return []entities.Intent{entities.IntentRoute, entities.IntentInfo, entities.IntentWeather, entities.IntentNearby}
}

func validIntent(i entities.Intent) bool {
	for _, v := range ValidIntents() {
		if i == v {
			return true
		}
	}
	return false
}

// GoldenQuery is a labelled query with the intent and places it should resolve to.
type GoldenQuery struct {
	ID                string          `json:"id"`
	Query             string          `json:"query"`
	Intent            entities.Intent `json:"intent"`
	ExpectedLocations []string        `json:"expected_locations"`
	Ordered           bool            `json:"ordered,omitempty"` // route stops must keep their order
	Difficulty        string          `json:"difficulty"`        // easy, medium, hard
}

// EvalResult holds the outcome for a single query.
type EvalResult struct {
	QueryID        string          `json:"query_id"`
	Query          string          `json:"query"`
	ExpectedIntent entities.Intent `json:"expected_intent"`
	Intent         entities.Intent `json:"intent,omitempty"`
	IntentCorrect  bool            `json:"intent_correct"`
	LocationRecall float64         `json:"location_recall"`
	FirstHitRR     float64         `json:"first_hit_rr"`
	OrderCorrect   bool            `json:"order_correct"`
	Resolved       []string        `json:"resolved"`
	Latency        time.Duration   `json:"latency"`
	Error          string          `json:"error,omitempty"`
}

// EvalSummary holds aggregate metrics across all golden queries.
type EvalSummary struct {
	TotalQueries      int                                `json:"total_queries"`
	Errors            int                                `json:"errors"`
	IntentAccuracy    float64                            `json:"intent_accuracy"`
	AvgLocationRecall float64                            `json:"avg_location_recall"`
	AvgFirstHitRR     float64                            `json:"avg_first_hit_rr"`
	OrderedQueries    int                                `json:"ordered_queries"`
	OrderAccuracy     float64                            `json:"order_accuracy"` // over ordered queries only
	AvgLatency        time.Duration                      `json:"avg_latency"`
	ByIntent          map[entities.Intent]*IntentSummary `json:"by_intent"`
	Results           []EvalResult                       `json:"results,omitempty"`
}

// IntentSummary holds metrics grouped by expected intent.
type IntentSummary struct {
	Count             int     `json:"count"`
	IntentAccuracy    float64 `json:"intent_accuracy"`
	AvgLocationRecall float64 `json:"avg_location_recall"`
}
