package evaluation

import "fmt"

// GuardrailConfig holds the minimum scores a run must reach. Zero disables
// a check.
type GuardrailConfig struct {
	MinIntentAccuracy float64 `json:"min_intent_accuracy"`
	MinLocationRecall float64 `json:"min_location_recall"`
	MinOrderAccuracy  float64 `json:"min_order_accuracy"`
	MaxErrorRate      float64 `json:"max_error_rate"`
}

// DefaultGuardrails are the thresholds the rule analyzer is expected to meet
// against the mock geocoder.
func DefaultGuardrails() GuardrailConfig {
	return GuardrailConfig{
		MinIntentAccuracy: 0.8,
		MinLocationRecall: 0.8,
		MinOrderAccuracy:  0.9,
		MaxErrorRate:      0.05,
	}
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	return &Guardrails{config: config}
}

// Check returns one message per violated threshold. An empty slice means
// the run passed.
func (g *Guardrails) Check(s *EvalSummary) []string {
	var violations []string
	if s == nil || s.TotalQueries == 0 {
		return []string{"no queries evaluated"}
	}

	if g.config.MinIntentAccuracy > 0 && s.IntentAccuracy < g.config.MinIntentAccuracy {
		violations = append(violations, fmt.Sprintf("intent accuracy %.3f below %.3f", s.IntentAccuracy, g.config.MinIntentAccuracy))
	}
	if g.config.MinLocationRecall > 0 && s.AvgLocationRecall < g.config.MinLocationRecall {
		violations = append(violations, fmt.Sprintf("location recall %.3f below %.3f", s.AvgLocationRecall, g.config.MinLocationRecall))
	}
	if g.config.MinOrderAccuracy > 0 && s.OrderedQueries > 0 && s.OrderAccuracy < g.config.MinOrderAccuracy {
		violations = append(violations, fmt.Sprintf("order accuracy %.3f below %.3f", s.OrderAccuracy, g.config.MinOrderAccuracy))
	}
	if g.config.MaxErrorRate > 0 {
		if rate := float64(s.Errors) / float64(s.TotalQueries); rate > g.config.MaxErrorRate {
			violations = append(violations, fmt.Sprintf("error rate %.3f above %.3f", rate, g.config.MaxErrorRate))
		}
	}
	return violations
}
