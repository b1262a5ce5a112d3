package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecallAtK(t *testing.T) {
	tests := []struct {
		name     string
		expected []string
		resolved []string
		k        int
		want     float64
	}{
		{"all found", []string{"Delhi", "Mumbai"}, []string{"Delhi", "Mumbai", "Pune"}, 10, 1.0},
		{"half found", []string{"Delhi", "Mumbai", "Goa", "Agra"}, []string{"Delhi", "Agra"}, 10, 0.5},
		{"nothing resolved", []string{"Delhi"}, nil, 10, 0.0},
		{"nothing expected", nil, []string{"Delhi"}, 10, 0.0},
		{"cut at k", []string{"Delhi", "Mumbai", "Goa"}, []string{"Delhi", "Mumbai", "Pune", "Agra", "Goa"}, 3, 2.0 / 3.0},
		{"k of zero keeps all", []string{"Delhi", "Goa"}, []string{"Pune", "Agra", "Goa", "Delhi"}, 0, 1.0},
		{"case and qualifier folded", []string{"paris"}, []string{" Paris, France"}, 10, 1.0},
		{"duplicates count once", []string{"Paris", "paris"}, []string{"Paris"}, 10, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RecallAtK(tt.expected, tt.resolved, tt.k), 1e-9)
		})
	}
}

func TestMRRAtK(t *testing.T) {
	tests := []struct {
		name     string
		expected []string
		resolved []string
		want     float64
	}{
		{"first", []string{"Chennai"}, []string{"Chennai", "Madurai"}, 1.0},
		{"third", []string{"Chennai"}, []string{"Vellore", "Salem", "chennai"}, 1.0 / 3.0},
		{"earliest of several", []string{"Kochi", "Salem"}, []string{"Madurai", "Salem", "Kochi"}, 0.5},
		{"missing", []string{"Chennai"}, []string{"Madurai"}, 0.0},
		{"empty resolved", []string{"Chennai"}, nil, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MRRAtK(tt.expected, tt.resolved, 10), 1e-9)
		})
	}

	assert.Zero(t, MRRAtK([]string{"Chennai"}, []string{"a", "b", "Chennai"}, 2))
}

func TestOrderPreserved(t *testing.T) {
	assert.True(t, OrderPreserved([]string{"Delhi", "Mumbai"}, []string{"Delhi", "Mumbai"}))
	assert.True(t, OrderPreserved([]string{"Delhi", "Mumbai"}, []string{"delhi", "Jaipur", "Mumbai, India"}))
	assert.True(t, OrderPreserved(nil, []string{"Delhi"}))
	assert.False(t, OrderPreserved([]string{"Delhi", "Mumbai"}, []string{"Mumbai", "Delhi"}))
	assert.False(t, OrderPreserved([]string{"Delhi", "Mumbai"}, []string{"Delhi"}))
}
