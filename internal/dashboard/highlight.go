package dashboard

import "github.com/geosight/dashboard/internal/domain/entities"

// HighlightSet is the set of place ids currently emphasised on the map. It
// keeps insertion order so snapshots are stable. Not safe for concurrent use;
// the owning Coordinator serialises access.
type HighlightSet struct {
	ids   map[string]struct{}
	order []string
}

// NewHighlightSet creates an empty set
func NewHighlightSet() *HighlightSet {
	return &HighlightSet{ids: make(map[string]struct{})}
}

// Add inserts id. Empty ids are ignored.
func (h *HighlightSet) Add(id string) {
	if id == "" {
		return
	}
	if _, ok := h.ids[id]; ok {
		return
	}
	h.ids[id] = struct{}{}
	h.order = append(h.order, id)
}

// Has reports whether id is highlighted
func (h *HighlightSet) Has(id string) bool {
	_, ok := h.ids[id]
	return ok
}

// Clear empties the set
func (h *HighlightSet) Clear() {
	h.ids = make(map[string]struct{})
	h.order = nil
}

// Len returns the number of highlighted ids
func (h *HighlightSet) Len() int {
	return len(h.order)
}

// IDs returns a copy of the ids in insertion order
func (h *HighlightSet) IDs() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

var (
	activeStyle = entities.FeatureStyle{
		FillColor:     "#2563eb",
		FillOpacity:   0.1,
		StrokeColor:   "#2563eb",
		StrokeWeight:  2,
		StrokeOpacity: 1,
	}
	hoverStyle = entities.FeatureStyle{
		FillColor:     "#2563eb",
		FillOpacity:   0.3,
		StrokeColor:   "#1d4ed8",
		StrokeWeight:  3,
		StrokeOpacity: 1,
	}
)

// Style is the feature-layer style function: highlighted features get the
// active style, or the hover style while the pointer is over them. Other
// features are left unstyled.
func (h *HighlightSet) Style(placeID string, hovered bool) (entities.FeatureStyle, bool) {
	if !h.Has(placeID) {
		return entities.FeatureStyle{}, false
	}
	if hovered {
		return hoverStyle, true
	}
	return activeStyle, true
}
