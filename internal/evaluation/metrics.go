package evaluation

import "strings"

// placeKey folds a place name for comparison: "Paris, France" and " paris"
// are the same place.
func placeKey(name string) string {
	if i := strings.IndexByte(name, ','); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(strings.TrimSpace(name))
}

func keySet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[placeKey(n)] = struct{}{}
	}
	return set
}

func topK(names []string, k int) []string {
	if k > 0 && k < len(names) {
		return names[:k]
	}
	return names
}

// RecallAtK is the fraction of expected places found among the first k
// resolved names. k <= 0 means all of them. Returns 0 if expected is empty.
func RecallAtK(expected, resolved []string, k int) float64 {
	if len(expected) == 0 {
		return 0.0
	}

	got := keySet(topK(resolved, k))
	want := keySet(expected)

	found := 0
	for key := range want {
		if _, ok := got[key]; ok {
			found++
		}
	}
	return float64(found) / float64(len(want))
}

// MRRAtK is the reciprocal rank of the first expected place among the first
// k resolved names, or 0 when none appears.
func MRRAtK(expected, resolved []string, k int) float64 {
	if len(expected) == 0 || len(resolved) == 0 {
		return 0.0
	}

	want := keySet(expected)
	for i, name := range topK(resolved, k) {
		if _, ok := want[placeKey(name)]; ok {
			return 1.0 / float64(i+1)
		}
	}
	return 0.0
}

// OrderPreserved reports whether expected appears in resolved as a
// subsequence. Extra resolved places in between are allowed.
func OrderPreserved(expected, resolved []string) bool {
	i := 0
	for _, name := range resolved {
		if i == len(expected) {
			break
		}
		if placeKey(name) == placeKey(expected[i]) {
			i++
		}
	}
	return i == len(expected)
}
