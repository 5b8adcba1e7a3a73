package dialogue

import (
	"strings"

	"maitred/internal/recommend"
)

// NeedCategory names one list of the need tracker
type NeedCategory string

const (
	NeedEmotions     NeedCategory = "emotions"
	NeedAllergies    NeedCategory = "allergies"
	NeedRestrictions NeedCategory = "restrictions"
	NeedPreferences  NeedCategory = "preferences"
	NeedConditions   NeedCategory = "conditions"
)

// NeedCategories lists every category in tag order
var NeedCategories = []NeedCategory{NeedEmotions, NeedAllergies, NeedRestrictions, NeedPreferences, NeedConditions}

// NeedTracker accumulates what the diner has told the assistant. Every list
// is lowercase and free of duplicates.
type NeedTracker struct {
	Emotions         []string `json:"emotions"`
	Allergies        []string `json:"allergies"`
	Restrictions     []string `json:"restrictions"`
	Preferences      []string `json:"preferences"`
	HealthConditions []string `json:"health_conditions"`
}

func (n *NeedTracker) list(c NeedCategory) *[]string {
	switch c {
	case NeedEmotions:
		return &n.Emotions
	case NeedAllergies:
		return &n.Allergies
	case NeedRestrictions:
		return &n.Restrictions
	case NeedPreferences:
		return &n.Preferences
	case NeedConditions:
		return &n.HealthConditions
	}
	return nil
}

// Apply replaces every category present in x; absent categories are kept
func (n *NeedTracker) Apply(x Extraction) {
	for c, values := range x.Needs {
		if dst := n.list(c); dst != nil {
			*dst = normalize(values)
		}
	}
}

// Active reports whether any category holds a value
func (n NeedTracker) Active() bool {
	return n.Profile().Active()
}

// HasNonConditionNeeds reports whether allergies, restrictions or preferences are known
func (n NeedTracker) HasNonConditionNeeds() bool {
	return n.Profile().HasNonConditionNeeds()
}

// Reset empties every category
func (n *NeedTracker) Reset() {
	*n = NeedTracker{}
}

// Profile is the filter's view of the tracker
func (n NeedTracker) Profile() recommend.Profile {
	return recommend.Profile{
		Emotions:     n.Emotions,
		Allergies:    n.Allergies,
		Restrictions: n.Restrictions,
		Preferences:  n.Preferences,
		Conditions:   n.HealthConditions,
	}
}

func (n NeedTracker) clone() NeedTracker {
	cp := func(s []string) []string { return append([]string(nil), s...) }
	return NeedTracker{
		Emotions:         cp(n.Emotions),
		Allergies:        cp(n.Allergies),
		Restrictions:     cp(n.Restrictions),
		Preferences:      cp(n.Preferences),
		HealthConditions: cp(n.HealthConditions),
	}
}

// normalize lowercases, trims and deduplicates, keeping first occurrences
func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
