// Package recommend selects the dishes that suit a diner's stated needs.
package recommend

import (
	"strings"

	"maitred/internal/models"
)

// Well-known preference and condition values understood by the filter
const (
	PreferenceVegetarian = "vegetarian"
	PreferenceVegan      = "vegan"
	PreferenceLowCarb    = "low-carb"
	ConditionSoreThroat  = "sore-throat"
)

// Profile is the set of needs the filter reads. Values are lowercase.
type Profile struct {
	Emotions     []string
	Allergies    []string
	Restrictions []string
	Preferences  []string
	Conditions   []string
}

// Active reports whether any category holds a value
func (p Profile) Active() bool {
	return len(p.Emotions) > 0 || len(p.Conditions) > 0 || p.HasNonConditionNeeds()
}

// HasNonConditionNeeds reports whether allergies, restrictions or preferences are set
func (p Profile) HasNonConditionNeeds() bool {
	return len(p.Allergies) > 0 || len(p.Restrictions) > 0 || len(p.Preferences) > 0
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// Eligible returns the ids of the dishes that suit p, in menu order.
// An inactive profile yields no dishes.
func Eligible(menu []models.Dish, p Profile) []int {
	ids := []int{}
	if !p.Active() {
		return ids
	}
	for i := range menu {
		if suits(&menu[i], p) {
			ids = append(ids, menu[i].ID)
		}
	}
	return ids
}

func suits(d *models.Dish, p Profile) bool {
	for _, a := range p.Allergies {
		if d.Allergens.Contains(a) {
			return false
		}
	}
	for _, r := range p.Restrictions {
		if d.Restrictions.Contains(r) {
			return false
		}
	}

	if contains(p.Preferences, PreferenceVegetarian) && !d.HasTag("vegetarian") {
		return false
	}
	if contains(p.Preferences, PreferenceVegan) && !d.HasTag("vegan") && !d.HasTag("vegan-option") {
		return false
	}
	if contains(p.Preferences, PreferenceLowCarb) && !d.HasTag("low-carb") {
		return false
	}

	if contains(p.Conditions, ConditionSoreThroat) {
		if soothing(d) {
			return true
		}
		// with nothing else to go on only soothing dishes qualify
		if !p.HasNonConditionNeeds() {
			return false
		}
	}
	return true
}

// soothing matches soft mains and warm drinks
func soothing(d *models.Dish) bool {
	name := strings.ToLower(d.Name)
	switch models.Category(d.Category) {
	case models.CategoryMains:
		return strings.Contains(name, "pasta") || strings.Contains(name, "curry")
	case models.CategoryDrinks:
		return strings.Contains(name, "coffee") || strings.Contains(name, "lemonade")
	}
	return false
}
