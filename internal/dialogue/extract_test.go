package dialogue

import (
	"testing"

	"maitred/internal/recommend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtraction_Example(t *testing.T) {
	x, ok := ParseExtraction("Thanks! [EXTRACT: preferences:vegetarian|recommendations:1,2,4|confirm:yes]")
	require.True(t, ok)
	assert.Equal(t, map[NeedCategory][]string{NeedPreferences: {"vegetarian"}}, x.Needs)
	assert.Equal(t, []int{1, 2, 4}, x.Recommendations)
	assert.True(t, x.Confirm)
}

func TestParseExtraction_NoTag(t *testing.T) {
	x, ok := ParseExtraction("Just a friendly reply with no data.")
	assert.False(t, ok)
	assert.Nil(t, x.Needs)
}

func TestParseExtraction_Lenient(t *testing.T) {
	x, ok := ParseExtraction("[EXTRACT: Emotions: tired , sad|allergies:|mood:grumpy|recommendations:3,x, 7|conditions:sore-throat|confirm:yes/no]")
	require.True(t, ok)

	assert.Equal(t, []string{"tired", "sad"}, x.Needs[NeedEmotions])
	assert.Equal(t, []string{"sore-throat"}, x.Needs[NeedConditions])
	assert.False(t, x.Has(NeedAllergies), "blank values are ignored")
	assert.Len(t, x.Needs, 2, "unknown keys are dropped")
	assert.Equal(t, []int{3, 7}, x.Recommendations)
	assert.False(t, x.Confirm)
}

func TestParseExtraction_FirstTagWins(t *testing.T) {
	x, ok := ParseExtraction("[EXTRACT: allergies:soy] and [EXTRACT: allergies:fish]")
	require.True(t, ok)
	assert.Equal(t, []string{"soy"}, x.Needs[NeedAllergies])
}

func TestParseExtraction_ValueWithColon(t *testing.T) {
	x, ok := ParseExtraction("[EXTRACT: preferences:low-carb:strict]")
	require.True(t, ok)
	assert.Equal(t, []string{"low-carb:strict"}, x.Needs[NeedPreferences])
}

func TestStripTags(t *testing.T) {
	got := StripTags("  Warm soups sound lovely. [EXTRACT: emotions:cold|confirm:no] Anything else? [EXTRACT: x:y] ")
	assert.Equal(t, "Warm soups sound lovely.  Anything else?", got)
	assert.Equal(t, "plain", StripTags("plain"))
}

func TestNeedTracker_Apply(t *testing.T) {
	var n NeedTracker
	assert.False(t, n.Active())

	n.Apply(Extraction{Needs: map[NeedCategory][]string{
		NeedAllergies:   {"Peanuts", "peanuts", " dairy "},
		NeedPreferences: {"vegetarian"},
	}})
	assert.Equal(t, []string{"peanuts", "dairy"}, n.Allergies)
	assert.True(t, n.HasNonConditionNeeds())

	// absent categories are kept, present ones replaced wholesale
	n.Apply(Extraction{Needs: map[NeedCategory][]string{NeedAllergies: {"soy"}}})
	assert.Equal(t, []string{"soy"}, n.Allergies)
	assert.Equal(t, []string{"vegetarian"}, n.Preferences)

	n.Reset()
	assert.False(t, n.Active())
}

func TestNeedTracker_EmotionsAreActive(t *testing.T) {
	var n NeedTracker
	n.Apply(Extraction{Needs: map[NeedCategory][]string{NeedEmotions: {"upset"}}})
	assert.True(t, n.Active())
	assert.False(t, n.HasNonConditionNeeds())
	assert.Equal(t, recommend.Profile{Emotions: []string{"upset"}}, n.Profile())
}
