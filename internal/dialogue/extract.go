package dialogue

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	firstTag = regexp.MustCompile(`\[EXTRACT:(.*?)\]`)
	anyTag   = regexp.MustCompile(`\[EXTRACT:.*?\]`)
)

// Extraction is the structured data the assistant appends to a reply
type Extraction struct {
	// Needs holds only the categories present in the tag
	Needs           map[NeedCategory][]string
	Recommendations []int
	Confirm         bool
}

// Has reports whether category c was present in the tag
func (x Extraction) Has(c NeedCategory) bool {
	_, ok := x.Needs[c]
	return ok
}

// ParseExtraction reads the first [EXTRACT: ...] tag in text. The second
// result is false when the text carries no tag.
func ParseExtraction(text string) (Extraction, bool) {
	m := firstTag.FindStringSubmatch(text)
	if m == nil {
		return Extraction{}, false
	}

	x := Extraction{Needs: map[NeedCategory][]string{}}
	for _, part := range strings.Split(m[1], "|") {
		key, raw, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		items := splitValues(raw)
		if len(items) == 0 {
			continue
		}

		switch k := strings.ToLower(strings.TrimSpace(key)); k {
		case string(NeedEmotions), string(NeedAllergies), string(NeedRestrictions),
			string(NeedPreferences), string(NeedConditions):
			x.Needs[NeedCategory(k)] = items
		case "recommendations":
			ids := make([]int, 0, len(items))
			for _, item := range items {
				if id, err := strconv.Atoi(item); err == nil {
					ids = append(ids, id)
				}
			}
			x.Recommendations = ids
		case "confirm":
			x.Confirm = strings.EqualFold(items[0], "yes")
		}
	}
	return x, true
}

func splitValues(raw string) []string {
	var items []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			items = append(items, v)
		}
	}
	return items
}

// StripTags removes every tag from text and trims the result
func StripTags(text string) string {
	return strings.TrimSpace(anyTag.ReplaceAllString(text, ""))
}
