package dialogue

import "strings"

// ReplyKind classifies a diner's answer to a confirmation question
type ReplyKind int

const (
	ReplyNone ReplyKind = iota
	ReplyAffirmative
	ReplyNegative
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyAffirmative:
		return "affirmative"
	case ReplyNegative:
		return "negative"
	}
	return "none"
}

// Phrases are matched as substrings of the lowercased message. Affirmative
// phrases win, so "ok, not that one" counts as a yes.
var (
	affirmativePhrases = []string{
		"ok", "okay", "yes", "sure", "sounds good", "that works", "fine",
		"that's fine", "give me", "i want", "i'll take", "i take", "that's good",
		"sounds great", "go ahead", "please", "do it", "apply", "use that",
	}
	negativePhrases = []string{"no", "not", "dont", "don't", "cancel", "skip"}
	askingPhrases   = []string{"okay", "ok?", "would that be", "is that ok"}
)

// ClassifyReply decides whether msg accepts or declines a pending suggestion
func ClassifyReply(msg string) ReplyKind {
	m := strings.ToLower(msg)
	if containsAny(m, affirmativePhrases) {
		return ReplyAffirmative
	}
	if containsAny(m, negativePhrases) {
		return ReplyNegative
	}
	return ReplyNone
}

// AsksForConfirmation reports whether an assistant reply asks the diner to confirm
func AsksForConfirmation(reply string) bool {
	return containsAny(strings.ToLower(reply), askingPhrases)
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
