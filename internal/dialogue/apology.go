package dialogue

import (
	"strings"

	"maitred/internal/llm"

	"github.com/pkg/errors"
)

const (
	apologyPrefix  = "Sorry, I encountered an error connecting to the AI service. "
	apologyKey     = "Please check your API key."
	apologyRate    = "Too many requests. Please wait a moment and try again."
	apologyGeneric = "Please try again in a moment."
)

// Apology turns a model failure into the message shown to the diner
func Apology(err error) string {
	var se *llm.StatusError
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		return apologyPrefix + apologyKey
	case errors.As(err, &se) && se.Code == 401:
		return apologyPrefix + apologyKey
	case errors.As(err, &se) && se.Code == 429:
		return apologyPrefix + apologyRate
	}

	// some providers only report the status in the message text
	msg := err.Error()
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "Unauthorized"):
		return apologyPrefix + apologyKey
	case strings.Contains(msg, "429"), strings.Contains(strings.ToLower(msg), "rate limit"):
		return apologyPrefix + apologyRate
	}
	return apologyPrefix + apologyGeneric
}
