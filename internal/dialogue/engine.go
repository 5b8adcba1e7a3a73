package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"maitred/internal/contextinfo"
	"maitred/internal/llm"
	"maitred/internal/models"
	"maitred/internal/monitoring"
	"maitred/internal/recommend"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrEmptyMessage is returned for blank messages; callers ignore them
	ErrEmptyMessage = errors.New("empty message")
	// ErrTurnInFlight is returned while the conversation awaits a model reply
	ErrTurnInFlight = errors.New("a message is already being processed")
)

// DeclinedMessage answers a diner who turns a suggestion down
const DeclinedMessage = "No problem! Let me know what else I can help you with."

// AppliedMessage announces that n recommendations are now marked on the menu
func AppliedMessage(n int) string {
	return fmt.Sprintf(`Great! I've applied %d recommendations to your menu. Look for items marked with "✓ Recommended for you".`, n)
}

// TurnKind says how a turn was resolved
type TurnKind string

const (
	TurnReply     TurnKind = "reply"
	TurnApplied   TurnKind = "applied"
	TurnDeclined  TurnKind = "declined"
	TurnApology   TurnKind = "apology"
	TurnDiscarded TurnKind = "discarded"
)

// TurnResult is what the diner sees after a turn
type TurnResult struct {
	Kind            TurnKind    `json:"kind"`
	Reply           string      `json:"reply,omitempty"`
	Recommendations []int       `json:"recommendations"`
	Pending         bool        `json:"pending"`
	Needs           NeedTracker `json:"needs"`
	// ModelCalled is false when the turn was answered locally
	ModelCalled bool `json:"model_called"`
}

// MenuReader is the menu snapshot the engine reads
type MenuReader interface {
	Dishes() []models.Dish
}

// ContextReader provides the current context snapshot
type ContextReader interface {
	Snapshot() contextinfo.Snapshot
}

// Engine runs dialogue turns against a model
type Engine struct {
	completer llm.Completer
	provider  string
	menu      MenuReader
	context   ContextReader
	params    llm.Params
	log       logrus.FieldLogger
	metrics   *monitoring.Metrics
	now       func() time.Time
}

// NewEngine creates an engine. provider only labels metrics.
func NewEngine(completer llm.Completer, provider string, menu MenuReader, ctxReader ContextReader, log logrus.FieldLogger, metrics *monitoring.Metrics) *Engine {
	return &Engine{
		completer: completer,
		provider:  provider,
		menu:      menu,
		context:   ctxReader,
		params:    llm.DefaultParams(),
		log:       log.WithField("component", "dialogue"),
		metrics:   metrics,
		now:       time.Now,
	}
}

func resultLocked(conv *Conversation, kind TurnKind, reply string, modelCalled bool) *TurnResult {
	return &TurnResult{
		Kind:            kind,
		Reply:           reply,
		Recommendations: append([]int{}, conv.recommendations...),
		Pending:         conv.pending,
		Needs:           conv.needs.clone(),
		ModelCalled:     modelCalled,
	}
}

// HandleTurn processes one diner message. At most one turn per conversation
// waits on the model at a time.
func (e *Engine) HandleTurn(ctx context.Context, conv *Conversation, message string) (*TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	conv.mu.Lock()
	if conv.inFlight {
		conv.mu.Unlock()
		return nil, ErrTurnInFlight
	}

	if conv.pending {
		conv.pending = false
		switch ClassifyReply(message) {
		case ReplyAffirmative:
			now := e.now()
			conv.appendLocked(RoleUser, message, now)
			reply := ""
			if n := len(conv.recommendations); n > 0 {
				reply = AppliedMessage(n)
				conv.appendLocked(RoleAssistant, reply, now)
			}
			res := resultLocked(conv, TurnApplied, reply, false)
			conv.mu.Unlock()
			e.metrics.ChatTurn(string(TurnApplied))
			return res, nil
		case ReplyNegative:
			now := e.now()
			conv.appendLocked(RoleUser, message, now)
			conv.appendLocked(RoleAssistant, DeclinedMessage, now)
			res := resultLocked(conv, TurnDeclined, DeclinedMessage, false)
			conv.mu.Unlock()
			e.metrics.ChatTurn(string(TurnDeclined))
			return res, nil
		}
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	conv.inFlight = true
	conv.cancel = cancel
	generation := conv.generation
	history := append([]Entry{}, conv.transcript...)
	conv.mu.Unlock()

	menu := e.menu.Dishes()
	messages := BuildMessages(SystemPrompt(e.context.Snapshot(), menu), history, message)

	start := time.Now()
	text, err := e.completer.Complete(reqCtx, messages, e.params)
	e.metrics.ObserveLLM(e.provider, time.Since(start))

	conv.mu.Lock()
	defer conv.mu.Unlock()

	if conv.generation != generation {
		e.log.Debug("discarding reply for a cleared conversation")
		e.metrics.ChatTurn(string(TurnDiscarded))
		return resultLocked(conv, TurnDiscarded, "", true), nil
	}
	conv.inFlight = false
	conv.cancel = nil

	if err != nil {
		e.log.WithError(err).WithField("provider", e.provider).Error("model request failed")
		e.metrics.ChatTurn(string(TurnApology))
		return resultLocked(conv, TurnApology, Apology(err), true), nil
	}

	display := StripTags(text)
	if x, ok := ParseExtraction(text); ok {
		e.applyExtractionLocked(conv, x, display, menu)
	}

	now := e.now()
	conv.appendLocked(RoleUser, message, now)
	conv.appendLocked(RoleAssistant, display, now)

	e.metrics.ChatTurn(string(TurnReply))
	return resultLocked(conv, TurnReply, display, true), nil
}

func (e *Engine) applyExtractionLocked(conv *Conversation, x Extraction, display string, menu []models.Dish) {
	conv.needs.Apply(x)

	if len(x.Recommendations) > 0 {
		conv.recommendations = append([]int{}, x.Recommendations...)
		if x.Confirm {
			conv.pending = false
		} else {
			conv.pending = AsksForConfirmation(display)
		}
		return
	}

	if conv.needs.Active() {
		conv.recommendations = recommend.Eligible(menu, conv.needs.Profile())
	} else {
		conv.recommendations = []int{}
	}
	e.log.WithFields(logrus.Fields{
		"needs":           conv.needs,
		"recommendations": conv.recommendations,
	}).Debug("recommendations recomputed from needs")
}

// Apply marks the current recommendations as applied and clears any pending question
func (e *Engine) Apply(conv *Conversation) *TurnResult {
	conv.mu.Lock()
	defer conv.mu.Unlock()

	conv.pending = false
	reply := ""
	if n := len(conv.recommendations); n > 0 {
		reply = AppliedMessage(n)
		conv.appendLocked(RoleAssistant, reply, e.now())
	}
	e.metrics.ChatTurn(string(TurnApplied))
	return resultLocked(conv, TurnApplied, reply, false)
}

// Clear resets the conversation and abandons any outstanding model request
func (e *Engine) Clear(conv *Conversation) {
	conv.mu.Lock()
	defer conv.mu.Unlock()

	if conv.cancel != nil {
		conv.cancel()
		conv.cancel = nil
	}
	conv.generation++
	conv.inFlight = false
	conv.transcript = nil
	conv.needs.Reset()
	conv.recommendations = nil
	conv.pending = false
}
