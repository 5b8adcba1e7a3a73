package dialogue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"maitred/internal/contextinfo"
	"maitred/internal/database"
	"maitred/internal/llm"
	"maitred/internal/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	mu       sync.Mutex
	calls    int32
	replies  []string
	err      error
	messages [][]llm.Message
	block    chan struct{}
	started  chan struct{}
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.Message, params llm.Params) (string, error) {
	n := atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.messages = append(f.messages, messages)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	i := int(n) - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i], nil
}

type staticMenu []models.Dish

func (m staticMenu) Dishes() []models.Dish { return m }

type staticContext contextinfo.Snapshot

func (s staticContext) Snapshot() contextinfo.Snapshot { return contextinfo.Snapshot(s) }

func newEngine(c llm.Completer) *Engine {
	log, _ := test.NewNullLogger()
	snap := contextinfo.Compute(time.Date(2025, time.January, 15, 19, 30, 0, 0, time.UTC), time.UTC)
	return NewEngine(c, "fake", staticMenu(database.DefaultDishes()), staticContext(snap), log, nil)
}

func TestHandleTurn_EmptyMessage(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"unused"}}
	_, err := newEngine(fc).HandleTurn(context.Background(), NewConversation(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, fc.calls)
}

func TestHandleTurn_DirectRecommendations(t *testing.T) {
	fc := &fakeCompleter{replies: []string{
		"Thank you for letting me know! I've found some suitable options for you. [EXTRACT: preferences:vegetarian|recommendations:1,3,4|confirm:yes]",
	}}
	e := newEngine(fc)
	conv := NewConversation()

	res, err := e.HandleTurn(context.Background(), conv, "I'm vegetarian")
	require.NoError(t, err)
	assert.Equal(t, TurnReply, res.Kind)
	assert.Equal(t, "Thank you for letting me know! I've found some suitable options for you.", res.Reply)
	assert.Equal(t, []int{1, 3, 4}, res.Recommendations)
	assert.False(t, res.Pending)
	assert.Equal(t, []string{"vegetarian"}, res.Needs.Preferences)

	st := conv.State()
	require.Len(t, st.Transcript, 2)
	assert.Equal(t, RoleUser, st.Transcript[0].Role)
	assert.Equal(t, "I'm vegetarian", st.Transcript[0].Content)
	assert.NotContains(t, st.Transcript[1].Content, "EXTRACT")
}

func TestHandleTurn_PromptCarriesContextMenuAndHistory(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"Hello!", "Sure thing."}}
	e := newEngine(fc)
	conv := NewConversation()

	_, err := e.HandleTurn(context.Background(), conv, "hi")
	require.NoError(t, err)
	_, err = e.HandleTurn(context.Background(), conv, "what is good tonight")
	require.NoError(t, err)

	second := fc.messages[1]
	require.Len(t, second, 4)
	assert.Equal(t, llm.RoleSystem, second[0].Role)
	assert.Contains(t, second[0].Content, "CURRENT CONTEXT:\n- Date: January 15, 2025 (Wednesday)")
	assert.Contains(t, second[0].Content, `ID:1 "Garden Salad" (appetizers) - Tags:vegetarian,vegan,low-carb,light Allergens:none Restrictions:none`)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "hi"}, second[1])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "Hello!"}, second[2])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "what is good tonight"}, second[3])
}

func TestHandleTurn_EmptyMenuNotice(t *testing.T) {
	log, _ := test.NewNullLogger()
	fc := &fakeCompleter{replies: []string{"ok"}}
	e := NewEngine(fc, "fake", staticMenu(nil), staticContext{}, log, nil)

	_, err := e.HandleTurn(context.Background(), NewConversation(), "hello")
	require.NoError(t, err)
	assert.Contains(t, fc.messages[0][0].Content, "CURRENT MENU:\nMenu is loading from database. Please wait a moment.")
}

func TestHandleTurn_FilterWhenNoRecommendations(t *testing.T) {
	fc := &fakeCompleter{replies: []string{
		"I'll keep you safe from dairy. [EXTRACT: allergies:dairy|preferences:vegetarian|confirm:yes]",
	}}
	res, err := newEngine(fc).HandleTurn(context.Background(), NewConversation(), "vegetarian, dairy allergy")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 6, 10, 12, 13, 14}, res.Recommendations)
}

func TestHandleTurn_NoTagLeavesStateAlone(t *testing.T) {
	fc := &fakeCompleter{replies: []string{
		"Noted. [EXTRACT: preferences:vegan|recommendations:6|confirm:yes]",
		"Happy to help with anything else!",
	}}
	e := newEngine(fc)
	conv := NewConversation()

	_, err := e.HandleTurn(context.Background(), conv, "vegan please")
	require.NoError(t, err)
	res, err := e.HandleTurn(context.Background(), conv, "thanks")
	require.NoError(t, err)

	assert.Equal(t, TurnReply, res.Kind)
	assert.Equal(t, []int{6}, res.Recommendations)
	assert.Equal(t, []string{"vegan"}, res.Needs.Preferences)
	assert.Len(t, conv.State().Transcript, 4)
}

func TestHandleTurn_AffirmativeAppliesWithoutModelCall(t *testing.T) {
	fc := &fakeCompleter{replies: []string{
		"Given the chilly evening, I think you might like warm comfort foods. Would that be okay? [EXTRACT: emotions:upset|recommendations:4,6,13|confirm:no]",
	}}
	e := newEngine(fc)
	conv := NewConversation()

	res, err := e.HandleTurn(context.Background(), conv, "I'm upset")
	require.NoError(t, err)
	require.True(t, res.Pending)

	res, err = e.HandleTurn(context.Background(), conv, "yes please")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fc.calls)
	assert.Equal(t, TurnApplied, res.Kind)
	assert.False(t, res.ModelCalled)
	assert.False(t, res.Pending)
	assert.Equal(t, AppliedMessage(3), res.Reply)
	assert.Equal(t, []int{4, 6, 13}, res.Recommendations)

	st := conv.State()
	assert.False(t, st.Pending)
	require.Len(t, st.Transcript, 4)
	assert.Equal(t, "yes please", st.Transcript[2].Content)
}

func TestHandleTurn_NegativeDeclines(t *testing.T) {
	fc := &fakeCompleter{replies: []string{
		"Maybe something soothing? Is that ok? [EXTRACT: emotions:tired|recommendations:14|confirm:no]",
	}}
	e := newEngine(fc)
	conv := NewConversation()

	_, err := e.HandleTurn(context.Background(), conv, "I feel tired")
	require.NoError(t, err)

	res, err := e.HandleTurn(context.Background(), conv, "no")
	require.NoError(t, err)
	assert.Equal(t, TurnDeclined, res.Kind)
	assert.Equal(t, DeclinedMessage, res.Reply)
	assert.False(t, res.Pending)
	assert.Equal(t, int32(1), fc.calls)
}

func TestHandleTurn_UnrelatedReplyClearsPending(t *testing.T) {
	fc := &fakeCompleter{replies: []string{
		"Warm foods, would that be good? [EXTRACT: emotions:cold|recommendations:8|confirm:no]",
		"We have soups and hot drinks.",
	}}
	e := newEngine(fc)
	conv := NewConversation()

	_, err := e.HandleTurn(context.Background(), conv, "brr it's cold")
	require.NoError(t, err)
	require.True(t, conv.State().Pending)

	res, err := e.HandleTurn(context.Background(), conv, "what soups are there")
	require.NoError(t, err)
	assert.Equal(t, TurnReply, res.Kind)
	assert.False(t, res.Pending)
	assert.Equal(t, int32(2), fc.calls)
}

func TestHandleTurn_ConfirmNoWithoutQuestionIsNotPending(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"Here are options. [EXTRACT: emotions:happy|recommendations:9|confirm:no]"}}
	res, err := newEngine(fc).HandleTurn(context.Background(), NewConversation(), "I'm happy")
	require.NoError(t, err)
	assert.False(t, res.Pending)
}

func TestHandleTurn_ModelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", &llm.StatusError{Code: 401, Message: "Invalid API-key"}, "Sorry, I encountered an error connecting to the AI service. Please check your API key."},
		{"missing key", llm.ErrMissingAPIKey, "Sorry, I encountered an error connecting to the AI service. Please check your API key."},
		{"rate limited", errors.Wrap(&llm.StatusError{Code: 429, Message: "Throttling"}, "call"), "Sorry, I encountered an error connecting to the AI service. Too many requests. Please wait a moment and try again."},
		{"rate limit text", errors.New("provider said: rate limit exceeded"), "Sorry, I encountered an error connecting to the AI service. Too many requests. Please wait a moment and try again."},
		{"other", errors.New("connection reset"), "Sorry, I encountered an error connecting to the AI service. Please try again in a moment."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewConversation()
			res, err := newEngine(&fakeCompleter{err: tt.err}).HandleTurn(context.Background(), conv, "hello")
			require.NoError(t, err)
			assert.Equal(t, TurnApology, res.Kind)
			assert.Equal(t, tt.want, res.Reply)

			st := conv.State()
			assert.Empty(t, st.Transcript)
			assert.False(t, st.InFlight)
		})
	}
}

func TestHandleTurn_OneTurnInFlight(t *testing.T) {
	fc := &fakeCompleter{
		replies: []string{"done"},
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	e := newEngine(fc)
	conv := NewConversation()

	done := make(chan *TurnResult, 1)
	go func() {
		res, _ := e.HandleTurn(context.Background(), conv, "first")
		done <- res
	}()
	<-fc.started

	_, err := e.HandleTurn(context.Background(), conv, "second")
	assert.ErrorIs(t, err, ErrTurnInFlight)

	close(fc.block)
	res := <-done
	assert.Equal(t, TurnReply, res.Kind)
	assert.Equal(t, int32(1), fc.calls)
}

func TestHandleTurn_ClearDiscardsOutstandingReply(t *testing.T) {
	fc := &fakeCompleter{
		replies: []string{"late reply [EXTRACT: allergies:soy|recommendations:1|confirm:yes]"},
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	e := newEngine(fc)
	conv := NewConversation()

	done := make(chan *TurnResult, 1)
	go func() {
		res, _ := e.HandleTurn(context.Background(), conv, "soy allergy")
		done <- res
	}()
	<-fc.started

	e.Clear(conv)
	res := <-done
	assert.Equal(t, TurnDiscarded, res.Kind)

	st := conv.State()
	assert.Empty(t, st.Transcript)
	assert.Empty(t, st.Recommendations)
	assert.Empty(t, st.Needs.Allergies)
	assert.False(t, st.InFlight)
}

func TestApplyAndClear(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"Noted [EXTRACT: preferences:low-carb|confirm:yes]"}}
	e := newEngine(fc)
	conv := NewConversation()

	res := e.Apply(conv)
	assert.Empty(t, res.Reply, "nothing to apply yet")

	_, err := e.HandleTurn(context.Background(), conv, "low carb")
	require.NoError(t, err)

	res = e.Apply(conv)
	assert.Equal(t, TurnApplied, res.Kind)
	assert.Equal(t, AppliedMessage(2), res.Reply)

	e.Clear(conv)
	st := conv.State()
	assert.Empty(t, st.Transcript)
	assert.Empty(t, st.Recommendations)
	assert.False(t, st.Needs.Active())
	assert.False(t, st.Pending)
}
