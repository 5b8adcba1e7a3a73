package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyReply(t *testing.T) {
	tests := []struct {
		msg  string
		want ReplyKind
	}{
		{"Yes please", ReplyAffirmative},
		{"SURE", ReplyAffirmative},
		{"that works for me", ReplyAffirmative},
		{"I'll take it", ReplyAffirmative},
		{"go ahead", ReplyAffirmative},
		{"No thanks", ReplyNegative},
		{"I don't think so", ReplyNegative},
		{"skip", ReplyNegative},
		{"cancel that", ReplyNegative},
		{"what about dessert", ReplyNone},
		{"tell me about the curry", ReplyNone},
		// affirmative phrases are checked first
		{"ok, not that one", ReplyAffirmative},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyReply(tt.msg), tt.msg)
	}
}

func TestAsksForConfirmation(t *testing.T) {
	assert.True(t, AsksForConfirmation("I think you might like warm comfort foods. Would that be okay?"))
	assert.True(t, AsksForConfirmation("Is that OK with you"))
	assert.True(t, AsksForConfirmation("Light options, ok?"))
	assert.False(t, AsksForConfirmation("Thank you for letting me know! I've found some suitable options for you."))
}

func TestReplyKindString(t *testing.T) {
	assert.Equal(t, "affirmative", ReplyAffirmative.String())
	assert.Equal(t, "negative", ReplyNegative.String())
	assert.Equal(t, "none", ReplyNone.String())
}
