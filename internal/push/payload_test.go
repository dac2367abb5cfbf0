package push

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/rivo/uniseg"
	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short stays", "hello", 10, "hello"},
		{"exact stays", "hello", 5, "hello"},
		{"cut with ellipsis", "hello world", 6, "hello…"},
		{"trailing space trimmed", "hello world", 7, "hello…"},
		{"multibyte", "こんにちは世界", 4, "こんに…"},
		{"flag emoji kept whole", "🇯🇵🇯🇵🇯🇵", 2, "🇯🇵…"},
		{"family emoji kept whole", "👨‍👩‍👧👨‍👩‍👧", 2, "👨‍👩‍👧…"},
		{"combining mark kept", "e\u0301e\u0301e\u0301e\u0301", 3, "e\u0301e\u0301…"},
		{"zero limit", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.limit))
		})
	}
}

func TestTruncateLongBodyRespectsLimit(t *testing.T) {
	body := strings.Repeat("\u00e4🚀", 250)
	assert.Equal(t, 500, uniseg.GraphemeClusterCount(body))

	got := Truncate(body, DefaultBodyLimit)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, DefaultBodyLimit, uniseg.GraphemeClusterCount(got))
	assert.True(t, strings.HasSuffix(got, Ellipsis))
	assert.True(t, strings.HasPrefix(body, strings.TrimSuffix(got, Ellipsis)))
}

func TestMessagePayload(t *testing.T) {
	msg := &model.Message{ID: 42, ConversationID: 7, Type: model.MessageTypeText, Body: "Is the tent still available?"}

	p := MessagePayload(msg, "Alex", model.CategoryMessage, DefaultBodyLimit)
	assert.Equal(t, "Alex", p.Title)
	assert.Equal(t, "Is the tent still available?", p.Body)
	assert.Equal(t, map[string]string{
		"conversationId": "7",
		"messageId":      "42",
		"category":       "message",
	}, p.Data)
	assert.Equal(t, "conversation-7", p.Tag)
}

func TestMessagePayloadFallbacks(t *testing.T) {
	msg := &model.Message{ID: 1, ConversationID: 2, Type: model.MessageTypeImage}

	p := MessagePayload(msg, "  ", model.CategoryMessage, DefaultBodyLimit)
	assert.Equal(t, "New message", p.Title)
	assert.Equal(t, "Sent a photo", p.Body)
}
