package push

import (
	"strconv"
	"strings"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/rivo/uniseg"
)

const (
	DefaultBodyLimit = 120
	Ellipsis         = "…"
	fallbackTitle    = "New message"
	photoBody        = "Sent a photo"
)

// Truncate shortens s to at most limit user-perceived characters, ending with
// an ellipsis when anything was cut. Grapheme clusters are never split, so
// multi-byte runes and emoji sequences stay intact.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.ToValidUTF8(s, "�")
	if uniseg.GraphemeClusterCount(s) <= limit {
		return s
	}
	var (
		b     strings.Builder
		rest  = s
		state = -1
	)
	for n := 0; n < limit-1 && rest != ""; n++ {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		b.WriteString(cluster)
	}
	return strings.TrimRight(b.String(), " \t\n") + Ellipsis
}

// MessagePayload builds the push for a chat message.
func MessagePayload(msg *model.Message, senderName string, category model.Category, bodyLimit int) Payload {
	title := strings.TrimSpace(senderName)
	if title == "" {
		title = fallbackTitle
	}
	body := strings.TrimSpace(msg.Body)
	if body == "" && msg.Type == model.MessageTypeImage {
		body = photoBody
	}
	convID := strconv.FormatUint(msg.ConversationID, 10)
	return Payload{
		Title: title,
		Body:  Truncate(body, bodyLimit),
		Data: map[string]string{
			"conversationId": convID,
			"messageId":      strconv.FormatUint(msg.ID, 10),
			"category":       string(category),
		},
		Tag: "conversation-" + convID,
	}
}
