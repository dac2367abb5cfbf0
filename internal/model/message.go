package model

import "time"

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeSystem MessageType = "system"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeSystem:
		return true
	}
	return false
}

// Message ids increase monotonically across all conversations; Seq is dense
// within a single conversation.
type Message struct {
	ID             uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64      `gorm:"column:conversation_id;uniqueIndex:uniq_conv_seq;not null" json:"conversationId"`
	Seq            uint64      `gorm:"column:seq;uniqueIndex:uniq_conv_seq;not null" json:"seq"`
	SenderUID      string      `gorm:"column:sender_uid;size:128;index" json:"senderUid"`
	Type           MessageType `gorm:"column:type;size:16;not null;default:text" json:"type"`
	Body           string      `gorm:"type:text;not null" json:"body"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
