package model

import "time"

// Participant is one user's membership in a conversation. Muted participants
// receive no message notifications for the conversation.
type Participant struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement" json:"-"`
	ConversationID uint64     `gorm:"column:conversation_id;uniqueIndex:uniq_conv_uid;not null" json:"conversationId"`
	UserUID        string     `gorm:"column:user_uid;size:128;uniqueIndex:uniq_conv_uid;index;not null" json:"userUid"`
	Muted          bool       `gorm:"column:muted;not null;default:false" json:"muted"`
	LastReadAt     *time.Time `gorm:"column:last_read_at" json:"lastReadAt,omitempty"`
	JoinedAt       time.Time  `gorm:"column:joined_at;autoCreateTime" json:"joinedAt"`
}

func (Participant) TableName() string {
	return "conversation_participants"
}
