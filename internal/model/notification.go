package model

import "time"

// Notification is the in-app history entry. A message produces at most one
// entry per user.
type Notification struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement"`
	UserUID        string     `gorm:"column:user_uid;size:128;index;uniqueIndex:uniq_user_message;not null"`
	Type           Category   `gorm:"column:type;size:64;not null"`
	Title          string     `gorm:"column:title;size:255"`
	Body           string     `gorm:"column:body;type:text"`
	ConversationID *uint64    `gorm:"column:conversation_id;index"`
	MessageID      *uint64    `gorm:"column:message_id;uniqueIndex:uniq_user_message"`
	ReadAt         *time.Time `gorm:"column:read_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
