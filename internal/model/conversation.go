package model

import (
	"time"

	"gorm.io/gorm"
)

type Conversation struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string         `gorm:"column:title;size:255" json:"title,omitempty"`
	LastSeq   uint64         `gorm:"column:last_seq;not null;default:0" json:"lastSeq"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Participants []Participant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
}

func (Conversation) TableName() string {
	return "conversations"
}
