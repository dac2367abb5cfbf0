package model

import "time"

const (
	DefaultQuietStart = "22:00"
	DefaultQuietEnd   = "08:00"
)

// NotificationPreferences is a user's push settings. A missing row means
// every category is enabled.
type NotificationPreferences struct {
	UserUID             string    `gorm:"column:user_uid;primaryKey;size:128" json:"-"`
	Disabled            bool      `gorm:"column:disabled;not null" json:"disabled"`
	MessagesEnabled     bool      `gorm:"column:messages_enabled;not null" json:"messages"`
	OffersEnabled       bool      `gorm:"column:offers_enabled;not null" json:"offers"`
	TransactionsEnabled bool      `gorm:"column:transactions_enabled;not null" json:"transactions"`
	SystemEnabled       bool      `gorm:"column:system_enabled;not null" json:"system"`
	QuietHoursEnabled   bool      `gorm:"column:quiet_hours_enabled;not null" json:"quietHoursEnabled"`
	QuietStart          string    `gorm:"column:quiet_start;size:5" json:"quietHoursStart"`
	QuietEnd            string    `gorm:"column:quiet_end;size:5" json:"quietHoursEnd"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (NotificationPreferences) TableName() string {
	return "notification_preferences"
}

func DefaultPreferences(uid string) NotificationPreferences {
	return NotificationPreferences{
		UserUID:             uid,
		MessagesEnabled:     true,
		OffersEnabled:       true,
		TransactionsEnabled: true,
		SystemEnabled:       true,
		QuietStart:          DefaultQuietStart,
		QuietEnd:            DefaultQuietEnd,
	}
}

func (p *NotificationPreferences) CategoryEnabled(c Category) bool {
	switch c {
	case CategoryMessage:
		return p.MessagesEnabled
	case CategoryOffer:
		return p.OffersEnabled
	case CategoryTransaction:
		return p.TransactionsEnabled
	case CategorySystem:
		return p.SystemEnabled
	}
	return false
}
