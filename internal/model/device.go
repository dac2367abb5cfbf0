package model

import "time"

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		return true
	}
	return false
}

// Device is a push destination. For web devices Token holds the push
// subscription endpoint and the two key fields are required.
type Device struct {
	ID            uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserUID       string     `gorm:"column:user_uid;size:128;index;not null" json:"userUid"`
	Token         string     `gorm:"column:token;size:512;uniqueIndex;not null" json:"-"`
	Platform      Platform   `gorm:"column:platform;size:16;not null" json:"platform"`
	WebPushP256dh string     `gorm:"column:webpush_p256dh;size:255" json:"-"`
	WebPushAuth   string     `gorm:"column:webpush_auth;size:255" json:"-"`
	Active        bool       `gorm:"column:active;not null" json:"active"`
	LastSeenAt    time.Time  `gorm:"column:last_seen_at;index" json:"lastSeenAt"`
	DeactivatedAt *time.Time `gorm:"column:deactivated_at" json:"deactivatedAt,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Device) TableName() string {
	return "devices"
}
