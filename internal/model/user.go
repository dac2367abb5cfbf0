package model

import "time"

type User struct {
	UID         string    `gorm:"column:uid;primaryKey;size:128" json:"uid"`
	DisplayName string    `gorm:"column:display_name;size:255" json:"displayName"`
	Timezone    string    `gorm:"column:timezone;size:64" json:"timezone,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
