package model

import "time"

type DeliveryStatus string

const (
	DeliveryQueued          DeliveryStatus = "queued"
	DeliverySent            DeliveryStatus = "sent"
	DeliveryFailedRetryable DeliveryStatus = "failed_retryable"
	DeliveryFailedPermanent DeliveryStatus = "failed_permanent"
	DeliveryNoDevice        DeliveryStatus = "no_device"
)

func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	switch st := DeliveryStatus(s); st {
	case DeliveryQueued, DeliverySent, DeliveryFailedRetryable, DeliveryFailedPermanent, DeliveryNoDevice:
		return st, true
	}
	return "", false
}

// Terminal reports whether the status will not change again.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliverySent || s == DeliveryFailedPermanent || s == DeliveryNoDevice
}

// DeliveryAttempt is the audit record of pushing one message to one device.
// DeviceID is zero for the synthetic no_device outcome.
type DeliveryAttempt struct {
	ID                string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	MessageID         uint64         `gorm:"column:message_id;uniqueIndex:uniq_msg_recipient_device;not null" json:"messageId"`
	RecipientUID      string         `gorm:"column:recipient_uid;size:128;uniqueIndex:uniq_msg_recipient_device;index;not null" json:"recipientUid"`
	DeviceID          uint64         `gorm:"column:device_id;uniqueIndex:uniq_msg_recipient_device;not null" json:"deviceId"`
	ConversationID    uint64         `gorm:"column:conversation_id;index" json:"conversationId"`
	Platform          Platform       `gorm:"column:platform;size:16" json:"platform,omitempty"`
	Category          Category       `gorm:"column:category;size:32;not null" json:"category"`
	Status            DeliveryStatus `gorm:"column:status;size:32;index;not null" json:"status"`
	Tries             int            `gorm:"column:tries;not null;default:0" json:"tries"`
	LastError         string         `gorm:"column:last_error;type:text" json:"lastError,omitempty"`
	ProviderMessageID string         `gorm:"column:provider_message_id;size:255" json:"providerMessageId,omitempty"`
	CreatedAt         time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (DeliveryAttempt) TableName() string {
	return "delivery_attempts"
}
