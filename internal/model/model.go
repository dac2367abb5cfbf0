package model

// All lists every persisted model for migrations.
func All() []any {
	return []any{
		&User{},
		&Device{},
		&NotificationPreferences{},
		&Conversation{},
		&Participant{},
		&Message{},
		&Notification{},
		&DeliveryAttempt{},
	}
}
