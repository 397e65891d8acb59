package repository

import "time"

// Slot keys mirror the keys the web client kept in sessionStorage.
const (
	slotKeyUser     = "chat-user"
	slotKeyToken    = "chat-token"
	slotKeyClientID = "chat-client-id"
)

type SessionSlotModel struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (SessionSlotModel) TableName() string { return "session_slots" }
