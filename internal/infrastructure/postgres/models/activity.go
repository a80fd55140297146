package models

import "time"

// ChatActivityModel - одно сообщение в окне активности
type ChatActivityModel struct {
	ID       uint      `gorm:"primaryKey"`
	Username string    `gorm:"size:64;not null"`
	At       time.Time `gorm:"not null;index:idx_chat_activity_at"`
}

func (ChatActivityModel) TableName() string {
	return "chat_activity"
}

type RoomPresenceModel struct {
	Username  string `gorm:"primaryKey;size:64"`
	Online    bool   `gorm:"not null"`
	UpdatedAt time.Time
}

func (RoomPresenceModel) TableName() string {
	return "room_presence"
}
