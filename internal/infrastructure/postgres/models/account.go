package models

import "time"

type EconomyAccountModel struct {
	Username           string `gorm:"primaryKey;size:64"`
	Balance            int64  `gorm:"not null;default:0;index:idx_balance"`
	Trust              int64  `gorm:"not null;default:0"`
	TotalEarned        int64  `gorm:"not null;default:0"`
	TotalLost          int64  `gorm:"not null;default:0"`
	EventsParticipated int64  `gorm:"not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (EconomyAccountModel) TableName() string {
	return "economy_accounts"
}

// LedgerEntryModel - аудит каждого изменения баланса или доверия
type LedgerEntryModel struct {
	ID         string    `gorm:"primaryKey;size:32"`
	EventID    string    `gorm:"index;size:36"`
	Username   string    `gorm:"index;size:64;not null"`
	Kind       string    `gorm:"size:32;not null"`
	Amount     int64     `gorm:"not null;default:0"`
	TrustDelta int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"index"`
}

func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}
