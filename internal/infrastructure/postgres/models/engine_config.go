package models

import "time"

// EngineConfigModel - key/value запись состояния движка для восстановления после рестарта
type EngineConfigModel struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (EngineConfigModel) TableName() string {
	return "engine_config"
}

const (
	KeyPhase         = "phase"
	KeyDeadline      = "deadline_ms"
	KeyActiveEventID = "active_event_id"
	KeyOfferedCrimes = "offered_crimes"
	KeySolo          = "solo"
)

// All returns every model owned by the service, in migration order.
func All() []interface{} {
	return []interface{}{
		&EconomyAccountModel{},
		&LedgerEntryModel{},
		&HeistEventModel{},
		&HeistVoteModel{},
		&HeistTransitionModel{},
		&EngineConfigModel{},
		&ChatActivityModel{},
		&RoomPresenceModel{},
	}
}
