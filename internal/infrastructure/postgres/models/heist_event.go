package models

import "time"

type HeistEventModel struct {
	ID               string  `gorm:"primaryKey;size:36"`
	Phase            string  `gorm:"size:16;not null;index:idx_phase"`
	CrimeID          *string `gorm:"size:64"`
	OfferedCrimes    string  `gorm:"size:512"`
	CreatedAt        time.Time
	AnnouncedAt      *time.Time
	DepartedAt       *time.Time
	ReturnedAt       *time.Time
	CompletedAt      *time.Time
	TotalHaul        int64 `gorm:"not null;default:0"`
	Success          bool  `gorm:"not null;default:false"`
	Solo             bool  `gorm:"not null;default:false"`
	ParticipantCount int   `gorm:"not null;default:0"`
}

func (HeistEventModel) TableName() string {
	return "heist_events"
}

type HeistVoteModel struct {
	EventID  string    `gorm:"primaryKey;size:36"`
	Username string    `gorm:"primaryKey;size:64"`
	Choice   string    `gorm:"size:64;not null"`
	VotedAt  time.Time `gorm:"not null"`
}

func (HeistVoteModel) TableName() string {
	return "heist_votes"
}

type HeistTransitionModel struct {
	ID        uint   `gorm:"primaryKey"`
	EventID   string `gorm:"index;size:36"`
	FromPhase string `gorm:"size:16"`
	ToPhase   string `gorm:"size:16"`
	Reason    string
	CreatedAt time.Time
}

func (HeistTransitionModel) TableName() string {
	return "heist_transitions"
}
