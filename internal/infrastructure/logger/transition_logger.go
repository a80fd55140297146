package logger

import (
	"context"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

// PGTransitionLogger writes every phase transition to heist_transitions.
type PGTransitionLogger struct {
	db *gorm.DB
}

func NewPGTransitionLogger(db *gorm.DB) *PGTransitionLogger {
	return &PGTransitionLogger{db: db}
}

func (l *PGTransitionLogger) LogTransition(ctx context.Context, entry domain.TransitionLog) error {
	return l.db.WithContext(ctx).Create(&models.HeistTransitionModel{
		EventID:   entry.EventID,
		FromPhase: string(entry.From),
		ToPhase:   string(entry.To),
		Reason:    entry.Reason,
		CreatedAt: entry.At,
	}).Error
}

// ListTransitions returns the audit trail of one event, oldest first.
func (l *PGTransitionLogger) ListTransitions(ctx context.Context, eventID string) ([]domain.TransitionLog, error) {
	var rows []models.HeistTransitionModel
	if err := l.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.TransitionLog, len(rows))
	for i, row := range rows {
		out[i] = domain.TransitionLog{
			EventID: row.EventID,
			From:    domain.Phase(row.FromPhase),
			To:      domain.Phase(row.ToPhase),
			Reason:  row.Reason,
			At:      row.CreatedAt,
		}
	}
	return out, nil
}

var _ domain.TransitionLogger = (*PGTransitionLogger)(nil)
