package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultHeistRepository struct {
	DB *gorm.DB
}

func NewDefaultHeistRepository(db *gorm.DB) *DefaultHeistRepository {
	return &DefaultHeistRepository{DB: db}
}

func (r *DefaultHeistRepository) CreateEvent(ctx context.Context, event *domain.HeistEvent, state domain.EngineState) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Глобальный синглтон: незакрытые события закрываются до создания нового
		if _, err := abortActiveTx(tx, event.ID, event.CreatedAt); err != nil {
			return err
		}
		if err := tx.Create(mappers.ToGORMHeistEvent(event)).Error; err != nil {
			return fmt.Errorf("create heist event: %w", err)
		}
		return saveStateTx(tx, state)
	})
}

func (r *DefaultHeistRepository) GetEvent(ctx context.Context, eventID string) (*domain.HeistEvent, error) {
	var model models.HeistEventModel
	if err := r.DB.WithContext(ctx).First(&model, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return mappers.ToDomainHeistEvent(&model), nil
}

func (r *DefaultHeistRepository) AdvanceEvent(ctx context.Context, t domain.EventTransition, state domain.EngineState) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := advanceEventTx(tx, t); err != nil {
			return err
		}
		return saveStateTx(tx, state)
	})
}

func (r *DefaultHeistRepository) AbortActiveEvents(ctx context.Context, exceptID string, at time.Time) (int64, error) {
	return abortActiveTx(r.DB.WithContext(ctx), exceptID, at)
}

func (r *DefaultHeistRepository) CountActiveEvents(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.HeistEventModel{}).
		Where("phase IN ?", phaseStrings(domain.ActiveEventPhases)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count active events: %w", err)
	}
	return count, nil
}

func (r *DefaultHeistRepository) ListEvents(ctx context.Context, limit int) ([]*domain.HeistEvent, error) {
	var eventModels []models.HeistEventModel
	query := r.DB.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&eventModels).Error; err != nil {
		return nil, fmt.Errorf("list heist events: %w", err)
	}

	events := make([]*domain.HeistEvent, len(eventModels))
	for i := range eventModels {
		events[i] = mappers.ToDomainHeistEvent(&eventModels[i])
	}
	return events, nil
}

func (r *DefaultHeistRepository) UpsertVote(ctx context.Context, vote *domain.Vote) error {
	model := mappers.ToGORMVote(vote)
	model.Username = domain.NormalizeUsername(model.Username)

	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"choice", "voted_at"}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	return nil
}

func (r *DefaultHeistRepository) ListVotes(ctx context.Context, eventID string) ([]*domain.Vote, error) {
	var voteModels []models.HeistVoteModel
	if err := r.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("voted_at ASC").
		Find(&voteModels).Error; err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}

	votes := make([]*domain.Vote, len(voteModels))
	for i := range voteModels {
		votes[i] = mappers.ToDomainVote(&voteModels[i])
	}
	return votes, nil
}

// advanceEventTx is a compare-and-set on the event phase. A zero row count
// means another transition already moved the event.
func advanceEventTx(tx *gorm.DB, t domain.EventTransition) error {
	updates := map[string]interface{}{
		"phase": string(t.To),
	}

	switch t.To {
	case domain.PhaseInProgress:
		updates["departed_at"] = t.At
	case domain.PhaseCooldown:
		updates["returned_at"] = t.At
	case domain.PhaseCompleted, domain.PhaseAborted:
		updates["completed_at"] = t.At
	}

	if t.CrimeID != nil {
		updates["crime_id"] = *t.CrimeID
	}
	if t.Solo != nil {
		updates["solo"] = *t.Solo
	}
	if t.ParticipantCount != nil {
		updates["participant_count"] = *t.ParticipantCount
	}
	if t.TotalHaul != nil {
		updates["total_haul"] = *t.TotalHaul
	}
	if t.Success != nil {
		updates["success"] = *t.Success
	}

	res := tx.Model(&models.HeistEventModel{}).
		Where("id = ? AND phase = ?", t.EventID, string(t.From)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("advance event %s %s->%s: %w", t.EventID, t.From, t.To, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: event %s is not in %s", domain.ErrStaleTransition, t.EventID, t.From)
	}
	return nil
}

func abortActiveTx(tx *gorm.DB, exceptID string, at time.Time) (int64, error) {
	query := tx.Model(&models.HeistEventModel{}).
		Where("phase IN ?", phaseStrings(domain.ActiveEventPhases))
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}

	res := query.Updates(map[string]interface{}{
		"phase":        string(domain.PhaseAborted),
		"completed_at": at,
	})
	if res.Error != nil {
		return 0, fmt.Errorf("abort active events: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func phaseStrings(phases []domain.Phase) []string {
	out := make([]string, len(phases))
	for i, p := range phases {
		out[i] = string(p)
	}
	return out
}
