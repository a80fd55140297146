package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultActivityRepository struct {
	DB *gorm.DB
}

func NewDefaultActivityRepository(db *gorm.DB) *DefaultActivityRepository {
	return &DefaultActivityRepository{DB: db}
}

func (r *DefaultActivityRepository) RecordMessage(ctx context.Context, username string, at time.Time) error {
	model := models.ChatActivityModel{
		Username: domain.NormalizeUsername(username),
		At:       at.UTC(),
	}
	if err := r.DB.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("record chat activity: %w", err)
	}
	return nil
}

// ListMessagesSince returns messages strictly after since, oldest first.
func (r *DefaultActivityRepository) ListMessagesSince(ctx context.Context, since time.Time) ([]domain.ChatActivity, error) {
	var rows []models.ChatActivityModel
	if err := r.DB.WithContext(ctx).
		Where("at > ?", since.UTC()).
		Order("at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list chat activity: %w", err)
	}

	out := make([]domain.ChatActivity, len(rows))
	for i, row := range rows {
		out[i] = domain.ChatActivity{Username: row.Username, At: row.At}
	}
	return out, nil
}

func (r *DefaultActivityRepository) PruneMessages(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("at <= ?", before.UTC()).
		Delete(&models.ChatActivityModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune chat activity: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *DefaultActivityRepository) SetPresence(ctx context.Context, username string, online bool, at time.Time) error {
	model := models.RoomPresenceModel{
		Username:  domain.NormalizeUsername(username),
		Online:    online,
		UpdatedAt: at.UTC(),
	}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"online", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("set presence %s: %w", model.Username, err)
	}
	return nil
}

func (r *DefaultActivityRepository) ListPresence(ctx context.Context) ([]domain.RoomMember, error) {
	var rows []models.RoomPresenceModel
	if err := r.DB.WithContext(ctx).Order("username ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list presence: %w", err)
	}

	out := make([]domain.RoomMember, len(rows))
	for i, row := range rows {
		out[i] = domain.RoomMember{Username: row.Username, Online: row.Online, UpdatedAt: row.UpdatedAt}
	}
	return out, nil
}

var _ domain.ActivityRepository = (*DefaultActivityRepository)(nil)
