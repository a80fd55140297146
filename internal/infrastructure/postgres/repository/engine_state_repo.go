package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultEngineStateRepository struct {
	DB *gorm.DB
}

func NewDefaultEngineStateRepository(db *gorm.DB) *DefaultEngineStateRepository {
	return &DefaultEngineStateRepository{DB: db}
}

func (r *DefaultEngineStateRepository) Load(ctx context.Context) (domain.EngineState, error) {
	var rows []models.EngineConfigModel
	if err := r.DB.WithContext(ctx).Find(&rows).Error; err != nil {
		return domain.EngineState{}, fmt.Errorf("load engine config: %w", err)
	}
	if len(rows) == 0 {
		return domain.EngineState{}, domain.ErrStateNotFound
	}

	values := make(map[string]string, len(rows))
	var updatedAt time.Time
	for _, row := range rows {
		values[row.Key] = row.Value
		if row.UpdatedAt.After(updatedAt) {
			updatedAt = row.UpdatedAt
		}
	}

	phase, ok := values[models.KeyPhase]
	if !ok {
		return domain.EngineState{}, fmt.Errorf("%w: phase key missing", domain.ErrCorruptedState)
	}

	state := domain.EngineState{
		Phase:         domain.Phase(phase),
		ActiveEventID: values[models.KeyActiveEventID],
		OfferedCrimes: mappers.SplitList(values[models.KeyOfferedCrimes]),
		Solo:          values[models.KeySolo] == "true",
		UpdatedAt:     updatedAt,
	}

	if raw := values[models.KeyDeadline]; raw != "" && raw != "0" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.EngineState{}, fmt.Errorf("%w: deadline %q: %v", domain.ErrCorruptedState, raw, err)
		}
		state.Deadline = time.UnixMilli(ms)
	}

	return state, nil
}

func (r *DefaultEngineStateRepository) Save(ctx context.Context, state domain.EngineState) error {
	return saveStateTx(r.DB.WithContext(ctx), state)
}

// saveStateTx upserts every engine_config key. It is shared by the
// repositories that persist a state change together with other rows.
func saveStateTx(tx *gorm.DB, state domain.EngineState) error {
	var deadline int64
	if state.HasDeadline() {
		deadline = state.Deadline.UnixMilli()
	}

	now := time.Now()
	rows := []models.EngineConfigModel{
		{Key: models.KeyPhase, Value: string(state.Phase), UpdatedAt: now},
		{Key: models.KeyDeadline, Value: strconv.FormatInt(deadline, 10), UpdatedAt: now},
		{Key: models.KeyActiveEventID, Value: state.ActiveEventID, UpdatedAt: now},
		{Key: models.KeyOfferedCrimes, Value: mappers.JoinList(state.OfferedCrimes), UpdatedAt: now},
		{Key: models.KeySolo, Value: strconv.FormatBool(state.Solo), UpdatedAt: now},
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("save engine state: %w", err)
	}
	return nil
}
