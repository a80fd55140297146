package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/models"
	"github.com/jaevor/go-nanoid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultLedgerRepository struct {
	DB     *gorm.DB
	logger *slog.Logger
}

func NewDefaultLedgerRepository(db *gorm.DB, logger *slog.Logger) *DefaultLedgerRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultLedgerRepository{DB: db, logger: logger}
}

func (r *DefaultLedgerRepository) GetAccount(ctx context.Context, username string) (*domain.UserEconomyAccount, error) {
	var model models.EconomyAccountModel
	err := r.DB.WithContext(ctx).First(&model, "username = ?", domain.NormalizeUsername(username)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return mappers.ToDomainAccount(&model), nil
}

// EnsureAccount creates the account on first interaction and returns it.
func (r *DefaultLedgerRepository) EnsureAccount(ctx context.Context, username string, initialTrust int64) (*domain.UserEconomyAccount, error) {
	name := domain.NormalizeUsername(username)
	now := time.Now()
	model := models.EconomyAccountModel{
		Username:  name,
		Trust:     initialTrust,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model).Error; err != nil {
		return nil, fmt.Errorf("ensure account %s: %w", name, err)
	}
	return r.GetAccount(ctx, name)
}

func (r *DefaultLedgerRepository) GetAccounts(ctx context.Context, usernames []string) (map[string]*domain.UserEconomyAccount, error) {
	result := make(map[string]*domain.UserEconomyAccount, len(usernames))
	if len(usernames) == 0 {
		return result, nil
	}

	names := make([]string, len(usernames))
	for i, u := range usernames {
		names[i] = domain.NormalizeUsername(u)
	}

	var accountModels []models.EconomyAccountModel
	if err := r.DB.WithContext(ctx).Where("username IN ?", names).Find(&accountModels).Error; err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}
	for i := range accountModels {
		result[accountModels[i].Username] = mappers.ToDomainAccount(&accountModels[i])
	}
	return result, nil
}

func (r *DefaultLedgerRepository) TopAccounts(ctx context.Context, limit int) ([]*domain.UserEconomyAccount, error) {
	if limit <= 0 {
		limit = 10
	}
	var accountModels []models.EconomyAccountModel
	if err := r.DB.WithContext(ctx).
		Order("balance DESC").
		Order("username ASC").
		Limit(limit).
		Find(&accountModels).Error; err != nil {
		return nil, fmt.Errorf("top accounts: %w", err)
	}

	accounts := make([]*domain.UserEconomyAccount, len(accountModels))
	for i := range accountModels {
		accounts[i] = mappers.ToDomainAccount(&accountModels[i])
	}
	return accounts, nil
}

func (r *DefaultLedgerRepository) ListEntries(ctx context.Context, eventID string) ([]*domain.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}

	entries := make([]*domain.LedgerEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = mappers.ToDomainLedgerEntry(&entryModels[i])
	}
	return entries, nil
}

func (r *DefaultLedgerRepository) TotalBalance(ctx context.Context) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).
		Model(&models.EconomyAccountModel{}).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("total balance: %w", err)
	}
	return total, nil
}

// Settle applies a whole heist settlement atomically: the event transition,
// every account delta with its audit rows and the next engine state. Any
// error rolls all of it back.
func (r *DefaultLedgerRepository) Settle(ctx context.Context, s *domain.Settlement, state domain.EngineState) error {
	idGenerator, err := nanoid.Standard(21)
	if err != nil {
		return err
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := advanceEventTx(tx, s.Transition); err != nil {
			return err
		}

		for _, delta := range s.Deltas {
			if err := r.applyDeltaTx(tx, s, delta); err != nil {
				return err
			}

			for _, entry := range delta.Entries {
				if entry.ID == "" {
					entry.ID = idGenerator()
				}
				if entry.CreatedAt.IsZero() {
					entry.CreatedAt = s.Transition.At
				}
				entry.Username = domain.NormalizeUsername(entry.Username)
				if err := tx.Create(mappers.ToGORMLedgerEntry(&entry)).Error; err != nil {
					return fmt.Errorf("write ledger entry for %s: %w", entry.Username, err)
				}
			}
		}

		return saveStateTx(tx, state)
	})
}

func (r *DefaultLedgerRepository) applyDeltaTx(tx *gorm.DB, s *domain.Settlement, delta domain.AccountDelta) error {
	name := domain.NormalizeUsername(delta.Username)
	now := s.Transition.At

	var account models.EconomyAccountModel
	err := tx.First(&account, "username = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = models.EconomyAccountModel{
			Username:  name,
			Trust:     s.InitialTrust,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&account).Error; err != nil {
			return fmt.Errorf("create account %s: %w", name, err)
		}
	} else if err != nil {
		return fmt.Errorf("load account %s: %w", name, err)
	}

	balance := account.Balance + delta.Amount
	applied := delta.Amount
	if balance < 0 {
		// Штраф не может увести баланс в минус
		r.logger.Warn("negative balance clamped to zero",
			"username", name,
			"balance", account.Balance,
			"delta", delta.Amount,
		)
		applied = -account.Balance
		balance = 0
	}

	updates := map[string]interface{}{
		"balance":    balance,
		"trust":      clampTrust(account.Trust+delta.TrustDelta, s.TrustMin, s.TrustMax),
		"updated_at": now,
	}
	if applied > 0 {
		updates["total_earned"] = account.TotalEarned + applied
	} else if applied < 0 {
		updates["total_lost"] = account.TotalLost - applied
	}
	if delta.Participated {
		updates["events_participated"] = account.EventsParticipated + 1
	}

	if err := tx.Model(&models.EconomyAccountModel{}).
		Where("username = ?", name).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("update account %s: %w", name, err)
	}
	return nil
}

func clampTrust(value, min, max int64) int64 {
	if min > max {
		return value
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
