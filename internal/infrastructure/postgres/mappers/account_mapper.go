package mappers

import (
	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/models"
)

func ToDomainAccount(model *models.EconomyAccountModel) *domain.UserEconomyAccount {
	return &domain.UserEconomyAccount{
		Username:           model.Username,
		Balance:            model.Balance,
		Trust:              model.Trust,
		TotalEarned:        model.TotalEarned,
		TotalLost:          model.TotalLost,
		EventsParticipated: model.EventsParticipated,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

func ToGORMLedgerEntry(entry *domain.LedgerEntry) *models.LedgerEntryModel {
	return &models.LedgerEntryModel{
		ID:         entry.ID,
		EventID:    entry.EventID,
		Username:   entry.Username,
		Kind:       string(entry.Kind),
		Amount:     entry.Amount,
		TrustDelta: entry.TrustDelta,
		CreatedAt:  entry.CreatedAt,
	}
}

func ToDomainLedgerEntry(model *models.LedgerEntryModel) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:         model.ID,
		EventID:    model.EventID,
		Username:   model.Username,
		Kind:       domain.LedgerEntryKind(model.Kind),
		Amount:     model.Amount,
		TrustDelta: model.TrustDelta,
		CreatedAt:  model.CreatedAt,
	}
}
