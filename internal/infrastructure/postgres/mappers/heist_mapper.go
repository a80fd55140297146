package mappers

import (
	"strings"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/models"
)

func ToDomainHeistEvent(model *models.HeistEventModel) *domain.HeistEvent {
	return &domain.HeistEvent{
		ID:               model.ID,
		Phase:            domain.Phase(model.Phase),
		CrimeID:          model.CrimeID,
		OfferedCrimes:    SplitList(model.OfferedCrimes),
		CreatedAt:        model.CreatedAt,
		AnnouncedAt:      model.AnnouncedAt,
		DepartedAt:       model.DepartedAt,
		ReturnedAt:       model.ReturnedAt,
		CompletedAt:      model.CompletedAt,
		TotalHaul:        model.TotalHaul,
		Success:          model.Success,
		Solo:             model.Solo,
		ParticipantCount: model.ParticipantCount,
	}
}

func ToGORMHeistEvent(event *domain.HeistEvent) *models.HeistEventModel {
	return &models.HeistEventModel{
		ID:               event.ID,
		Phase:            string(event.Phase),
		CrimeID:          event.CrimeID,
		OfferedCrimes:    JoinList(event.OfferedCrimes),
		CreatedAt:        event.CreatedAt,
		AnnouncedAt:      event.AnnouncedAt,
		DepartedAt:       event.DepartedAt,
		ReturnedAt:       event.ReturnedAt,
		CompletedAt:      event.CompletedAt,
		TotalHaul:        event.TotalHaul,
		Success:          event.Success,
		Solo:             event.Solo,
		ParticipantCount: event.ParticipantCount,
	}
}

func ToDomainVote(model *models.HeistVoteModel) *domain.Vote {
	return &domain.Vote{
		EventID:  model.EventID,
		Username: model.Username,
		Choice:   model.Choice,
		VotedAt:  model.VotedAt,
	}
}

func ToGORMVote(vote *domain.Vote) *models.HeistVoteModel {
	return &models.HeistVoteModel{
		EventID:  vote.EventID,
		Username: vote.Username,
		Choice:   vote.Choice,
		VotedAt:  vote.VotedAt,
	}
}

// JoinList and SplitList store short id lists in a single text column so the
// schema stays portable between postgres and sqlite.
func JoinList(items []string) string {
	return strings.Join(items, ",")
}

func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}
