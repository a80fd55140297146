package domain

import (
	"strings"
	"time"
)

type UserEconomyAccount struct {
	Username           string
	Balance            int64
	Trust              int64
	TotalEarned        int64
	TotalLost          int64
	EventsParticipated int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NormalizeUsername folds a chat nickname into the account key.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

type LedgerEntryKind string

const (
	EntryHouseCut       LedgerEntryKind = "house_cut"
	EntryVoterShare     LedgerEntryKind = "voter_share"
	EntryCrewShare      LedgerEntryKind = "crew_share"
	EntryOfflinePenalty LedgerEntryKind = "offline_penalty"
	EntrySoloHaul       LedgerEntryKind = "solo_haul"
	EntryTrust          LedgerEntryKind = "trust"
)

// LedgerEntry is the audit row written next to every balance or trust change.
type LedgerEntry struct {
	ID         string
	EventID    string
	Username   string
	Kind       LedgerEntryKind
	Amount     int64
	TrustDelta int64
	CreatedAt  time.Time
}
