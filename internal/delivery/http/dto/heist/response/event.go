package response

import "time"

type EventResponse struct {
	ID               string     `json:"id"`
	Phase            string     `json:"phase"`
	CrimeID          string     `json:"crime_id,omitempty"`
	OfferedCrimes    []string   `json:"offered_crimes"`
	CreatedAt        time.Time  `json:"created_at"`
	DepartedAt       *time.Time `json:"departed_at,omitempty"`
	ReturnedAt       *time.Time `json:"returned_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TotalHaul        int64      `json:"total_haul"`
	Success          bool       `json:"success"`
	Solo             bool       `json:"solo"`
	ParticipantCount int        `json:"participant_count"`
}

type EventsResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Events  []EventResponse `json:"events"`
}

type LedgerEntryResponse struct {
	Username   string    `json:"username"`
	Kind       string    `json:"kind"`
	Amount     int64     `json:"amount"`
	TrustDelta int64     `json:"trust_delta"`
	CreatedAt  time.Time `json:"created_at"`
}

type LedgerResponse struct {
	Success bool                  `json:"success"`
	EventID string                `json:"event_id"`
	Entries []LedgerEntryResponse `json:"entries"`
}
