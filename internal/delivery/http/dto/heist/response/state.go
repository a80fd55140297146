package response

import "time"

type StateResponse struct {
	Phase            string     `json:"phase"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	ActiveEventID    string     `json:"active_event_id,omitempty"`
	OfferedCrimes    []string   `json:"offered_crimes,omitempty"`
	Solo             bool       `json:"solo"`
}

type ChatEventResponse struct {
	Success bool `json:"success"`
	Voted   bool `json:"voted"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
