package response

type AccountResponse struct {
	Username           string `json:"username"`
	Balance            int64  `json:"balance"`
	Trust              int64  `json:"trust"`
	TotalEarned        int64  `json:"total_earned"`
	TotalLost          int64  `json:"total_lost"`
	EventsParticipated int64  `json:"events_participated"`
}

type LeaderboardResponse struct {
	Success  bool              `json:"success"`
	Count    int               `json:"count"`
	Accounts []AccountResponse `json:"accounts"`
}
