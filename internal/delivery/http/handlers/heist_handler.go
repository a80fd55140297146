package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	heistRequest "github.com/LavaJover/shvark-heist-service/internal/delivery/http/dto/heist/request"
	heistResponse "github.com/LavaJover/shvark-heist-service/internal/delivery/http/dto/heist/response"
	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

const requestLimit = 1 << 16

type StateReader interface {
	State() domain.EngineState
}

type ChatHandler interface {
	Handle(ctx context.Context, event domain.ChatEvent) (bool, error)
}

type HTTPHeistHandler struct {
	State  StateReader
	Chat   ChatHandler
	Ledger domain.LedgerRepository
	Heists domain.HeistRepository
	Now    func() time.Time

	// ChatLimiter throttles POST /chat. nil means unlimited.
	ChatLimiter *rate.Limiter
}

func NewHTTPHeistHandler(state StateReader, chat ChatHandler, ledger domain.LedgerRepository, heists domain.HeistRepository) *HTTPHeistHandler {
	return &HTTPHeistHandler{
		State:  state,
		Chat:   chat,
		Ledger: ledger,
		Heists: heists,
		Now:    time.Now,
	}
}

func (h *HTTPHeistHandler) mount(r chi.Router) {
	r.Get("/state", h.getState)
	r.Get("/accounts/{username}", h.getAccount)
	r.Get("/leaderboard", h.getLeaderboard)
	r.Get("/events", h.listEvents)
	r.Get("/events/{id}/ledger", h.getEventLedger)
	r.With(limit(h.ChatLimiter)).Post("/chat", h.postChatEvent)
}

func (h *HTTPHeistHandler) getState(w http.ResponseWriter, _ *http.Request) {
	state := h.State.State()

	resp := heistResponse.StateResponse{
		Phase:         string(state.Phase),
		ActiveEventID: state.ActiveEventID,
		OfferedCrimes: state.OfferedCrimes,
		Solo:          state.Solo,
	}
	if state.HasDeadline() {
		deadline := state.Deadline.UTC()
		resp.Deadline = &deadline
		if remaining := state.Remaining(h.Now()); remaining > 0 {
			resp.RemainingSeconds = int64(remaining / time.Second)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHeistHandler) getAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.Ledger.GetAccount(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *HTTPHeistHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, 10, 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	accounts, err := h.Ledger.TopAccounts(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := heistResponse.LeaderboardResponse{
		Success:  true,
		Count:    len(accounts),
		Accounts: make([]heistResponse.AccountResponse, len(accounts)),
	}
	for i, acc := range accounts {
		resp.Accounts[i] = toAccountResponse(acc)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHeistHandler) listEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, 20, 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	events, err := h.Heists.ListEvents(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := heistResponse.EventsResponse{
		Success: true,
		Count:   len(events),
		Events:  make([]heistResponse.EventResponse, len(events)),
	}
	for i, e := range events {
		item := heistResponse.EventResponse{
			ID:               e.ID,
			Phase:            string(e.Phase),
			OfferedCrimes:    e.OfferedCrimes,
			CreatedAt:        e.CreatedAt,
			DepartedAt:       e.DepartedAt,
			ReturnedAt:       e.ReturnedAt,
			CompletedAt:      e.CompletedAt,
			TotalHaul:        e.TotalHaul,
			Success:          e.Success,
			Solo:             e.Solo,
			ParticipantCount: e.ParticipantCount,
		}
		if e.CrimeID != nil {
			item.CrimeID = *e.CrimeID
		}
		resp.Events[i] = item
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHeistHandler) getEventLedger(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	entries, err := h.Ledger.ListEntries(r.Context(), eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := heistResponse.LedgerResponse{
		Success: true,
		EventID: eventID,
		Entries: make([]heistResponse.LedgerEntryResponse, len(entries)),
	}
	for i, e := range entries {
		resp.Entries[i] = heistResponse.LedgerEntryResponse{
			Username:   e.Username,
			Kind:       string(e.Kind),
			Amount:     e.Amount,
			TrustDelta: e.TrustDelta,
			CreatedAt:  e.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// postChatEvent lets a chat bridge without kafka push events over HTTP.
func (h *HTTPHeistHandler) postChatEvent(w http.ResponseWriter, r *http.Request) {
	var req heistRequest.ChatEventRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, requestLimit)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, errors.New("username is required"))
		return
	}

	voted, err := h.Chat.Handle(r.Context(), domain.ChatEvent{
		Type:     domain.ChatEventType(req.Type),
		Username: req.Username,
		Text:     req.Text,
	})
	if err != nil {
		slog.Error("chat event failed", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, heistResponse.ChatEventResponse{Success: true, Voted: voted})
}

func toAccountResponse(acc *domain.UserEconomyAccount) heistResponse.AccountResponse {
	return heistResponse.AccountResponse{
		Username:           acc.Username,
		Balance:            acc.Balance,
		Trust:              acc.Trust,
		TotalEarned:        acc.TotalEarned,
		TotalLost:          acc.TotalLost,
		EventsParticipated: acc.EventsParticipated,
	}
}

func parseLimit(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > max {
		limit = max
	}
	return limit, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, heistResponse.ErrorResponse{Success: false, Error: err.Error()})
}
