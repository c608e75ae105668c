package history

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/starknow-arena/internal/auth"
	"github.com/gokatarajesh/starknow-arena/internal/db/queries"
	"github.com/gokatarajesh/starknow-arena/internal/logging"
	httperrors "github.com/gokatarajesh/starknow-arena/pkg/http/errors"
)

// Store reads a player's duel records.
type Store interface {
	ListForSubject(ctx context.Context, phone string, limit int) ([]queries.DuelRecord, error)
	Summary(ctx context.Context, phone string) (queries.GetDuelSummaryRow, error)
}

// HTTPHandler serves the caller's duel history.
type HTTPHandler struct {
	store        Store
	tiesAsDraw   bool
	defaultLimit int
	logger       zerolog.Logger
}

// NewHTTPHandler constructs the history endpoint.
func NewHTTPHandler(store Store, tiesAsDraw bool, defaultLimit int, logger zerolog.Logger) *HTTPHandler {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &HTTPHandler{
		store:        store,
		tiesAsDraw:   tiesAsDraw,
		defaultLimit: defaultLimit,
		logger:       logger.With().Str("component", "duel_history_http").Logger(),
	}
}

// Entry is one duel in the caller's history.
type Entry struct {
	OpponentPhone string    `json:"opponentPhone"`
	MyScore       int       `json:"myScore"`
	OpponentScore int       `json:"opponentScore"`
	Result        string    `json:"result"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// Summary totals the caller's duels.
type Summary struct {
	Total  int64 `json:"total"`
	Wins   int64 `json:"wins"`
	Losses int64 `json:"losses"`
	Draws  int64 `json:"draws"`
}

type response struct {
	Summary Summary `json:"summary"`
	Duels   []Entry `json:"duels"`
}

// Routes registers GET /v1/arena/duels.
func (h *HTTPHandler) Routes(mux *http.ServeMux) {
	mux.Handle("GET /v1/arena/duels", auth.RequireIdentity(http.HandlerFunc(h.HandleList)))
}

// HandleList handles GET /v1/arena/duels?limit=20
func (h *HTTPHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	logger := logging.FromContext(r.Context(), h.logger)

	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	records, err := h.store.ListForSubject(r.Context(), id.ID, limit)
	if err != nil {
		logger.Error().Err(err).Str("player_id", id.ID).Msg("list duel records failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeHistoryFetchFailed, "Could not load duel history")
		return
	}
	counts, err := h.store.Summary(r.Context(), id.ID)
	if err != nil {
		logger.Error().Err(err).Str("player_id", id.ID).Msg("duel summary failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeHistoryFetchFailed, "Could not load duel history")
		return
	}

	resp := response{Summary: h.summarize(counts), Duels: make([]Entry, 0, len(records))}
	for _, rec := range records {
		resp.Duels = append(resp.Duels, Entry{
			OpponentPhone: rec.OpponentPhone,
			MyScore:       int(rec.SubjectScore),
			OpponentScore: int(rec.OpponentScore),
			Result:        Outcome(int(rec.SubjectScore), int(rec.OpponentScore), h.tiesAsDraw),
			RecordedAt:    rec.RecordedAt.Time,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *HTTPHandler) summarize(row queries.GetDuelSummaryRow) Summary {
	s := Summary{Total: row.Total, Wins: row.Greater, Losses: row.Less}
	if h.tiesAsDraw {
		s.Draws = row.Equal
	} else {
		s.Losses += row.Equal
	}
	return s
}
