package duel

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/starknow-arena/internal/auth"
	"github.com/gokatarajesh/starknow-arena/internal/logging"
	httperrors "github.com/gokatarajesh/starknow-arena/pkg/http/errors"
)

// HTTPHandlers exposes the duel operations as JSON endpoints.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for duel endpoints.
func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "duel_http").Logger(),
	}
}

// Routes registers every duel endpoint on mux. Each handler is wrapped so
// that only authenticated callers reach it.
func (h *HTTPHandlers) Routes(mux *http.ServeMux) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth.RequireIdentity(fn))
	}
	handle("POST /v1/arena/match", h.StartOrJoinMatch)
	handle("GET /v1/arena/match", h.PollMatch)
	handle("DELETE /v1/arena/match", h.CancelMatch)
	handle("POST /v1/arena/rooms", h.CreateRoom)
	handle("POST /v1/arena/rooms/{roomId}/join", h.JoinRoom)
	handle("GET /v1/arena/rooms/{roomId}", h.GetRoomStatus)
	handle("POST /v1/arena/rooms/{roomId}/result", h.SubmitResult)
}

type topicRequest struct {
	Topic    string `json:"topic"`
	Subtopic string `json:"subtopic"`
}

type resultRequest struct {
	Score        flexInt `json:"score"`
	CorrectCount flexInt `json:"correctCount"`
	Total        flexInt `json:"total"`
}

// flexInt accepts JSON numbers and numeric strings; anything else decodes to 0.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	switch n := v.(type) {
	case float64:
		*f = clampInt(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = clampInt(parsed)
	default:
		*f = 0
	}
	return nil
}

func clampInt(n float64) flexInt {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < math.MinInt32 {
		return math.MinInt32
	}
	return flexInt(n)
}

type matchResponse struct {
	Matched       bool   `json:"matched"`
	Waiting       bool   `json:"waiting,omitempty"`
	RoomID        string `json:"roomId,omitempty"`
	Topic         string `json:"topic,omitempty"`
	Subtopic      string `json:"subtopic,omitempty"`
	Seed          int64  `json:"seed,omitempty"`
	QuestionCount int    `json:"questionCount,omitempty"`
	OpponentName  string `json:"opponentName,omitempty"`
	IsHost        *bool  `json:"isHost,omitempty"`
}

func toMatchResponse(o MatchOutcome) matchResponse {
	resp := matchResponse{Matched: o.Matched, Waiting: o.Waiting}
	if !o.Matched {
		return resp
	}
	isHost := o.IsHost
	resp.RoomID = o.RoomID
	resp.Topic = o.Topic
	resp.Subtopic = o.Subtopic
	resp.Seed = o.Seed
	resp.QuestionCount = o.QuestionCount
	resp.OpponentName = o.OpponentName
	resp.IsHost = &isHost
	return resp
}

type roomResponse struct {
	RoomID        string `json:"roomId"`
	Topic         string `json:"topic"`
	Subtopic      string `json:"subtopic"`
	Seed          int64  `json:"seed"`
	QuestionCount int    `json:"questionCount"`
	HostName      string `json:"hostName"`
}

func toRoomResponse(p RoomParams) roomResponse {
	return roomResponse{
		RoomID:        p.RoomID,
		Topic:         p.Topic,
		Subtopic:      p.Subtopic,
		Seed:          p.Seed,
		QuestionCount: p.QuestionCount,
		HostName:      p.HostName,
	}
}

// opponentFields are always present; they are null until the opponent submitted.
type opponentFields struct {
	OpponentID      *string `json:"opponentId"`
	OpponentName    *string `json:"opponentName"`
	OpponentScore   *int    `json:"opponentScore"`
	OpponentCorrect *int    `json:"opponentCorrect"`
	OpponentTotal   *int    `json:"opponentTotal"`
}

func toOpponentFields(o *OpponentResult) opponentFields {
	if o == nil {
		return opponentFields{}
	}
	return opponentFields{
		OpponentID:      &o.ID,
		OpponentName:    &o.Name,
		OpponentScore:   &o.Score,
		OpponentCorrect: &o.CorrectCount,
		OpponentTotal:   &o.Total,
	}
}

type statusResponse struct {
	roomResponse
	IsHost   bool    `json:"isHost"`
	MyResult *Result `json:"myResult"`
	opponentFields
}

type submitResponse struct {
	RoomID string `json:"roomId"`
	opponentFields
}

// StartOrJoinMatch handles POST /v1/arena/match
func (h *HTTPHandlers) StartOrJoinMatch(w http.ResponseWriter, r *http.Request) {
	player := playerFrom(r)
	var req topicRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.service.StartOrJoinMatch(r.Context(), player, req.Topic, req.Subtopic)
	if err != nil {
		h.respondDuelError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toMatchResponse(out))
}

// PollMatch handles GET /v1/arena/match
func (h *HTTPHandlers) PollMatch(w http.ResponseWriter, r *http.Request) {
	out := h.service.PollMatch(r.Context(), playerFrom(r))
	h.respondJSON(w, http.StatusOK, toMatchResponse(out))
}

// CancelMatch handles DELETE /v1/arena/match
func (h *HTTPHandlers) CancelMatch(w http.ResponseWriter, r *http.Request) {
	removed := h.service.CancelMatch(r.Context(), playerFrom(r))
	h.respondJSON(w, http.StatusOK, map[string]bool{"cancelled": removed})
}

// CreateRoom handles POST /v1/arena/rooms
func (h *HTTPHandlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if !h.decode(w, r, &req) {
		return
	}

	params, err := h.service.CreateRoom(r.Context(), playerFrom(r), req.Topic, req.Subtopic)
	if err != nil {
		h.respondDuelError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, toRoomResponse(params))
}

// JoinRoom handles POST /v1/arena/rooms/{roomId}/join
func (h *HTTPHandlers) JoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.roomID(w, r)
	if !ok {
		return
	}

	params, err := h.service.JoinRoom(r.Context(), playerFrom(r), roomID)
	if err != nil {
		h.respondDuelError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toRoomResponse(params))
}

// GetRoomStatus handles GET /v1/arena/rooms/{roomId}
func (h *HTTPHandlers) GetRoomStatus(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.roomID(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetRoomStatus(r.Context(), playerFrom(r), roomID)
	if err != nil {
		h.respondDuelError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, statusResponse{
		roomResponse:   toRoomResponse(view.RoomParams),
		IsHost:         view.IsHost,
		MyResult:       view.MyResult,
		opponentFields: toOpponentFields(view.Opponent),
	})
}

// SubmitResult handles POST /v1/arena/rooms/{roomId}/result
func (h *HTTPHandlers) SubmitResult(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.roomID(w, r)
	if !ok {
		return
	}
	var req resultRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.SubmitResult(r.Context(), playerFrom(r), roomID, ResultInput{
		Score:        int(req.Score),
		CorrectCount: int(req.CorrectCount),
		Total:        int(req.Total),
	})
	if err != nil {
		h.respondDuelError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, submitResponse{
		RoomID:         resp.RoomID,
		opponentFields: toOpponentFields(resp.Opponent),
	})
}

func playerFrom(r *http.Request) Player {
	id, _ := auth.IdentityFromContext(r.Context())
	return Player{ID: id.ID, Name: id.DisplayName}
}

func (h *HTTPHandlers) roomID(w http.ResponseWriter, r *http.Request) (string, bool) {
	roomID := strings.TrimSpace(r.PathValue("roomId"))
	if roomID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "room id is required", "roomId")
		return "", false
	}
	return roomID, true
}

// decode reads an optional JSON body; an empty body leaves dst zeroed.
func (h *HTTPHandlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
	return false
}

func (h *HTTPHandlers) respondDuelError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeRoomNotFound, "Room not found")
	case errors.Is(err, ErrForbidden):
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Not a participant of this room")
	case errors.Is(err, ErrRoomFull):
		httperrors.RespondConflict(w, httperrors.ErrCodeRoomFull, "Room already has a guest")
	case errors.Is(err, ErrSameUser):
		httperrors.RespondConflict(w, httperrors.ErrCodeSameUser, "Cannot join your own room")
	case errors.Is(err, ErrInvalidInput):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request")
	default:
		logging.FromContext(r.Context(), h.logger).Error().Err(err).Str("path", r.URL.Path).Msg("duel request failed")
		httperrors.RespondInternalError(w, "Internal error")
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
