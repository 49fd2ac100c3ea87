package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/crumplecup/strictly-games-sub000/internal/apperror"
	"github.com/crumplecup/strictly-games-sub000/internal/entity"
	"github.com/crumplecup/strictly-games-sub000/internal/pkg"
	"github.com/crumplecup/strictly-games-sub000/internal/registry"
	"github.com/crumplecup/strictly-games-sub000/internal/service"
	"github.com/crumplecup/strictly-games-sub000/internal/tictactoe"
)

// GameHandlers exposes the session operations as plain JSON
// request/response calls.
type GameHandlers struct {
	logger       *slog.Logger
	sessions     *registry.Registry
	arbiter      service.ArbiterService
	stats        service.StatsService
	auth         service.AuthService
	participants service.ParticipantService
	source       service.DecisionSource
}

func NewGameHandlers(
	logger *slog.Logger,
	sessions *registry.Registry,
	arbiter service.ArbiterService,
	stats service.StatsService,
	auth service.AuthService,
	participants service.ParticipantService,
	source service.DecisionSource,
) *GameHandlers {
	return &GameHandlers{
		logger:       logger.With("component", "rest"),
		sessions:     sessions,
		arbiter:      arbiter,
		stats:        stats,
		auth:         auth,
		participants: participants,
		source:       source,
	}
}

type registerRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
}

type registerResponse struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	Mark          string `json:"mark"`
	Token         string `json:"token,omitempty"`
	Board         string `json:"board"`
}

// RegisterPlayer - registers a participant, creating the session if
// absent. A request without a session id opens a fresh session under a
// generated identifier.
func (that *GameHandlers) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "RegisterPlayer")

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if req.SessionID == "" {
		req.SessionID = pkg.GenerateSessionToken()
	}

	kind := req.Kind
	if kind == "" {
		kind = entity.KindHuman
	}

	if _, err := that.sessions.Create(req.SessionID); err != nil && !errors.Is(err, apperror.ErrSessionAlreadyExists) {
		that.writeAppError(w, log, err)
		return
	}

	participantID := pkg.ParticipantID(req.SessionID, req.Name)

	mark, err := that.sessions.RegisterAtomic(req.SessionID, participantID, req.Name, kind)
	if err != nil {
		that.writeAppError(w, log, err)
		return
	}

	participant := &entity.Participant{ID: participantID, Name: req.Name, Kind: kind, Mark: mark}
	if err = that.participants.CreateOrUpdate(r.Context(), participant); err != nil {
		log.Error("failed to persist participant profile", "error", err)
	}

	token, err := that.auth.GenerateToken(participantID, req.SessionID)
	if err != nil {
		log.Error("failed to issue token", "error", err)
	}

	session, err := that.sessions.Get(req.SessionID)
	if err != nil {
		that.writeAppError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		SessionID:     req.SessionID,
		ParticipantID: participantID,
		Mark:          string(mark),
		Token:         token,
		Board:         session.Game.Board.Render(),
	})
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type startResponse struct {
	Board string `json:"board"`
}

// StartGame - resets the session's board and both slots.
func (that *GameHandlers) StartGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "StartGame")

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := that.sessions.Mutate(req.SessionID, func(session *entity.Session) error {
		session.Reset()
		return nil
	})
	if err != nil {
		that.writeAppError(w, log, err)
		return
	}

	session, err := that.sessions.Get(req.SessionID)
	if err != nil {
		that.writeAppError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, startResponse{Board: session.Game.Board.Render()})
}

type moveRequest struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	Position      string `json:"position"`
}

type moveResponse struct {
	Status string `json:"status"`
	Board  string `json:"board"`
}

// MakeMove - applies one move for the given participant. A bearer token
// issued at registration proves slot ownership: when present it supplies
// the participant identity and must match the targeted session.
func (that *GameHandlers) MakeMove(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "MakeMove")

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if token := bearerToken(r); token != "" {
		participantID, sessionID, err := that.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if req.SessionID == "" {
			req.SessionID = sessionID
		}

		if req.SessionID != sessionID {
			writeError(w, http.StatusUnauthorized, "token was issued for another session")
			return
		}

		req.ParticipantID = participantID
	}

	position, err := tictactoe.ParsePosition(req.Position)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = that.sessions.Mutate(req.SessionID, func(session *entity.Session) error {
		return session.MakeMove(req.ParticipantID, position)
	})
	if err != nil {
		that.writeAppError(w, log, err)
		return
	}

	session, err := that.sessions.Get(req.SessionID)
	if err != nil {
		that.writeAppError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, moveResponse{
		Status: statusText(session.Game),
		Board:  session.Game.Board.Render(),
	})
}

type boardResponse struct {
	PlayerX       string `json:"player_x"`
	PlayerO       string `json:"player_o"`
	CurrentPlayer string `json:"current_player,omitempty"`
	Status        string `json:"status"`
	Moves         int    `json:"moves"`
	Board         string `json:"board"`
}

// GetBoard - returns a snapshot of the session.
func (that *GameHandlers) GetBoard(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetBoard")

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	session, err := that.sessions.Get(sessionID)
	if err != nil {
		that.writeAppError(w, log, err)
		return
	}

	response := boardResponse{
		PlayerX:       "(waiting)",
		PlayerO:       "(waiting)",
		CurrentPlayer: string(session.Game.ToMove),
		Status:        statusText(session.Game),
		Moves:         len(session.Game.History),
		Board:         session.Game.Board.Render(),
	}

	if session.SlotX != nil {
		response.PlayerX = session.SlotX.Name
	}
	if session.SlotO != nil {
		response.PlayerO = session.SlotO.Name
	}

	writeJSON(w, http.StatusOK, response)
}

type sessionSummary struct {
	SessionID string `json:"session_id"`
	Players   int    `json:"players"`
	Ready     bool   `json:"ready"`
}

// ListSessions - lists every session with its slot occupancy.
func (that *GameHandlers) ListSessions(w http.ResponseWriter, _ *http.Request) {
	summaries := make([]sessionSummary, 0)

	for _, id := range that.sessions.List() {
		session, err := that.sessions.Get(id)
		if err != nil {
			continue
		}

		summaries = append(summaries, sessionSummary{
			SessionID: id,
			Players:   session.ParticipantCount(),
			Ready:     session.IsReady(),
		})
	}

	writeJSON(w, http.StatusOK, summaries)
}

type playRequest struct {
	SessionID  string `json:"session_id"`
	PlayerName string `json:"player_name"`
}

// PlayGame - runs the full arbitration loop for an automated participant
// and returns once the session's game is finished.
func (that *GameHandlers) PlayGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "PlayGame")

	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SessionID == "" || req.PlayerName == "" {
		writeError(w, http.StatusBadRequest, "session_id and player_name are required")
		return
	}

	report, err := that.arbiter.PlayGame(r.Context(), req.SessionID, req.PlayerName, that.source)
	if err != nil {
		that.writeAppError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// GetStats - returns the aggregated win/loss/draw record for a named
// participant.
func (that *GameHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetStats")

	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	aggregated, err := that.stats.AggregatedByName(r.Context(), name)
	if err != nil {
		that.writeAppError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, aggregated)
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "

	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}

	return ""
}

// statusText - the human-readable game status line.
func statusText(game *tictactoe.Game) string {
	switch {
	case game.IsOver() && game.Outcome != nil && game.Outcome.Draw:
		return "Game ended in a draw."
	case game.IsOver() && game.Outcome != nil:
		return fmt.Sprintf("Player %s wins!", game.Outcome.Winner)
	case game.IsInProgress():
		return fmt.Sprintf("Player %s to move.", game.ToMove)
	default:
		return "Waiting for the game to start."
	}
}

func (that *GameHandlers) writeAppError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	}

	writeError(w, status, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrSquareOccupied),
		errors.Is(err, apperror.ErrWrongPlayer),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrGameOver),
		errors.Is(err, apperror.ErrGameNotStarted),
		errors.Is(err, apperror.ErrSlotsFull),
		errors.Is(err, apperror.ErrUnknownParticipant),
		errors.Is(err, apperror.ErrSessionAlreadyExists),
		errors.Is(err, tictactoe.ErrInvalidPosition):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrOpponentWaitTimedOut):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
