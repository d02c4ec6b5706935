package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"wordle-golf/internal/domain"
	"wordle-golf/internal/presentation"
	"wordle-golf/internal/service"
	"wordle-golf/internal/wordle"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// GolfServer is the thin JSON surface over the round lifecycle. It exists
// for chat relays and operators; all real rules live in the service layer.
type GolfServer struct {
	rounds   *service.RoundService
	renderer *presentation.Renderer
	logger   zerolog.Logger
}

func NewGolfServer(rounds *service.RoundService, renderer *presentation.Renderer, logger zerolog.Logger) *GolfServer {
	return &GolfServer{rounds: rounds, renderer: renderer, logger: logger}
}

func (s *GolfServer) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/rounds", s.handleInitiateRound)
		r.Post("/scores", s.handleSubmitScore)
		r.Get("/rounds/{roundID}/scorecard", s.handleScorecard)
		r.Get("/instructions", s.handleInstructions)
		r.Post("/tick", s.handleTick)
	})
	return r
}

type initiateRoundRequest struct {
	ChatTitle string `json:"chat_title"`
	ChatID    int64  `json:"chat_id"`
	ThreadID  int64  `json:"thread_id"`
	Holes     int    `json:"holes"`
	Mulligans int    `json:"mulligans"`
}

type initiateRoundResponse struct {
	RoundID     string `json:"round_id"`
	StartPuzzle int    `json:"start_puzzle"`
	StartDate   string `json:"start_date"`
	Message     string `json:"message"`
}

func (s *GolfServer) handleInitiateRound(w http.ResponseWriter, r *http.Request) {
	var req initiateRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := s.rounds.InitiateRound(r.Context(), service.InitiateRequest{
		Key:       domain.RoundKey{Title: req.ChatTitle, ChatID: req.ChatID},
		ThreadID:  req.ThreadID,
		Holes:     req.Holes,
		Mulligans: req.Mulligans,
	})
	if err != nil {
		s.writeTaxonomyError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, initiateRoundResponse{
		RoundID:     cfg.ID,
		StartPuzzle: cfg.StartPuzzle,
		StartDate:   cfg.StartDate.Format("2006-01-02"),
		Message:     s.renderer.RoundStarted(*cfg),
	})
}

type submitScoreRequest struct {
	ChatTitle string `json:"chat_title"`
	ChatID    int64  `json:"chat_id"`
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	Text      string `json:"text"`
}

type submitScoreResponse struct {
	RoundID string  `json:"round_id"`
	Puzzle  int     `json:"puzzle"`
	Value   float64 `json:"value"`
	Term    string  `json:"term,omitempty"`
	Message string  `json:"message"`
}

func (s *GolfServer) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	submitter := domain.PlayerKey{UserID: req.UserID, Name: req.UserName}
	roundID := domain.RoundKey{Title: req.ChatTitle, ChatID: req.ChatID}.String()

	score, err := wordle.Parse(req.Text, submitter)
	if err != nil {
		s.writeTaxonomyError(w, r, err)
		return
	}
	if err := s.rounds.SubmitScore(r.Context(), roundID, score); err != nil {
		s.writeTaxonomyError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, submitScoreResponse{
		RoundID: roundID,
		Puzzle:  score.Puzzle,
		Value:   score.Value,
		Term:    s.renderer.GolfTerm(score.Value),
		Message: s.renderer.ScoreReply(score.Value),
	})
}

type scorecardResponse struct {
	Scorecard *domain.Scorecard `json:"scorecard"`
	Message   string            `json:"message"`
}

func (s *GolfServer) handleScorecard(w http.ResponseWriter, r *http.Request) {
	roundID := chi.URLParam(r, "roundID")

	card, err := s.rounds.Scorecard(r.Context(), roundID)
	if err != nil {
		s.writeTaxonomyError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, scorecardResponse{
		Scorecard: card,
		Message:   s.renderer.Scorecard(*card),
	})
}

// handleTick is an operational escape hatch: the scheduler normally drives
// ticks, but a crashed run can be replayed by hand. Finalization itself is
// guarded against double application.
func (s *GolfServer) handleTick(w http.ResponseWriter, r *http.Request) {
	if err := s.rounds.DailyTick(r.Context()); err != nil {
		s.writeTaxonomyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *GolfServer) handleInstructions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"text": s.renderer.Instructions()})
}

func (s *GolfServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeTaxonomyError maps the error taxonomy onto HTTP statuses. The round
// state errors are user-facing; upstream and storage failures are
// operator-facing and logged with full context.
func (s *GolfServer) writeTaxonomyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrMalformedSubmission), errors.Is(err, domain.ErrMalformedPuzzleNumber):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRoundNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrRoundNotStarted),
		errors.Is(err, domain.ErrRoundOver),
		errors.Is(err, domain.ErrAlreadyScored),
		errors.Is(err, domain.ErrAlreadyFinalized):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidConfig):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("upstream failure")
		writeError(w, http.StatusBadGateway, "puzzle service unavailable, try again")
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("storage failure")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
