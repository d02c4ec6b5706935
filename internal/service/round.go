package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"wordle-golf/internal/api"
	"wordle-golf/internal/constants"
	"wordle-golf/internal/domain"
	"wordle-golf/internal/notify"
	"wordle-golf/internal/presentation"
	"wordle-golf/internal/wordle"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// PuzzleSource provides today's puzzle metadata. The sequence number it
// returns is the source of truth for all day-index arithmetic.
type PuzzleSource interface {
	TodaysPuzzle(ctx context.Context) (*api.Puzzle, error)
}

// RoundStore is the persistence contract for rounds and score cells.
type RoundStore interface {
	CreateRound(ctx context.Context, cfg domain.RoundConfig) error
	RecordScore(ctx context.Context, roundID string, player domain.PlayerKey, puzzleNumber int, value float64) error
	Scorecard(ctx context.Context, roundID string, currentPuzzle int) (*domain.Scorecard, error)
	ApplyMulligan(ctx context.Context, roundID string, player domain.PlayerKey, dayIndex int) error
	WriteTotal(ctx context.Context, roundID string, player domain.PlayerKey, total float64) error
	MarkFinalized(ctx context.Context, roundID string) error
	ArchiveRound(ctx context.Context, roundID string) error
	ListActiveRounds(ctx context.Context, currentPuzzle int) ([]domain.RoundMetadata, error)
}

// InitiateRequest carries the parameters gathered by the presentation
// layer before a round is committed.
type InitiateRequest struct {
	Key       domain.RoundKey
	ThreadID  int64
	Holes     int
	Mulligans int
}

// RoundService is the only component allowed to transition a round between
// states. Writes against one round id are serialized end-to-end by a
// per-round mutex: SQLite gives us no row locking usable for the
// read-modify-write sequences here.
type RoundService struct {
	puzzles  PuzzleSource
	store    RoundStore
	notifier notify.Notifier
	renderer *presentation.Renderer
	logger   zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRoundService(puzzles PuzzleSource, store RoundStore, notifier notify.Notifier, renderer *presentation.Renderer, logger zerolog.Logger) *RoundService {
	return &RoundService{
		puzzles:  puzzles,
		store:    store,
		notifier: notifier,
		renderer: renderer,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *RoundService) lockRound(roundID string) func() {
	s.mu.Lock()
	m, ok := s.locks[roundID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[roundID] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// InitiateRound validates the configuration, anchors the starting puzzle
// number to tomorrow's sequence number and creates the round. The config
// is rejected before any store write happens.
func (s *RoundService) InitiateRound(ctx context.Context, req InitiateRequest) (*domain.RoundConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	cfg := domain.RoundConfig{
		ID:        req.Key.String(),
		ChatID:    req.Key.ChatID,
		ThreadID:  req.ThreadID,
		Holes:     req.Holes,
		Mulligans: req.Mulligans,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	puzzle, err := s.puzzles.TodaysPuzzle(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("round_id", cfg.ID).Msg("failed to fetch puzzle for round creation")
		return nil, err
	}

	// Scoring opens the day after creation, so the first scored puzzle is
	// tomorrow's.
	cfg.StartPuzzle = puzzle.DaysSinceLaunch + 1
	cfg.StartDate, err = time.Parse("2006-01-02", puzzle.PrintDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad print date %q", domain.ErrUpstreamUnavailable, puzzle.PrintDate)
	}

	unlock := s.lockRound(cfg.ID)
	defer unlock()

	if err := s.store.CreateRound(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("round_id", cfg.ID).
		Int("start_puzzle", cfg.StartPuzzle).
		Msg("round initiated")
	return &cfg, nil
}

// SubmitScore records a validated submission. Storage errors surface to
// the caller unchanged; every one is terminal for this attempt.
func (s *RoundService) SubmitScore(ctx context.Context, roundID string, score *wordle.ParsedScore) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := wordle.Validate(score); err != nil {
		return err
	}

	unlock := s.lockRound(roundID)
	defer unlock()

	return s.store.RecordScore(ctx, roundID, score.Player, score.Puzzle, score.Value)
}

// Scorecard computes the current standings for one round.
func (s *RoundService) Scorecard(ctx context.Context, roundID string) (*domain.Scorecard, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	puzzle, err := s.puzzles.TodaysPuzzle(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Scorecard(ctx, roundID, puzzle.DaysSinceLaunch)
}

// DailyTick walks every active round once: unfinished rounds get a
// day-elapsed reminder, completed rounds are finalized. Round state
// processing is sequential; only reminder delivery fans out.
func (s *RoundService) DailyTick(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.TickTimeout)
	defer cancel()

	puzzle, err := s.puzzles.TodaysPuzzle(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("daily tick aborted, puzzle metadata unavailable")
		return err
	}

	rounds, err := s.store.ListActiveRounds(ctx, puzzle.DaysSinceLaunch)
	if err != nil {
		s.logger.Error().Err(err).Msg("daily tick aborted, failed to list rounds")
		return err
	}

	g := new(errgroup.Group)
	for _, round := range rounds {
		if !round.IsComplete {
			g.Go(func() error {
				card, err := s.store.Scorecard(ctx, round.ID, puzzle.DaysSinceLaunch)
				if err != nil {
					return err
				}
				return s.notifier.Send(ctx, round.ChatID, round.ThreadID, s.renderer.DayElapsed(card.Metadata))
			})
			continue
		}

		result, err := s.Finalize(ctx, round.ID, puzzle.DaysSinceLaunch)
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			s.logger.Warn().Str("round_id", round.ID).Msg("round already finalized, skipping")
			continue
		}
		if err != nil {
			s.logger.Error().Err(err).Str("round_id", round.ID).Msg("finalization failed")
			continue
		}
		s.logger.Info().
			Str("round_id", round.ID).
			Int("winners", len(result.Winners)).
			Bool("tie", result.Tie).
			Msg("round finalized")
	}

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("day-elapsed notification failed")
	}
	return nil
}

// Finalize applies mulligans, persists totals, determines winners and
// archives the round. The finalized marker is committed before any
// mulligan rewrite: once sentinels are written, low cells are
// indistinguishable from real scores, so re-running remediation would
// corrupt the result.
func (s *RoundService) Finalize(ctx context.Context, roundID string, currentPuzzle int) (*domain.FinalResult, error) {
	unlock := s.lockRound(roundID)
	defer unlock()

	if err := s.store.MarkFinalized(ctx, roundID); err != nil {
		return nil, err
	}

	card, err := s.store.Scorecard(ctx, roundID, currentPuzzle)
	if err != nil {
		return nil, err
	}

	for key, ps := range card.Scores {
		for _, day := range pickMulligans(ps.Holes, card.Metadata.Mulligans) {
			if err := s.store.ApplyMulligan(ctx, roundID, ps.Player, day); err != nil {
				return nil, err
			}
			ps.Holes[day] = domain.HoleScore{Value: domain.MulliganValue, Symbol: domain.MulliganSymbol}
		}

		total := 0.0
		for _, h := range ps.Holes {
			total += h.Value
		}
		ps.Total = total
		if err := s.store.WriteTotal(ctx, roundID, ps.Player, total); err != nil {
			return nil, err
		}
		card.Scores[key] = ps
	}

	winners, winningScore := pickWinners(card)

	if err := s.store.ArchiveRound(ctx, roundID); err != nil {
		return nil, err
	}

	result := &domain.FinalResult{
		Scorecard:    *card,
		Winners:      winners,
		WinningScore: winningScore,
		Tie:          len(winners) > 1,
	}

	if err := s.notifier.Send(ctx, card.Metadata.ChatID, card.Metadata.ThreadID, s.renderer.FinalResults(*result)); err != nil {
		s.logger.Warn().Err(err).Str("round_id", roundID).Msg("failed to announce final results")
	}

	return result, nil
}

// pickMulligans selects the indices of the count highest day values.
// A repeated maximum is removed first occurrence first.
func pickMulligans(holes []domain.HoleScore, count int) []int {
	if count <= 0 {
		return nil
	}
	indices := make([]int, len(holes))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return holes[indices[a]].Value > holes[indices[b]].Value
	})
	if count > len(indices) {
		count = len(indices)
	}
	picked := indices[:count]
	sort.Ints(picked)
	return picked
}

func pickWinners(card *domain.Scorecard) ([]domain.PlayerKey, float64) {
	best := 0.0
	found := false
	for _, ps := range card.Scores {
		if !found || ps.Total < best {
			best = ps.Total
			found = true
		}
	}
	if !found {
		return nil, 0
	}

	var winners []domain.PlayerKey
	for _, ps := range card.Scores {
		if ps.Total == best {
			winners = append(winners, ps.Player)
		}
	}
	sort.Slice(winners, func(a, b int) bool { return winners[a].UserID < winners[b].UserID })
	return winners, best
}
