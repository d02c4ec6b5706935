package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"wordle-golf/internal/config"
	"wordle-golf/internal/database"
	"wordle-golf/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testStartPuzzle = 1000
	testHoles       = 9
)

var (
	alice = domain.PlayerKey{UserID: 1, Name: "Alice"}
	bob   = domain.PlayerKey{UserID: 2, Name: "Bob"}
)

func newTestRepo(t *testing.T) *RoundRepository {
	t.Helper()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRoundRepository(db, zerolog.Nop())
}

func testConfig(id string) domain.RoundConfig {
	return domain.RoundConfig{
		ID:          id,
		ChatID:      -100500,
		ThreadID:    7,
		Holes:       testHoles,
		Mulligans:   1,
		StartPuzzle: testStartPuzzle,
		StartDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateRoundAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateRound(ctx, testConfig("Golf|1")))

	rounds, err := repo.ListActiveRounds(ctx, testStartPuzzle+3)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	require.Equal(t, "Golf|1", rounds[0].ID)
	require.Equal(t, 3, rounds[0].CompletedHoles)
	require.False(t, rounds[0].IsComplete)
}

func TestCreateRoundDisplacesActiveRound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateRound(ctx, testConfig("Golf|1")))
	require.NoError(t, repo.RecordScore(ctx, "Golf|1", alice, testStartPuzzle, 3))

	// Same id again: the old round is archived, not merged into.
	require.NoError(t, repo.CreateRound(ctx, testConfig("Golf|1")))

	rounds, err := repo.ListActiveRounds(ctx, testStartPuzzle)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	require.Equal(t, "Golf|1", rounds[0].ID)

	// The fresh round has no scores carried over.
	card, err := repo.Scorecard(ctx, "Golf|1", testStartPuzzle)
	require.NoError(t, err)
	require.Empty(t, card.Scores)
}

func TestRecordScoreDayIndexBoundaries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateRound(ctx, testConfig("Golf|1")))

	tests := []struct {
		name    string
		puzzle  int
		wantErr error
	}{
		{name: "day before round start", puzzle: testStartPuzzle - 1, wantErr: domain.ErrRoundNotStarted},
		{name: "first scorable day", puzzle: testStartPuzzle},
		{name: "last scorable day", puzzle: testStartPuzzle + testHoles - 1},
		{name: "one past the last day", puzzle: testStartPuzzle + testHoles, wantErr: domain.ErrRoundOver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.RecordScore(ctx, "Golf|1", alice, tt.puzzle, 4)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRecordScoreRejectsDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateRound(ctx, testConfig("Golf|1")))

	require.NoError(t, repo.RecordScore(ctx, "Golf|1", alice, testStartPuzzle, 3))

	// The second write is rejected even with a different value, and the
	// original value survives.
	err := repo.RecordScore(ctx, "Golf|1", alice, testStartPuzzle, 5)
	require.ErrorIs(t, err, domain.ErrAlreadyScored)

	card, err := repo.Scorecard(ctx, "Golf|1", testStartPuzzle+1)
	require.NoError(t, err)
	require.Equal(t, 3.0, card.Scores[alice.String()].Holes[0].Value)
}

func TestRecordScoreUnknownRound(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.RecordScore(context.Background(), "nope|1", alice, testStartPuzzle, 3)
	require.ErrorIs(t, err, domain.ErrRoundNotFound)
}

func TestScorecardSynthesizesMissedAndBlankDays(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateRound(ctx, testConfig("Golf|1")))

	require.NoError(t, repo.RecordScore(ctx, "Golf|1", alice, testStartPuzzle, 3))
	require.NoError(t, repo.RecordScore(ctx, "Golf|1", alice, testStartPuzzle+2, domain.DNFValue))

	// Three days completed: day 0 scored, day 1 missed, day 2 DNF, the
	// rest not yet playable.
	card, err := repo.Scorecard(ctx, "Golf|1", testStartPuzzle+3)
	require.NoError(t, err)
	require.Equal(t, 3, card.Metadata.CompletedHoles)
	require.False(t, card.Metadata.IsComplete)

	holes := card.Scores[alice.String()].Holes
	require.Len(t, holes, testHoles)
	require.Equal(t, domain.HoleScore{Value: 3, Symbol: "3"}, holes[0])
	require.Equal(t, domain.HoleScore{Value: 7, Symbol: domain.MissedSymbol}, holes[1])
	require.Equal(t, domain.HoleScore{Value: 6.5, Symbol: domain.DNFSymbol}, holes[2])
	for day := 3; day < testHoles; day++ {
		require.Equal(t, domain.HoleScore{Value: 0, Symbol: domain.BlankSymbol}, holes[day])
	}
	require.Equal(t, 3+7+6.5, card.Scores[alice.String()].Total)
}

func TestScorecardCompletionFlag(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateRound(ctx, testConfig("Golf|1")))

	card, err := repo.Scorecard(ctx, "Golf|1", testStartPuzzle+testHoles)
	require.NoError(t, err)
	require.True(t, card.Metadata.IsComplete)
	require.Equal(t, testHoles, card.Metadata.CompletedHoles)

	// Completed holes are clamped to the round length.
	card, err = repo.Scorecard(ctx, "Golf|1", testStartPuzzle+testHoles+50)
	require.NoError(t, err)
	require.Equal(t, testHoles, card.Metadata.CompletedHoles)
}

func TestApplyMulligan(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateRound(ctx, testConfig("Golf|1")))

	require.NoError(t, repo.RecordScore(ctx, "Golf|1", alice, testStartPuzzle+1, 6))

	// Rewriting a recorded cell and upserting a missed one both work.
	require.NoError(t, repo.ApplyMulligan(ctx, "Golf|1", alice, 1))
	require.NoError(t, repo.ApplyMulligan(ctx, "Golf|1", alice, 0))

	card, err := repo.Scorecard(ctx, "Golf|1", testStartPuzzle+2)
	require.NoError(t, err)
	holes := card.Scores[alice.String()].Holes
	require.Equal(t, domain.HoleScore{Value: 0, Symbol: domain.MulliganSymbol}, holes[0])
	require.Equal(t, domain.HoleScore{Value: 0, Symbol: domain.MulliganSymbol}, holes[1])
	require.Equal(t, 0.0, card.Scores[alice.String()].Total)
}

func TestMarkFinalizedGuard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateRound(ctx, testConfig("Golf|1")))

	require.NoError(t, repo.MarkFinalized(ctx, "Golf|1"))
	require.ErrorIs(t, repo.MarkFinalized(ctx, "Golf|1"), domain.ErrAlreadyFinalized)

	require.ErrorIs(t, repo.MarkFinalized(ctx, "nope|1"), domain.ErrRoundNotFound)
}

func TestArchiveRound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateRound(ctx, testConfig("Golf|1")))

	require.NoError(t, repo.ArchiveRound(ctx, "Golf|1"))

	rounds, err := repo.ListActiveRounds(ctx, testStartPuzzle)
	require.NoError(t, err)
	require.Empty(t, rounds)

	_, err = repo.Scorecard(ctx, "Golf|1", testStartPuzzle)
	require.ErrorIs(t, err, domain.ErrRoundNotFound)

	// Archiving again finds nothing under the original id.
	require.ErrorIs(t, repo.ArchiveRound(ctx, "Golf|1"), domain.ErrRoundNotFound)
}

func TestWriteTotal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateRound(ctx, testConfig("Golf|1")))

	require.NoError(t, repo.WriteTotal(ctx, "Golf|1", alice, 27))
	require.NoError(t, repo.WriteTotal(ctx, "Golf|1", bob, 31.5))
	// Overwrite is allowed for totals; finalize owns the at-most-once rule.
	require.NoError(t, repo.WriteTotal(ctx, "Golf|1", alice, 28))
}
