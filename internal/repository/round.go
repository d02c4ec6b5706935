package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wordle-golf/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

const (
	dateLayout      = "2006-01-02"
	archiveNonceLen = 4
)

// RoundRepository owns every persisted row of a round: its metadata, the
// per-player per-day score cells and the finalized total row.
type RoundRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRoundRepository(sqlDB *sql.DB, logger zerolog.Logger) *RoundRepository {
	return &RoundRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// CreateRound inserts a new round. An existing active round under the same
// id is archived first: overwrite-by-archiving, never a silent merge.
func (r *RoundRepository) CreateRound(ctx context.Context, cfg domain.RoundConfig) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM rounds WHERE id = ? AND archived_at IS NULL`, cfg.ID,
	).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		// no active round, nothing to displace
	case err != nil:
		return storageErr("failed to check for active round", err)
	default:
		archivedID, err := r.archiveTx(ctx, tx, existing)
		if err != nil {
			return err
		}
		r.logger.Warn().
			Str("round_id", existing).
			Str("archived_as", archivedID).
			Msg("displaced existing active round during creation")
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO rounds (id, chat_id, thread_id, hole_count, mulligan_count, start_puzzle, start_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cfg.ID, cfg.ChatID, cfg.ThreadID, cfg.Holes, cfg.Mulligans, cfg.StartPuzzle,
		cfg.StartDate.Format(dateLayout), now, now,
	)
	if err != nil {
		return storageErr("failed to insert round", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("failed to commit round creation", err)
	}

	r.logger.Info().
		Str("round_id", cfg.ID).
		Int("holes", cfg.Holes).
		Int("mulligans", cfg.Mulligans).
		Int("start_puzzle", cfg.StartPuzzle).
		Msg("round created")
	return nil
}

// RecordScore persists one score cell. A second write for the same
// (player, day) pair is rejected; the original value is never overwritten.
func (r *RoundRepository) RecordScore(ctx context.Context, roundID string, player domain.PlayerKey, puzzleNumber int, value float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	round, err := getRound(ctx, tx, roundID)
	if err != nil {
		return err
	}

	dayIndex := puzzleNumber - round.StartPuzzle
	if dayIndex < 0 {
		return fmt.Errorf("%w: puzzle %d predates round start %d", domain.ErrRoundNotStarted, puzzleNumber, round.StartPuzzle)
	}
	if dayIndex >= round.Holes {
		return fmt.Errorf("%w: day index %d beyond %d holes", domain.ErrRoundOver, dayIndex, round.Holes)
	}

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM scores WHERE round_id = ? AND player_key = ? AND day_index = ?`,
		roundID, player.String(), dayIndex,
	).Scan(&exists)
	if err == nil {
		return fmt.Errorf("%w: day %d", domain.ErrAlreadyScored, dayIndex)
	}
	if err != sql.ErrNoRows {
		return storageErr("failed to check for existing score", err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO scores (round_id, player_key, day_index, value, mulliganed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		roundID, player.String(), dayIndex, value, now, now,
	)
	if err != nil {
		return storageErr("failed to insert score", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("failed to commit score", err)
	}

	r.logger.Info().
		Str("round_id", roundID).
		Str("player", player.String()).
		Int("day_index", dayIndex).
		Float64("value", value).
		Msg("score recorded")
	return nil
}

// Scorecard recomputes the derived round view. Past-due empty cells are
// scored as missed days; future cells stay blank.
func (r *RoundRepository) Scorecard(ctx context.Context, roundID string, currentPuzzle int) (*domain.Scorecard, error) {
	round, err := getRound(ctx, r.db, roundID)
	if err != nil {
		return nil, err
	}

	meta := deriveMetadata(round, currentPuzzle)

	rows, err := r.db.QueryContext(ctx,
		`SELECT player_key, day_index, value, mulliganed FROM scores WHERE round_id = ? ORDER BY player_key, day_index`,
		roundID,
	)
	if err != nil {
		return nil, storageErr("failed to load scores", err)
	}
	defer rows.Close()

	type cell struct {
		value      float64
		mulliganed bool
	}
	cells := make(map[string]map[int]cell)
	for rows.Next() {
		var (
			key        string
			day        int
			value      float64
			mulliganed bool
		)
		if err := rows.Scan(&key, &day, &value, &mulliganed); err != nil {
			return nil, storageErr("failed to scan score row", err)
		}
		if cells[key] == nil {
			cells[key] = make(map[int]cell)
		}
		cells[key][day] = cell{value: value, mulliganed: mulliganed}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("failed to iterate score rows", err)
	}

	scores := make(map[string]domain.PlayerScore, len(cells))
	for key, days := range cells {
		player, err := domain.ParsePlayerKey(key)
		if err != nil {
			return nil, storageErr("corrupt player key", err)
		}

		ps := domain.PlayerScore{Player: player, Holes: make([]domain.HoleScore, round.Holes)}
		for day := 0; day < round.Holes; day++ {
			c, recorded := days[day]
			switch {
			case recorded && c.mulliganed:
				ps.Holes[day] = domain.HoleScore{Value: domain.MulliganValue, Symbol: domain.MulliganSymbol}
			case recorded:
				ps.Holes[day] = domain.HoleScore{Value: c.value, Symbol: holeSymbol(c.value)}
			case day < meta.CompletedHoles:
				ps.Holes[day] = domain.HoleScore{Value: domain.MissedValue, Symbol: domain.MissedSymbol}
			default:
				// not yet playable
				ps.Holes[day] = domain.HoleScore{Symbol: domain.BlankSymbol}
			}
			ps.Total += ps.Holes[day].Value
		}
		scores[key] = ps
	}

	return &domain.Scorecard{Metadata: meta, Scores: scores}, nil
}

// ApplyMulligan rewrites one cell as the excused sentinel. Missed days have
// no row yet, so this upserts.
func (r *RoundRepository) ApplyMulligan(ctx context.Context, roundID string, player domain.PlayerKey, dayIndex int) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scores (round_id, player_key, day_index, value, mulliganed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT (round_id, player_key, day_index)
		 DO UPDATE SET value = excluded.value, mulliganed = 1, updated_at = excluded.updated_at`,
		roundID, player.String(), dayIndex, float64(domain.MulliganValue), now, now,
	)
	if err != nil {
		return storageErr("failed to apply mulligan", err)
	}
	return nil
}

// WriteTotal persists the finalized total row for one player.
func (r *RoundRepository) WriteTotal(ctx context.Context, roundID string, player domain.PlayerKey, total float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO round_totals (round_id, player_key, total, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (round_id, player_key) DO UPDATE SET total = excluded.total`,
		roundID, player.String(), total, time.Now(),
	)
	if err != nil {
		return storageErr("failed to write total", err)
	}
	return nil
}

// MarkFinalized commits the single-finalization marker. The conditional
// update makes a second finalize attempt observable before any mulligan
// rewrite happens.
func (r *RoundRepository) MarkFinalized(ctx context.Context, roundID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rounds SET finalized_at = ?, updated_at = ?
		 WHERE id = ? AND archived_at IS NULL AND finalized_at IS NULL`,
		time.Now(), time.Now(), roundID,
	)
	if err != nil {
		return storageErr("failed to mark round finalized", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("failed to read affected rows", err)
	}
	if affected == 0 {
		if _, err := getRound(ctx, r.db, roundID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", domain.ErrAlreadyFinalized, roundID)
	}
	return nil
}

// ArchiveRound renames the round as historical so it drops out of active
// queries. The base title is kept and a date plus nonce suffix is added.
func (r *RoundRepository) ArchiveRound(ctx context.Context, roundID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	archivedID, err := r.archiveTx(ctx, tx, roundID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("failed to commit archive", err)
	}

	r.logger.Info().
		Str("round_id", roundID).
		Str("archived_as", archivedID).
		Msg("round archived")
	return nil
}

func (r *RoundRepository) archiveTx(ctx context.Context, tx *sql.Tx, roundID string) (string, error) {
	nonce, err := gonanoid.New(archiveNonceLen)
	if err != nil {
		return "", storageErr("failed to generate archive nonce", err)
	}

	base, _, _ := strings.Cut(roundID, "|")
	archivedID := fmt.Sprintf("%s|%s|%s|bkp", base, time.Now().Format("06-01-02"), nonce)

	res, err := tx.ExecContext(ctx,
		`UPDATE rounds SET id = ?, archived_at = ?, updated_at = ? WHERE id = ? AND archived_at IS NULL`,
		archivedID, time.Now(), time.Now(), roundID,
	)
	if err != nil {
		return "", storageErr("failed to archive round", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", storageErr("failed to read affected rows", err)
	}
	if affected == 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrRoundNotFound, roundID)
	}
	return archivedID, nil
}

// ListActiveRounds returns every non-archived round with its completion
// flag computed against the current puzzle number.
func (r *RoundRepository) ListActiveRounds(ctx context.Context, currentPuzzle int) ([]domain.RoundMetadata, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, chat_id, thread_id, hole_count, mulligan_count, start_puzzle, start_date
		 FROM rounds WHERE archived_at IS NULL ORDER BY created_at`,
	)
	if err != nil {
		return nil, storageErr("failed to list active rounds", err)
	}
	defer rows.Close()

	var result []domain.RoundMetadata
	for rows.Next() {
		cfg, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, deriveMetadata(cfg, currentPuzzle))
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("failed to iterate rounds", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRound(ctx context.Context, q queryRower, roundID string) (domain.RoundConfig, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, chat_id, thread_id, hole_count, mulligan_count, start_puzzle, start_date
		 FROM rounds WHERE id = ? AND archived_at IS NULL`, roundID,
	)
	cfg, err := scanRound(row)
	if err == sql.ErrNoRows {
		return domain.RoundConfig{}, fmt.Errorf("%w: %s", domain.ErrRoundNotFound, roundID)
	}
	return cfg, err
}

func scanRound(row rowScanner) (domain.RoundConfig, error) {
	var (
		cfg       domain.RoundConfig
		startDate string
	)
	err := row.Scan(&cfg.ID, &cfg.ChatID, &cfg.ThreadID, &cfg.Holes, &cfg.Mulligans, &cfg.StartPuzzle, &startDate)
	if err == sql.ErrNoRows {
		return cfg, err
	}
	if err != nil {
		return cfg, storageErr("failed to scan round row", err)
	}
	cfg.StartDate, err = time.Parse(dateLayout, startDate)
	if err != nil {
		return cfg, storageErr("corrupt start date", err)
	}
	return cfg, nil
}

// deriveMetadata is the implicit state machine: round phase is computed
// from the current puzzle number on every read, never stored.
func deriveMetadata(cfg domain.RoundConfig, currentPuzzle int) domain.RoundMetadata {
	completed := currentPuzzle - cfg.StartPuzzle
	if completed < 0 {
		completed = 0
	}
	if completed > cfg.Holes {
		completed = cfg.Holes
	}
	return domain.RoundMetadata{
		RoundConfig:    cfg,
		CompletedHoles: completed,
		IsComplete:     completed >= cfg.Holes,
	}
}

func holeSymbol(value float64) string {
	if value == domain.DNFValue {
		return domain.DNFSymbol
	}
	return strconv.Itoa(int(value))
}

func storageErr(msg string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, msg, err)
}
