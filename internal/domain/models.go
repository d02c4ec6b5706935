package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Scoring sentinels. A guess count is 1-6; everything else is one of these.
const (
	DNFValue      = 6.5
	MissedValue   = 7
	MulliganValue = 0

	DNFSymbol      = "x"
	MissedSymbol   = "X"
	MulliganSymbol = "-"
	BlankSymbol    = " "
)

// PlayerKey identifies a player inside a round. The backing store has no
// identity table, so the key must stay derivable from the chat sender:
// numeric user id plus display name.
type PlayerKey struct {
	UserID int64
	Name   string
}

func (k PlayerKey) String() string {
	return fmt.Sprintf("%d|%s", k.UserID, k.Name)
}

func ParsePlayerKey(s string) (PlayerKey, error) {
	id, name, ok := strings.Cut(s, "|")
	if !ok {
		return PlayerKey{}, fmt.Errorf("player key %q missing separator", s)
	}
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return PlayerKey{}, fmt.Errorf("player key %q has non-numeric user id: %w", s, err)
	}
	return PlayerKey{UserID: userID, Name: name}, nil
}

// RoundKey identifies a round within a chat context: topic or chat title
// plus the numeric chat id.
type RoundKey struct {
	Title  string
	ChatID int64
}

func (k RoundKey) String() string {
	return fmt.Sprintf("%s|%d", k.Title, k.ChatID)
}

// RoundConfig is created once per round and never mutated afterwards.
type RoundConfig struct {
	ID          string
	ChatID      int64
	ThreadID    int64
	Holes       int
	Mulligans   int
	StartPuzzle int
	StartDate   time.Time
}

// Validate enforces the creation-time invariants before any store write.
func (c RoundConfig) Validate() error {
	if c.Holes <= 0 {
		return fmt.Errorf("%w: holes must be positive, got %d", ErrInvalidConfig, c.Holes)
	}
	if c.Mulligans < 0 || c.Mulligans > c.Holes {
		return fmt.Errorf("%w: mulligans must be in [0,%d], got %d", ErrInvalidConfig, c.Holes, c.Mulligans)
	}
	return nil
}

type RoundState string

const (
	StatePending  RoundState = "pending"
	StateActive   RoundState = "active"
	StateComplete RoundState = "complete"
)

// RoundMetadata is RoundConfig plus fields derived from the current puzzle
// number. It is recomputed on every read, never cached.
type RoundMetadata struct {
	RoundConfig
	CompletedHoles int
	IsComplete     bool
}

func (m RoundMetadata) State() RoundState {
	switch {
	case m.IsComplete:
		return StateComplete
	case m.CompletedHoles > 0:
		return StateActive
	default:
		return StatePending
	}
}

// HoleScore is one cell of a scorecard: the numeric value plus the symbol
// used when rendering the row.
type HoleScore struct {
	Value  float64
	Symbol string
}

type PlayerScore struct {
	Player PlayerKey
	Total  float64
	Holes  []HoleScore
}

// Scorecard is the computed view of a round's standings. It is derived on
// demand from the store plus the current puzzle number and never persisted,
// except for the total row written at finalization.
type Scorecard struct {
	Metadata RoundMetadata
	Scores   map[string]PlayerScore
}

// FinalResult is what finalization hands to the presentation layer.
type FinalResult struct {
	Scorecard    Scorecard
	Winners      []PlayerKey
	WinningScore float64
	Tie          bool
}
