package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	NotifyTimeout      = 10 * time.Second
	TickTimeout        = 2 * time.Minute
)

const (
	PuzzleFetchMaxAttempts  = 4
	PuzzleFetchInitialDelay = 500 * time.Millisecond
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

// MaxGuesses is fixed by the puzzle itself: every share label reads "n/6".
const MaxGuesses = 6
