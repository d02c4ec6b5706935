package domain

import (
	"errors"
	"fmt"
)

// Submission errors are user-facing and terminal for the single attempt.
var (
	ErrMalformedSubmission   = errors.New("submission does not match the wordle share format")
	ErrMalformedPuzzleNumber = fmt.Errorf("%w: puzzle number is not numeric", ErrMalformedSubmission)
	ErrRoundNotFound         = errors.New("no active round for this chat")
	ErrRoundNotStarted       = errors.New("round scoring has not opened yet")
	ErrRoundOver             = errors.New("round scoring window has closed")
	ErrAlreadyScored         = errors.New("score already recorded for this player and day")
	ErrInvalidConfig         = errors.New("invalid round configuration")
	ErrAlreadyFinalized      = errors.New("round has already been finalized")
)

// Operator-facing errors; callers surface these with full context logged.
var (
	ErrUpstreamUnavailable = errors.New("puzzle metadata service unavailable")
	ErrStorageUnavailable  = errors.New("round storage unavailable")
)
