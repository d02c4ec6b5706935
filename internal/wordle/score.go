// Package wordle turns raw Wordle share text into validated scores. It is
// pure: no storage, no network, deterministic for a given input.
package wordle

import (
	"fmt"
	"strconv"
	"strings"

	"wordle-golf/internal/constants"
	"wordle-golf/internal/domain"
)

// DNFLabel is the numerator the share text uses when the puzzle was not
// solved within the allowed guesses.
const DNFLabel = "X"

// AllCorrectLine is the grid row proving the final guess solved the puzzle.
const AllCorrectLine = "🟩🟩🟩🟩🟩"

// dnfLineCount is the share shape for an unsolved puzzle: header, blank
// spacer and six guess rows.
const dnfLineCount = 8

// ParsedScore is a provisionally-valid submission. Lines keeps the full
// share text so the validator can confirm the grid shape.
type ParsedScore struct {
	Player domain.PlayerKey
	Word   string
	Puzzle int
	Label  string
	Value  float64
	Lines  []string
}

// Parse splits share text into its structural parts. Failures here are
// structural only: wrong header token count or a non-numeric puzzle number.
func Parse(text string, submitter domain.PlayerKey) (*ParsedScore, error) {
	lines := strings.Split(text, "\n")

	header := strings.Fields(lines[0])
	if len(header) != 3 {
		return nil, fmt.Errorf("%w: header has %d fields, want 3", domain.ErrMalformedSubmission, len(header))
	}

	// The puzzle number is thousands-separated in the share text: "1,234".
	puzzle, err := strconv.Atoi(strings.ReplaceAll(header[1], ",", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrMalformedPuzzleNumber, header[1])
	}

	return &ParsedScore{
		Player: submitter,
		Word:   header[0],
		Puzzle: puzzle,
		Label:  header[2],
		Value:  labelValue(header[2]),
		Lines:  lines,
	}, nil
}

func labelValue(label string) float64 {
	numerator, _, _ := strings.Cut(label, "/")
	if numerator == DNFLabel {
		return domain.DNFValue
	}
	n, err := strconv.Atoi(numerator)
	if err != nil {
		return 0
	}
	return float64(n)
}

// Validate applies the shape rules in order; any failing rule invalidates
// the whole submission.
func Validate(score *ParsedScore) error {
	parts := strings.Split(score.Label, "/")
	if len(parts) != 2 || parts[1] != strconv.Itoa(constants.MaxGuesses) {
		return fmt.Errorf("%w: score label %q", domain.ErrMalformedSubmission, score.Label)
	}

	if parts[0] == DNFLabel {
		// Did not finish: full grid of guesses, and the last one must not
		// have solved the puzzle.
		if len(score.Lines) == dnfLineCount && lastLine(score.Lines) != AllCorrectLine {
			return nil
		}
		return fmt.Errorf("%w: DNF grid shape mismatch", domain.ErrMalformedSubmission)
	}

	guesses, err := strconv.Atoi(parts[0])
	if err != nil || guesses < 1 || guesses > constants.MaxGuesses {
		return fmt.Errorf("%w: guess count %q out of range", domain.ErrMalformedSubmission, parts[0])
	}

	// Header line, one row per guess, trailing spacer.
	if len(score.Lines) != guesses+2 {
		return fmt.Errorf("%w: %d lines for a %d-guess score", domain.ErrMalformedSubmission, len(score.Lines), guesses)
	}

	// The completion proof: the last row must show all cells correct.
	if lastLine(score.Lines) != AllCorrectLine {
		return fmt.Errorf("%w: final grid row is not a solve", domain.ErrMalformedSubmission)
	}

	return nil
}

func lastLine(lines []string) string {
	return lines[len(lines)-1]
}
