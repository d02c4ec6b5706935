package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"wordle-golf/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestTodaysPuzzle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.URL.Path, "/svc/wordle/v2/"))
		require.True(t, strings.HasSuffix(r.URL.Path, ".json"))
		json.NewEncoder(w).Encode(Puzzle{
			ID:              2012,
			Solution:        "crane",
			PrintDate:       "2024-06-01",
			DaysSinceLaunch: 1079,
			Editor:          "Tracy Bennett",
		})
	}))
	defer srv.Close()

	client := NewNYTClient(&config.Config{PuzzleBaseURL: srv.URL, Timezone: "America/New_York"}, zerolog.Nop())

	puzzle, err := client.TodaysPuzzle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1079, puzzle.DaysSinceLaunch)
	require.Equal(t, "2024-06-01", puzzle.PrintDate)
}

func TestTodaysPuzzleRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(Puzzle{DaysSinceLaunch: 1079, PrintDate: "2024-06-01"})
	}))
	defer srv.Close()

	client := NewNYTClient(&config.Config{PuzzleBaseURL: srv.URL, Timezone: "America/New_York"}, zerolog.Nop())

	puzzle, err := client.TodaysPuzzle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1079, puzzle.DaysSinceLaunch)
	require.Equal(t, int32(2), calls.Load())
}
