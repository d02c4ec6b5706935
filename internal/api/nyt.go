package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wordle-golf/internal/config"
	"wordle-golf/internal/constants"
	"wordle-golf/internal/domain"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
)

// Puzzle is today's puzzle metadata. DaysSinceLaunch is the serial day
// count the whole day-index arithmetic hangs off.
type Puzzle struct {
	ID              int    `json:"id"`
	Solution        string `json:"solution"`
	PrintDate       string `json:"print_date"`
	DaysSinceLaunch int    `json:"days_since_launch"`
	Editor          string `json:"editor"`
}

type NYTClient struct {
	baseURL  string
	location *time.Location
	client   *fasthttp.Client
	logger   zerolog.Logger
}

func NewNYTClient(cfg *config.Config, logger zerolog.Logger) *NYTClient {
	return &NYTClient{
		baseURL:  cfg.PuzzleBaseURL,
		location: cfg.Location(),
		client: &fasthttp.Client{
			MaxConnsPerHost:     10,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

// TodaysPuzzle looks up the puzzle for the current date in the configured
// timezone. The fetch is retried with exponential backoff; a wrong or
// defaulted sequence number would corrupt every later day-index
// calculation, so terminal failure is surfaced, never papered over.
func (c *NYTClient) TodaysPuzzle(ctx context.Context) (*Puzzle, error) {
	date := time.Now().In(c.location).Format("2006-01-02")
	url := fmt.Sprintf("%s/svc/wordle/v2/%s.json", c.baseURL, date)

	var puzzle *Puzzle
	backoff := retry.WithMaxRetries(constants.PuzzleFetchMaxAttempts, retry.NewExponential(constants.PuzzleFetchInitialDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := c.fetch(ctx, url)
		if err != nil {
			c.logger.Warn().Err(err).Str("date", date).Msg("puzzle fetch attempt failed")
			return retry.RetryableError(err)
		}
		puzzle = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamUnavailable, err)
	}

	c.logger.Debug().
		Str("date", date).
		Int("days_since_launch", puzzle.DaysSinceLaunch).
		Msg("fetched todays puzzle")
	return puzzle, nil
}

func (c *NYTClient) fetch(ctx context.Context, url string) (*Puzzle, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var puzzle Puzzle
	if err := json.Unmarshal(resp.Body(), &puzzle); err != nil {
		return nil, err
	}
	return &puzzle, nil
}
