// Package notify is the outbound chat boundary. The core never talks to a
// messaging platform directly; it hands rendered text to a Notifier.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"wordle-golf/internal/config"
	"wordle-golf/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

type Notifier interface {
	Send(ctx context.Context, chatID, threadID int64, text string) error
}

// New returns a webhook-backed notifier when a URL is configured and a
// log-only notifier otherwise.
func New(cfg *config.Config, logger zerolog.Logger) Notifier {
	if cfg.WebhookURL == "" {
		logger.Info().Msg("no webhook configured, chat messages will only be logged")
		return &LogNotifier{logger: logger}
	}
	return &WebhookNotifier{
		url: cfg.WebhookURL,
		client: &fasthttp.Client{
			MaxConnsPerHost: 10,
			ReadTimeout:     constants.NotifyTimeout,
			WriteTimeout:    constants.NotifyTimeout,
		},
		logger: logger,
	}
}

// WebhookNotifier posts a JSON envelope to the configured chat relay.
type WebhookNotifier struct {
	url    string
	client *fasthttp.Client
	logger zerolog.Logger
}

type envelope struct {
	ChatID   int64  `json:"chat_id"`
	ThreadID int64  `json:"thread_id,omitempty"`
	Text     string `json:"text"`
}

func (n *WebhookNotifier) Send(ctx context.Context, chatID, threadID int64, text string) error {
	body, err := json.Marshal(envelope{ChatID: chatID, ThreadID: threadID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(n.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if ok {
		err = n.client.DoDeadline(req, resp, deadline)
	} else {
		err = n.client.Do(req, resp)
	}
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("notification rejected: %d", resp.StatusCode())
	}

	n.logger.Debug().Int64("chat_id", chatID).Msg("notification delivered")
	return nil
}

// LogNotifier writes outbound messages to the log. Useful for local runs
// and as a safe default.
type LogNotifier struct {
	logger zerolog.Logger
}

func (n *LogNotifier) Send(_ context.Context, chatID, threadID int64, text string) error {
	n.logger.Info().
		Int64("chat_id", chatID).
		Int64("thread_id", threadID).
		Str("text", text).
		Msg("chat notification")
	return nil
}
