package telegram

// Package telegram posts rendered charts to a Telegram chat.
// Sends go through a rate limiter, a circuit breaker and retry with backoff, the
// same protection stack used for every outbound API call in this project.

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"amr-coresistance/internal/config"
	"amr-coresistance/internal/coresistance"
	"amr-coresistance/internal/infra/log"
	"amr-coresistance/internal/infra/retry"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxCaptionRunes is Telegram's limit for photo captions.
const maxCaptionRunes = 1024

// breakerTripAfter consecutive failed sends open the circuit breaker. It stays
// below the retry budget so an open breaker cuts the remaining retries short.
const breakerTripAfter = 2

// Publisher sends chart images to one chat.
type Publisher struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	rateLimiter    *rate.Limiter             // Telegram allows about one message per second per chat
	circuitBreaker *gobreaker.CircuitBreaker // stops hammering the API after repeated failures
	retryOpts      retry.Options
}

// NewPublisher authenticates the bot (getMe) and returns a ready Publisher.
func NewPublisher(cfg config.TelegramConfig) (*Publisher, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram.bot_token is required")
	}
	chatID, err := parseChatID(cfg.ChatID)
	if err != nil {
		return nil, err
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.BotToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.LogInfo("Telegram bot authorized", zap.String("username", bot.Self.UserName))

	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "TelegramAPI",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		// Throttling means the API is up; only errors other than 429 count against it.
		IsSuccessful: func(err error) bool {
			var apiErr *retry.APIError
			return err == nil || (errors.As(err, &apiErr) && apiErr.Code == 429)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.LogWarn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Publisher{
		bot:            bot,
		chatID:         chatID,
		rateLimiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		circuitBreaker: circuitBreaker,
		retryOpts: retry.Options{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  500 * time.Millisecond,
			MaxDelay:   30 * time.Second,
		},
	}, nil
}

// SendChart uploads the PNG at path with caption and returns the message ID.
func (p *Publisher) SendChart(ctx context.Context, path, caption string) (int, error) {
	var messageID int
	startTime := time.Now()

	err := retry.Do(ctx, p.retryOpts, func() error {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}

		result, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			photo := tgbotapi.NewPhoto(p.chatID, tgbotapi.FilePath(path))
			photo.Caption = caption
			msg, err := p.bot.Send(photo)
			if err != nil {
				return nil, classifyError(err)
			}
			return msg.MessageID, nil
		})
		if err != nil {
			log.LogDebug("Chart send attempt failed", zap.String("path", path), zap.Error(err))
			return err
		}
		messageID = result.(int)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send chart: %w", err)
	}

	log.LogInfo("Chart sent to telegram",
		zap.Int64("chat_id", p.chatID),
		zap.Int("message_id", messageID),
		zap.Int64("duration_ms", time.Since(startTime).Milliseconds()))
	return messageID, nil
}

// classifyError turns a Bot API error into a retry.APIError so 429/5xx are retried.
// Upload responses come back without error_code, so the code is recovered from
// retry_after or the description prefix.
func classifyError(err error) error {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) {
		return err
	}

	code := tgErr.Code
	if code == 0 {
		code = codeFromDescription(tgErr.Message)
	}
	if code == 0 && tgErr.RetryAfter > 0 {
		code = 429
	}

	return &retry.APIError{
		Code:       code,
		Message:    tgErr.Message,
		RetryAfter: time.Duration(tgErr.RetryAfter) * time.Second,
	}
}

var descriptionCodes = []struct {
	prefix string
	code   int
}{
	{"Bad Request", 400},
	{"Unauthorized", 401},
	{"Forbidden", 403},
	{"Not Found", 404},
	{"Conflict", 409},
	{"Request Entity Too Large", 413},
	{"Too Many Requests", 429},
	{"Internal Server Error", 500},
	{"Bad Gateway", 502},
	{"Service Unavailable", 503},
	{"Gateway Timeout", 504},
}

func codeFromDescription(description string) int {
	for _, dc := range descriptionCodes {
		if strings.HasPrefix(description, dc.prefix) {
			return dc.code
		}
	}
	return 0
}

func parseChatID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("telegram.chat_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram.chat_id %q: %w", raw, err)
	}
	return id, nil
}

// Caption lists the plotted pairs, strongest first, within Telegram's caption limit.
func Caption(rows []coresistance.DisplayRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d co-resistance pairs", len(rows))
	for i, row := range rows {
		fmt.Fprintf(&b, "\n%d. %s (phi %.2f)", i+1, row.Label, row.Phi)
	}

	runes := []rune(b.String())
	if len(runes) > maxCaptionRunes {
		return string(runes[:maxCaptionRunes-1]) + "…"
	}
	return string(runes)
}
