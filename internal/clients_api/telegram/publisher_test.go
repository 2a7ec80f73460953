package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"amr-coresistance/internal/config"
	"amr-coresistance/internal/coresistance"
	"amr-coresistance/internal/infra/retry"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testToken = "test-token"

type fakeBotAPI struct {
	server    *httptest.Server
	sendCalls atomic.Int32
	caption   atomic.Value
	chatID    atomic.Value
	responses []string // sendPhoto bodies, in order; the last one repeats
}

func newFakeBotAPI(t *testing.T, responses ...string) *fakeBotAPI {
	t.Helper()
	f := &fakeBotAPI{responses: responses}

	mux := http.NewServeMux()
	mux.HandleFunc("/bot"+testToken+"/getMe", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"chart","username":"chart_bot"}}`)
	})
	mux.HandleFunc("/bot"+testToken+"/sendPhoto", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err == nil {
			f.caption.Store(r.FormValue("caption"))
			f.chatID.Store(r.FormValue("chat_id"))
		}
		n := int(f.sendCalls.Add(1))
		idx := min(n-1, len(f.responses)-1)
		io.WriteString(w, f.responses[idx])
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBotAPI) config() config.TelegramConfig {
	return config.TelegramConfig{
		BotToken:    testToken,
		ChatID:      "-100123",
		APIEndpoint: f.server.URL + "/bot%s/%s",
		MaxRetries:  2,
	}
}

const sentOK = `{"ok":true,"result":{"message_id":42,"date":1700000000,"chat":{"id":-100123,"type":"group"}}}`

func newTestPublisher(t *testing.T, f *fakeBotAPI) *Publisher {
	t.Helper()
	p, err := NewPublisher(f.config())
	require.NoError(t, err)
	p.rateLimiter = rate.NewLimiter(rate.Inf, 1)
	p.retryOpts = retry.Options{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	return p
}

func writeChart(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG fake"), 0644))
	return path
}

func TestSendChart_Success(t *testing.T) {
	f := newFakeBotAPI(t, sentOK)
	p := newTestPublisher(t, f)

	id, err := p.SendChart(context.Background(), writeChart(t), "Top 3 co-resistance pairs")

	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, int32(1), f.sendCalls.Load())
	assert.Equal(t, "Top 3 co-resistance pairs", f.caption.Load())
	assert.Equal(t, "-100123", f.chatID.Load())
}

func TestSendChart_RetriesOnTooManyRequests(t *testing.T) {
	f := newFakeBotAPI(t,
		`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 1","parameters":{"retry_after":1}}`,
		sentOK,
	)
	p := newTestPublisher(t, f)

	id, err := p.SendChart(context.Background(), writeChart(t), "caption")

	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, int32(2), f.sendCalls.Load())
}

func TestSendChart_DoesNotRetryBadRequest(t *testing.T) {
	f := newFakeBotAPI(t, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	p := newTestPublisher(t, f)

	_, err := p.SendChart(context.Background(), writeChart(t), "caption")

	require.Error(t, err)
	var apiErr *retry.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, int32(1), f.sendCalls.Load())
}

func TestSendChart_OpenBreakerStopsRetries(t *testing.T) {
	f := newFakeBotAPI(t, `{"ok":false,"error_code":502,"description":"Bad Gateway"}`)
	p := newTestPublisher(t, f)
	p.retryOpts.MaxRetries = 5

	_, err := p.SendChart(context.Background(), writeChart(t), "caption")

	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(breakerTripAfter), f.sendCalls.Load())
	assert.Equal(t, gobreaker.StateOpen, p.circuitBreaker.State())
}

func TestSendChart_ThrottlingDoesNotOpenBreaker(t *testing.T) {
	tooMany := `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 1","parameters":{"retry_after":1}}`
	f := newFakeBotAPI(t, tooMany, tooMany, sentOK)
	p := newTestPublisher(t, f)

	id, err := p.SendChart(context.Background(), writeChart(t), "caption")

	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, int32(3), f.sendCalls.Load())
	assert.Equal(t, gobreaker.StateClosed, p.circuitBreaker.State())
}

func TestSendChart_CancelledContext(t *testing.T) {
	f := newFakeBotAPI(t, sentOK)
	p := newTestPublisher(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.SendChart(ctx, writeChart(t), "caption")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), f.sendCalls.Load())
}

func TestNewPublisher_Validation(t *testing.T) {
	_, err := NewPublisher(config.TelegramConfig{ChatID: "1"})
	assert.ErrorContains(t, err, "bot_token")

	_, err = NewPublisher(config.TelegramConfig{BotToken: testToken})
	assert.ErrorContains(t, err, "chat_id")

	_, err = NewPublisher(config.TelegramConfig{BotToken: testToken, ChatID: "general"})
	assert.ErrorContains(t, err, "invalid telegram.chat_id")
}

func TestNewPublisher_RejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer srv.Close()

	_, err := NewPublisher(config.TelegramConfig{
		BotToken:    testToken,
		ChatID:      "1",
		APIEndpoint: srv.URL + "/bot%s/%s",
	})
	assert.Error(t, err)
}

func TestCaption(t *testing.T) {
	rows := coresistance.Top([]coresistance.Pair{
		{Antibiotic1: "PEN", Antibiotic2: "OXA", Phi: 0.91},
		{Antibiotic1: "TET", Antibiotic2: "DOX", Phi: 0.84},
	}, 10)

	assert.Equal(t, "Top 2 co-resistance pairs\n1. PEN - OXA (phi 0.91)\n2. TET - DOX (phi 0.84)", Caption(rows))
}

func TestCaption_TruncatedToTelegramLimit(t *testing.T) {
	var pairs []coresistance.Pair
	for i := 0; i < 10; i++ {
		pairs = append(pairs, coresistance.Pair{
			Antibiotic1: strings.Repeat("x", 200),
			Antibiotic2: fmt.Sprint(i),
			Phi:         0.5,
		})
	}

	caption := Caption(coresistance.Top(pairs, 10))

	assert.Equal(t, maxCaptionRunes, len([]rune(caption)))
	assert.True(t, strings.HasSuffix(caption, "…"))
}

func TestCodeFromDescription(t *testing.T) {
	assert.Equal(t, 400, codeFromDescription("Bad Request: chat not found"))
	assert.Equal(t, 429, codeFromDescription("Too Many Requests: retry after 5"))
	assert.Equal(t, 502, codeFromDescription("Bad Gateway"))
	assert.Equal(t, 0, codeFromDescription("something else"))
}
