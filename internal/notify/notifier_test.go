package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu    sync.Mutex
	sent  []string
	err   error
	delay time.Duration
}

func (f *fakeTransport) Send(ctx context.Context, message string) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return f.err
}

func TestNotifierSend(t *testing.T) {
	tr := &fakeTransport{}
	n := New(tr, zerolog.Nop())

	assert.True(t, n.Send(context.Background(), "hello"))
	assert.Equal(t, []string{"hello"}, tr.sent)
}

func TestNotifierTransportErrorIsFalse(t *testing.T) {
	n := New(&fakeTransport{err: errors.New("boom")}, zerolog.Nop())
	assert.False(t, n.Send(context.Background(), "hello"))
}

func TestNotifierTimeoutIsFalse(t *testing.T) {
	n := New(&fakeTransport{delay: 500 * time.Millisecond}, zerolog.Nop(), WithTimeout(20*time.Millisecond))

	start := time.Now()
	assert.False(t, n.Send(context.Background(), "slow"))
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestNotifierDisabled(t *testing.T) {
	n := New(nil, zerolog.Nop())
	assert.False(t, n.Send(context.Background(), "hello"))
}

func TestNotifierRateLimit(t *testing.T) {
	tr := &fakeTransport{}
	// One token per minute with a burst of five: the sixth send cannot get a
	// token before the timeout.
	n := New(tr, zerolog.Nop(), WithRatePerMinute(1), WithTimeout(50*time.Millisecond))

	for i := 0; i < 5; i++ {
		require.True(t, n.Send(context.Background(), "burst"))
	}
	assert.False(t, n.Send(context.Background(), "over"))
	assert.Len(t, tr.sent, 5)
}

func TestTelegramTransport(t *testing.T) {
	var mu sync.Mutex
	var gotPath string
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form := parseBody(r.Header.Get("Content-Type"), body)
		mu.Lock()
		gotPath = r.URL.Path
		gotForm = form
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":-1002901540928,"type":"supergroup"},"text":"x"}}`))
	}))
	defer srv.Close()

	tg, err := NewTelegram(TelegramConfig{Token: "123:abc", ChatID: "-1002901540928", APIURL: srv.URL})
	require.NoError(t, err)

	n := New(tg, zerolog.Nop())
	require.True(t, n.Send(context.Background(), "<b>hi</b>"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, "-1002901540928", gotForm.Get("chat_id"))
	assert.Equal(t, "<b>hi</b>", gotForm.Get("text"))
	assert.Equal(t, "HTML", gotForm.Get("parse_mode"))
}

func TestTelegramTransportAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	tg, err := NewTelegram(TelegramConfig{Token: "123:abc", ChatID: "1", APIURL: srv.URL})
	require.NoError(t, err)
	assert.False(t, New(tg, zerolog.Nop()).Send(context.Background(), "hi"))
}

func TestNewTelegramValidation(t *testing.T) {
	_, err := NewTelegram(TelegramConfig{ChatID: "1"})
	assert.Error(t, err)

	_, err = NewTelegram(TelegramConfig{Token: "123:abc", ChatID: "@channel"})
	assert.Error(t, err)
}

// parseBody accepts both JSON and form encoded Bot API requests.
func parseBody(contentType string, body []byte) url.Values {
	out := url.Values{}
	if strings.HasPrefix(contentType, "application/json") {
		var m map[string]any
		if err := json.Unmarshal(body, &m); err == nil {
			for k, v := range m {
				out.Set(k, fmt.Sprint(v))
			}
		}
		return out
	}
	if v, err := url.ParseQuery(string(body)); err == nil {
		return v
	}
	return out
}
