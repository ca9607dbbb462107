package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"govchat-server/internal/config"
)

func TestCannedResponderDistribution(t *testing.T) {
	r := NewCannedResponder(rand.NewSource(42))

	const n = 10000
	counts := make(map[string]int, len(CannedPhrases))
	for i := 0; i < n; i++ {
		counts[r.Respond(context.Background(), "anything")]++
	}

	require.Len(t, counts, len(CannedPhrases), "every phrase should appear")
	expected := float64(n) / float64(len(CannedPhrases))
	for _, phrase := range CannedPhrases {
		// 约 5 个标准差的容差
		assert.InDelta(t, expected, float64(counts[phrase]), 160, "phrase %q", phrase)
	}
}

func TestCannedResponderDeterministicWithSeed(t *testing.T) {
	a := NewCannedResponder(rand.NewSource(7))
	b := NewCannedResponder(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Respond(context.Background(), ""), b.Respond(context.Background(), ""))
	}
}

func TestCannedPhraseCatalog(t *testing.T) {
	assert.Len(t, CannedPhrases, 9)
	assert.Equal(t, "Thank you for your question. I'm here to help you with government services.", CannedPhrases[0])
	assert.Equal(t, "This information is handled by a different department. I'm directing your query to the appropriate channel.", CannedPhrases[8])
}

func newForwarding(t *testing.T, endpoint string, timeout time.Duration) (*ForwardingResponder, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	return NewForwardingResponder(config.BotConfig{
		Mode:     config.BotModeForward,
		Endpoint: endpoint,
		Timeout:  timeout,
	}, zap.New(core)), logs
}

func TestForwardingResponderSuccess(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"generated_text":"X"}`))
	}))
	defer srv.Close()

	r, logs := newForwarding(t, srv.URL, time.Second)
	assert.Equal(t, "X", r.Respond(context.Background(), "How do I renew my passport?"))
	assert.Equal(t, "How do I renew my passport?", received["user_query"])
	assert.Zero(t, logs.Len())
}

func TestForwardingResponderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r, logs := newForwarding(t, srv.URL, time.Second)
	assert.Equal(t, ReplyUpstreamIssue, r.Respond(context.Background(), "hi"))
	assert.Equal(t, 1, logs.Len())
}

func TestForwardingResponderMalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing field", `{"text":"X"}`},
		{"not json", `<html>oops</html>`},
		{"wrong type", `{"generated_text":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			r, _ := newForwarding(t, srv.URL, time.Second)
			assert.Equal(t, ReplyUpstreamIssue, r.Respond(context.Background(), "hi"))
		})
	}
}

func TestForwardingResponderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	r, logs := newForwarding(t, srv.URL, 50*time.Millisecond)
	start := time.Now()
	assert.Equal(t, ReplyUpstreamUnavailable, r.Respond(context.Background(), "hi"))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, logs.Len())
}

func TestForwardingResponderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r, _ := newForwarding(t, url, time.Second)
	assert.Equal(t, ReplyUpstreamUnavailable, r.Respond(context.Background(), "hi"))
}

func TestForwardingResponderCustomFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]string{"answer": "echo: " + body["message"]})
	}))
	defer srv.Close()

	r := NewForwardingResponder(config.BotConfig{
		Endpoint:      srv.URL,
		Timeout:       time.Second,
		RequestField:  "message",
		ResponseField: "answer",
	}, zap.NewNop())
	assert.Equal(t, "echo: hi", r.Respond(context.Background(), "hi"))
}

func TestNewResponderSelectsMode(t *testing.T) {
	r, err := NewResponder(config.BotConfig{Mode: config.BotModeCanned, Seed: 1}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &CannedResponder{}, r)

	r, err = NewResponder(config.BotConfig{Mode: config.BotModeForward, Endpoint: "http://localhost", Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &ForwardingResponder{}, r)

	_, err = NewResponder(config.BotConfig{Mode: "psychic"}, zap.NewNop())
	assert.Error(t, err)
}
