package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/mandate-infra-prototype/internal/infra"
)

func TestClientAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "рынок растет", req["text"])

		json.NewEncoder(w).Encode(Verdict{
			Feeling:     "joy",
			Temperature: 0.92,
			Text:        req["text"],
		})
	}))
	defer srv.Close()

	c := NewClient(infra.SentimentConfig{URL: srv.URL})
	verdict, err := c.Analyze(context.Background(), "рынок растет")
	require.NoError(t, err)
	assert.Equal(t, "joy", verdict.Feeling)
	assert.InDelta(t, 0.92, verdict.Temperature, 1e-9)
	assert.Equal(t, "рынок растет", verdict.Text)
}

func TestClientThrottle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(infra.SentimentConfig{URL: srv.URL})
	_, err := c.Analyze(context.Background(), "x")

	var tErr *ThrottleError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, 7*time.Second, tErr.RetryAfter)
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(infra.SentimentConfig{URL: srv.URL})
	_, err := c.Analyze(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

// flakyProvider падает первые fails вызовов, затем отвечает.
type flakyProvider struct {
	fails int32
	calls int32
}

func (p *flakyProvider) Analyze(ctx context.Context, text string) (*Verdict, error) {
	n := atomic.AddInt32(&p.calls, 1)
	if n <= p.fails {
		return nil, errors.New("transient")
	}
	return &Verdict{Feeling: "neutral", Text: text}, nil
}

func TestReliabilityWrapperRetries(t *testing.T) {
	p := &flakyProvider{fails: 2}
	w := NewReliabilityWrapper(p, infra.SentimentConfig{MaxAttempts: 3})

	verdict, err := w.Analyze(context.Background(), "hold")
	require.NoError(t, err)
	assert.Equal(t, "neutral", verdict.Feeling)
	assert.Equal(t, int32(3), atomic.LoadInt32(&p.calls))
}

func TestReliabilityWrapperExhaustsAttempts(t *testing.T) {
	p := &flakyProvider{fails: 100}
	w := NewReliabilityWrapper(p, infra.SentimentConfig{MaxAttempts: 2})

	_, err := w.Analyze(context.Background(), "hold")
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&p.calls))
}
