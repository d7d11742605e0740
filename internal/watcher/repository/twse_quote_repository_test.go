package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang-twse-watcher/internal/watcher/config"
	"golang-twse-watcher/pkg/logger"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func nopLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func quoteConfig(baseURL string, maxRetries int) *config.Config {
	return &config.Config{
		TWSE: config.TWSE{
			BaseURL:        baseURL,
			UserAgent:      "test-agent",
			Timeout:        5 * time.Second,
			MaxRetries:     maxRetries,
			RetryBaseDelay: 0,
		},
	}
}

func TestFetchQuotes_PriceFallbackChain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"msgArray":[
			{"c":"2330","n":"台積電","z":"-","b":"0.0000_103.5000_103.0000","a":"104.0000_104.5000","h":"104.00","l":"102.50","y":"102.00","v":"12345","t":"10:30:00"},
			{"c":"0050","n":"元大台灣50","z":"-","b":"-","a":"-","y":"140.00","h":"-","l":"-","v":"0","t":"10:30:00"},
			{"c":"9999","n":"","z":"50.0"}
		]}`)
	}))
	defer server.Close()

	repo := NewTWSEQuoteRepository(quoteConfig(server.URL, 2), nopLogger())
	quotes, err := repo.FetchQuotes(context.Background(), []string{"2330", "0050"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	// Trade price absent, first valid bid wins over the leading zero token.
	assert.Equal(t, 103.5, quotes[0].Price)
	assert.Equal(t, 104.0, quotes[0].High)
	assert.Equal(t, 102.5, quotes[0].Low)
	assert.Equal(t, 102.0, quotes[0].YesterdayClose)

	// No trade, no ladder: prior close is the last resort.
	assert.Equal(t, 140.0, quotes[1].Price)
	assert.Equal(t, 0.0, quotes[1].High)
}

func TestFetchQuotes_RetryThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"msgArray":[{"c":"2330","n":"台積電","z":"600.0","h":"601.0","l":"598.0","y":"595.0"}]}`)
	}))
	defer server.Close()

	repo := NewTWSEQuoteRepository(quoteConfig(server.URL, 2), nopLogger())
	quotes, err := repo.FetchQuotes(context.Background(), []string{"2330"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, 600.0, quotes[0].Price)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestFetchQuotes_ExhaustionReturnsEmptyBatch(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := NewTWSEQuoteRepository(quoteConfig(server.URL, 2), nopLogger())
	quotes, err := repo.FetchQuotes(context.Background(), []string{"2330"})
	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetchQuotes_EmptyMsgArrayIsRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		fmt.Fprint(w, `{"msgArray":[]}`)
	}))
	defer server.Close()

	repo := NewTWSEQuoteRepository(quoteConfig(server.URL, 1), nopLogger())
	quotes, err := repo.FetchQuotes(context.Background(), []string{"2330"})
	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestFetchQuotes_NoSymbols(t *testing.T) {
	repo := NewTWSEQuoteRepository(quoteConfig("http://unused", 0), nopLogger())
	quotes, err := repo.FetchQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, quotes)
}

func TestParsePriceLenient(t *testing.T) {
	assert.Equal(t, 0.0, parsePrice(""))
	assert.Equal(t, 0.0, parsePrice("-"))
	assert.Equal(t, 0.0, parsePrice("abc"))
	assert.Equal(t, 0.0, parsePrice("-5.0"))
	assert.Equal(t, 0.0, parsePrice("0"))
	assert.Equal(t, 103.5, parsePrice(" 103.5 "))
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, IsDuplicateKeyError(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyError(fmt.Errorf("insert failed: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicateKeyError(&pq.Error{Code: "23505"}))
	assert.False(t, IsDuplicateKeyError(&pq.Error{Code: "23503"}))
	assert.False(t, IsDuplicateKeyError(fmt.Errorf("some other error")))
	assert.False(t, IsDuplicateKeyError(nil))
}
