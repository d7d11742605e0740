package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang-twse-watcher/internal/watcher/config"
	"golang-twse-watcher/internal/watcher/dto"
	"golang-twse-watcher/pkg/logger"
)

// QuoteRepository fetches quote batches from the upstream market-data
// endpoint. It does not cache or throttle; that is the caller's job.
type QuoteRepository interface {
	FetchQuotes(ctx context.Context, symbols []string) ([]dto.Quote, error)
}

type twseQuoteRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewTWSEQuoteRepository creates a QuoteRepository against the TWSE MIS
// getStockInfo endpoint.
func NewTWSEQuoteRepository(cfg *config.Config, log *logger.Logger) QuoteRepository {
	return &twseQuoteRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.TWSE.Timeout,
		},
		sleep: sleepWithContext,
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FetchQuotes issues one batched request covering every requested symbol
// under both venue prefixes. Transient failures (transport errors, malformed
// bodies, empty results) are retried with linearly increasing delay. After
// the retry budget is spent an empty batch is returned, never an error;
// callers must treat "empty" as temporarily unknown.
func (r *twseQuoteRepository) FetchQuotes(ctx context.Context, symbols []string) ([]dto.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	parts := make([]string, 0, len(symbols))
	for _, id := range symbols {
		// A symbol's venue is not known in advance; query both.
		parts = append(parts, fmt.Sprintf("tse_%s.tw|otc_%s.tw", id, id))
	}
	url := fmt.Sprintf("%s?json=1&delay=0&ex_ch=%s&_=%d",
		r.cfg.TWSE.BaseURL, strings.Join(parts, "|"), time.Now().UnixMilli())

	for attempt := 0; ; attempt++ {
		quotes, err := r.fetchOnce(ctx, url)
		if err == nil {
			return quotes, nil
		}

		r.log.WarnContext(ctx, "Batched quote fetch failed",
			logger.ErrorField(err),
			logger.IntField("attempt", attempt+1),
			logger.IntField("max_attempts", r.cfg.TWSE.MaxRetries+1),
			logger.IntField("symbol_count", len(symbols)))

		if attempt >= r.cfg.TWSE.MaxRetries {
			return []dto.Quote{}, nil
		}
		if err := r.sleep(ctx, r.cfg.TWSE.RetryBaseDelay*time.Duration(attempt+1)); err != nil {
			return []dto.Quote{}, nil
		}
	}
}

func (r *twseQuoteRepository) fetchOnce(ctx context.Context, url string) ([]dto.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.cfg.TWSE.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from quote endpoint", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed dto.TWSEResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed quote response: %w", err)
	}
	if len(parsed.MsgArray) == 0 {
		return nil, fmt.Errorf("empty quote response")
	}

	quotes := make([]dto.Quote, 0, len(parsed.MsgArray))
	for _, msg := range parsed.MsgArray {
		// Records without a code or display name are noise, not errors.
		if msg.Code == "" || msg.Name == "" {
			continue
		}
		quotes = append(quotes, dto.Quote{
			Symbol:         msg.Code,
			Name:           msg.Name,
			Price:          resolvePrice(msg),
			High:           parsePrice(msg.High),
			Low:            parsePrice(msg.Low),
			YesterdayClose: parsePrice(msg.PrevClose),
			Volume:         parsePrice(msg.Volume),
			Time:           msg.TradeTime,
		})
	}

	return quotes, nil
}

// resolvePrice applies the fallback chain for the current price: trade price,
// then the first valid bid, then the first valid ask, then prior close.
func resolvePrice(msg dto.TWSEMessage) float64 {
	if p := parsePrice(msg.TradePrice); p > 0 {
		return p
	}
	if p := firstValidPrice(msg.BidLadder); p > 0 {
		return p
	}
	if p := firstValidPrice(msg.AskLadder); p > 0 {
		return p
	}
	return parsePrice(msg.PrevClose)
}

// firstValidPrice scans a "_"-delimited price ladder for the first valid
// token. Ladders often lead with zero placeholders.
func firstValidPrice(raw string) float64 {
	if raw == "" || raw == "-" {
		return 0
	}
	for _, part := range strings.Split(raw, "_") {
		if p := parsePrice(part); p > 0 {
			return p
		}
	}
	return 0
}

// parsePrice parses a price field leniently: missing, sentinel, non-numeric
// and non-positive values all collapse to 0.
func parsePrice(raw string) float64 {
	if raw == "" || raw == "-" {
		return 0
	}
	p, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || p <= 0 {
		return 0
	}
	return p
}
