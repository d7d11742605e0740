package service

import (
	"context"
	"fmt"
	"time"

	"golang-twse-watcher/internal/entity"
	"golang-twse-watcher/internal/watcher/dto"
	"golang-twse-watcher/internal/watcher/repository"
	"golang-twse-watcher/pkg/logger"

	"github.com/patrickmn/go-cache"
)

// Daily price band ratio for the limit-up/limit-down annotation.
const limitBandRatio = 0.095

// HitDetector compares a quote batch against every tracked stock's targets
// and produces the de-duplicated list of fresh hit events. The hit log's
// uniqueness constraint is the authoritative duplicate guard; the in-memory
// memo and the pre-create lookup only avoid pointless write attempts.
type HitDetector struct {
	stocks  repository.TrackedStockRepository
	hitLogs repository.StockHitLogRepository
	clock   *MarketClock
	log     *logger.Logger
	seen    *cache.Cache
}

// NewHitDetector creates a HitDetector.
func NewHitDetector(
	stocks repository.TrackedStockRepository,
	hitLogs repository.StockHitLogRepository,
	clock *MarketClock,
	log *logger.Logger,
) *HitDetector {
	return &HitDetector{
		stocks:  stocks,
		hitLogs: hitLogs,
		clock:   clock,
		log:     log,
		seen:    cache.New(24*time.Hour, time.Hour),
	}
}

type candidate struct {
	targetType entity.TargetType
	target     float64
	trigger    float64
}

// CheckAndLogHits evaluates every tracked stock present in the batch.
// Per-symbol anomalies and persistence failures are isolated to that stock;
// the rest of the pass proceeds.
func (d *HitDetector) CheckAndLogHits(ctx context.Context, quotes []dto.Quote) ([]dto.HitEvent, error) {
	stocks, err := d.stocks.FindWithTargets(ctx)
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[string]dto.Quote, len(quotes))
	for _, q := range quotes {
		bySymbol[q.Symbol] = q
	}

	dayKey := d.clock.DayKey()
	var events []dto.HitEvent

	for _, stock := range stocks {
		// The repository filters on targets, but rows arriving through
		// other paths must not slip into evaluation.
		if !stock.HasTargets() {
			continue
		}
		quote, ok := bySymbol[stock.Code]
		if !ok {
			continue
		}
		if quote.Price <= 0 {
			d.log.DebugContext(ctx, "Skipping stock with unresolved price", logger.StringField("code", stock.Code))
			continue
		}

		// An absent high/low is not an error: a same-price observation is
		// valid, just uninformative.
		high, low := quote.High, quote.Low
		if high <= 0 || low <= 0 {
			high, low = quote.Price, quote.Price
		}

		candidates := resolveCompeting(d.evaluate(&stock, high, low))
		limit := limitAnnotation(quote.Price, quote.YesterdayClose)

		upsideHit := false
		for _, cand := range candidates {
			created, err := d.logHit(ctx, &stock, cand, dayKey)
			if err != nil {
				d.log.ErrorContext(ctx, "Failed to log hit",
					logger.ErrorField(err),
					logger.StringField("code", stock.Code),
					logger.StringField("type", string(cand.targetType)))
				continue
			}
			if !created {
				continue
			}
			events = append(events, dto.HitEvent{
				Code:   stock.Code,
				Name:   quote.Name,
				Type:   cand.targetType,
				Price:  cand.trigger,
				Target: cand.target,
				Limit:  limit,
			})
			if !cand.targetType.Downside() {
				upsideHit = true
			}
		}

		if upsideHit && (stock.IsSuccess == nil || !*stock.IsSuccess) {
			if err := d.stocks.MarkSuccess(ctx, stock.ID, d.clock.Now()); err != nil {
				d.log.ErrorContext(ctx, "Failed to mark stock successful",
					logger.ErrorField(err), logger.StringField("code", stock.Code))
			}
		}
	}

	return events, nil
}

// evaluate checks the four target conditions independently.
func (d *HitDetector) evaluate(stock *entity.TrackedStock, high, low float64) []candidate {
	var candidates []candidate
	for _, targetType := range []entity.TargetType{
		entity.TargetSupport, entity.TargetSwap, entity.TargetShortTerm, entity.TargetWave,
	} {
		raw := stock.TargetFor(targetType)
		if raw == nil || *raw == "" {
			continue
		}
		threshold, ok := ParseTarget(*raw, targetType)
		if !ok {
			continue
		}
		if targetType.Downside() {
			if low <= threshold {
				candidates = append(candidates, candidate{targetType: targetType, target: threshold, trigger: low})
			}
		} else if high >= threshold {
			candidates = append(candidates, candidate{targetType: targetType, target: threshold, trigger: high})
		}
	}
	return candidates
}

// resolveCompeting applies the mutual-exclusion rules: wave supersedes
// shortTerm and swap supersedes support. Observed behavior of the original
// system, preserved as-is.
func resolveCompeting(candidates []candidate) []candidate {
	has := func(t entity.TargetType) bool {
		for _, c := range candidates {
			if c.targetType == t {
				return true
			}
		}
		return false
	}

	dropShortTerm := has(entity.TargetWave) && has(entity.TargetShortTerm)
	dropSupport := has(entity.TargetSwap) && has(entity.TargetSupport)

	kept := candidates[:0]
	for _, c := range candidates {
		if dropShortTerm && c.targetType == entity.TargetShortTerm {
			continue
		}
		if dropSupport && c.targetType == entity.TargetSupport {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// logHit performs the check-then-create for one candidate. Returns true only
// when a fresh record was created; a duplicate (memo, existing record, or
// duplicate-key failure from a concurrent pass) is benign suppression.
func (d *HitDetector) logHit(ctx context.Context, stock *entity.TrackedStock, cand candidate, dayKey string) (bool, error) {
	memoKey := fmt.Sprintf("%d:%s:%s", stock.ID, cand.targetType, dayKey)
	if _, found := d.seen.Get(memoKey); found {
		return false, nil
	}

	existing, err := d.hitLogs.FindByStockTypeDay(ctx, stock.ID, cand.targetType, dayKey)
	if err != nil {
		return false, err
	}
	if existing != nil {
		d.seen.SetDefault(memoKey, true)
		return false, nil
	}

	record := &entity.StockHitLog{
		StockID:      stock.ID,
		Code:         stock.Code,
		Type:         cand.targetType,
		TargetPrice:  cand.target,
		TriggerPrice: cand.trigger,
		HappenedAt:   d.clock.Now(),
		DayKey:       dayKey,
	}
	if err := d.hitLogs.Create(ctx, record); err != nil {
		if repository.IsDuplicateKeyError(err) {
			// Lost the race to a concurrent evaluation; already logged.
			d.seen.SetDefault(memoKey, true)
			return false, nil
		}
		return false, err
	}

	d.seen.SetDefault(memoKey, true)
	return true, nil
}

// limitAnnotation derives the human-facing limit-up/limit-down marker. It
// never affects hit logic.
func limitAnnotation(price, yesterdayClose float64) string {
	if yesterdayClose <= 0 {
		return ""
	}
	change := (price - yesterdayClose) / yesterdayClose
	switch {
	case change >= limitBandRatio:
		return dto.LimitUp
	case change <= -limitBandRatio:
		return dto.LimitDown
	}
	return ""
}
