// Package assembler flattens the answer-capture star schema into the
// denormalized views the product surfaces consume: brand metrics,
// competitor fan-out, cross-brand topic comparison, source attribution
// and per-prompt analytics.
package assembler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/batch"
	"github.com/vikasmalikst/evidently-aeo-sub013/internal/collector"
	"github.com/vikasmalikst/evidently-aeo-sub013/internal/metrics"
	"github.com/vikasmalikst/evidently-aeo-sub013/internal/shape"
	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/models"
)

type Engine struct {
	store       Store
	resolver    *collector.Resolver
	norm        *shape.Normalizer
	log         *zap.Logger
	chunkSize   int
	parallelism int
}

func NewEngine(store Store, chunkSize, parallelism int, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if chunkSize <= 0 {
		chunkSize = batch.DefaultChunkSize
	}
	if parallelism <= 0 {
		parallelism = batch.DefaultParallelism
	}
	return &Engine{
		store:       store,
		resolver:    collector.NewResolver(),
		norm:        shape.NewNormalizer(log),
		log:         log,
		chunkSize:   chunkSize,
		parallelism: parallelism,
	}
}

// assemble wraps a view build with the envelope contract: duration is
// always reported, every failure (including panics) is recovered into the
// envelope, and an empty result is a success.
func assemble[T any](e *Engine, view string, fn func() ([]T, error)) (res Result[T]) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = finish[T](e, view, start, nil, fmt.Errorf("panic: %v", r))
		}
	}()

	rows, err := fn()
	return finish(e, view, start, rows, err)
}

func finish[T any](e *Engine, view string, start time.Time, rows []T, err error) Result[T] {
	elapsed := time.Since(start)
	metrics.AssembleDuration.WithLabelValues(view).Observe(elapsed.Seconds())

	if err != nil {
		metrics.AssembleTotal.WithLabelValues(view, "error").Inc()
		e.log.Error("View assembly failed",
			zap.String("view", view),
			zap.Error(err),
			zap.Duration("elapsed", elapsed),
		)
		return Result[T]{
			Success:    false,
			Error:      err.Error(),
			DurationMs: elapsed.Milliseconds(),
		}
	}

	if rows == nil {
		rows = []T{}
	}
	metrics.AssembleTotal.WithLabelValues(view, "success").Inc()
	metrics.AssembleRows.WithLabelValues(view).Observe(float64(len(rows)))
	e.log.Info("View assembled",
		zap.String("view", view),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", elapsed),
	)
	return Result[T]{
		Success:    true,
		Data:       rows,
		DurationMs: elapsed.Milliseconds(),
	}
}

// loadRecords resolves the request to event IDs, fetches the raw joined
// records in bounded chunks and normalizes them, preserving request order
// and deduplicating requested IDs.
func (e *Engine) loadRecords(ctx context.Context, req Request) ([]models.FactRecord, error) {
	ids := req.EventIDs
	if len(ids) == 0 {
		filter := models.EventFilter{
			BrandID:    req.BrandID,
			CustomerID: req.CustomerID,
			Start:      req.Start,
			End:        req.End,
			Topics:     req.Topics,
		}
		if len(req.ProviderKeys) > 0 {
			filter.CollectorTypes = e.resolver.ResolveAll(req.ProviderKeys)
		}
		var err error
		ids, err = e.store.ListEventIDs(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
	}

	return e.fetchRecords(ctx, ids)
}

func (e *Engine) fetchRecords(ctx context.Context, ids []int64) ([]models.FactRecord, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	raws, err := batch.Fetch(ctx, ids, e.chunkSize, e.parallelism, e.store.FetchFactRecords)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.FactRecord, len(raws))
	for _, raw := range raws {
		rec, err := e.normalizeRecord(raw)
		if err != nil {
			return nil, err
		}
		byID[rec.EventID] = rec
	}

	// Emit in requested order; IDs with no matching event are absent.
	records := make([]models.FactRecord, 0, len(byID))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func intPtr(v int) *int              { return &v }
func boolPtr(v bool) *bool           { return &v }
func timePtr(v time.Time) *time.Time { return &v }
