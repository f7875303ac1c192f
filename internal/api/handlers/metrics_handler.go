package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/assembler"
	"github.com/vikasmalikst/evidently-aeo-sub013/internal/cache/redis"
	"github.com/vikasmalikst/evidently-aeo-sub013/pkg/logger"
	"github.com/vikasmalikst/evidently-aeo-sub013/pkg/utils"
)

type MetricsHandler struct {
	engine *assembler.Engine
	cache  *redis.Client
}

// NewMetricsHandler wires the flattening engine behind the HTTP surface.
// cache may be nil; memoization is then skipped entirely.
func NewMetricsHandler(engine *assembler.Engine, cache *redis.Client) *MetricsHandler {
	return &MetricsHandler{
		engine: engine,
		cache:  cache,
	}
}

func (h *MetricsHandler) HandleBrandView(c *fiber.Ctx) error {
	req, ok, err := parseRequest(c)
	if !ok {
		return err
	}
	return serveView(h, c, "brand", req, func(ctx context.Context) assembler.Result[assembler.BrandRow] {
		return h.engine.AssembleBrandView(ctx, req)
	})
}

func (h *MetricsHandler) HandleCompetitorView(c *fiber.Ctx) error {
	req, ok, err := parseRequest(c)
	if !ok {
		return err
	}
	return serveView(h, c, "competitor", req, func(ctx context.Context) assembler.Result[assembler.CompetitorRow] {
		return h.engine.AssembleCompetitorView(ctx, req)
	})
}

func (h *MetricsHandler) HandleTopicComparison(c *fiber.Ctx) error {
	var req assembler.TopicJoinRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.CustomerID == 0 || len(req.Topics) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "customerId and topics are required",
		})
	}
	return serveView(h, c, "topics", req, func(ctx context.Context) assembler.Result[assembler.CompetitorRow] {
		return h.engine.AssembleTopicComparison(ctx, req)
	})
}

func (h *MetricsHandler) HandleSourceAttribution(c *fiber.Ctx) error {
	req, ok, err := parseRequest(c)
	if !ok {
		return err
	}
	return serveView(h, c, "sources", req, func(ctx context.Context) assembler.Result[assembler.SourceRow] {
		return h.engine.AssembleSourceAttribution(ctx, req)
	})
}

func (h *MetricsHandler) HandlePromptsAnalytics(c *fiber.Ctx) error {
	req, ok, err := parseRequest(c)
	if !ok {
		return err
	}
	return serveView(h, c, "prompts", req, func(ctx context.Context) assembler.Result[assembler.PromptRow] {
		return h.engine.AssemblePromptsAnalytics(ctx, req)
	})
}

// HandleInvalidateCache drops every memoized envelope for one view, for
// use after an upstream rescore rewrites the underlying facts.
func (h *MetricsHandler) HandleInvalidateCache(c *fiber.Ctx) error {
	view := c.Params("view")
	if h.cache == nil {
		return c.JSON(fiber.Map{"invalidated": false, "view": view})
	}
	if err := h.cache.InvalidateView(c.Context(), view); err != nil {
		logger.Error("Failed to invalidate view cache", zap.String("view", view), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to invalidate cache",
		})
	}
	return c.JSON(fiber.Map{"invalidated": true, "view": view})
}

func parseRequest(c *fiber.Ctx) (assembler.Request, bool, error) {
	var req assembler.Request
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return req, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.EventIDs) == 0 && req.BrandID == 0 {
		return req, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "eventIds or brandId is required",
		})
	}
	return req, true, nil
}

// serveView answers from the envelope cache when possible, otherwise
// assembles and caches successful envelopes. Every envelope goes out with
// status 200; success=false inside it means the query did not complete.
func serveView[T any](h *MetricsHandler, c *fiber.Ctx, view string, req interface{}, build func(context.Context) assembler.Result[T]) error {
	requestID := uuid.New().String()

	hash, hashErr := utils.HashRequest(req)
	if hashErr == nil && h.cache != nil {
		var cached assembler.Result[T]
		hit, err := h.cache.GetView(c.Context(), view, hash, &cached)
		if err != nil {
			logger.Warn("View cache lookup failed", zap.String("view", view), zap.Error(err))
		} else if hit {
			return c.JSON(cached)
		}
	}

	result := build(c.Context())

	logger.Info("View request served",
		zap.String("request_id", requestID),
		zap.String("view", view),
		zap.Bool("success", result.Success),
		zap.Int("rows", len(result.Data)),
		zap.Int64("duration_ms", result.DurationMs),
	)

	if hashErr == nil && h.cache != nil && result.Success {
		if err := h.cache.SetView(c.Context(), view, hash, result); err != nil {
			logger.Warn("View cache store failed", zap.String("view", view), zap.Error(err))
		}
	}

	return c.JSON(result)
}
