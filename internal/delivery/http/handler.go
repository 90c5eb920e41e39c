package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/forkcast/nutrition/internal/domain"
)

const (
	serviceName    = "forkcast-nutrition"
	serviceVersion = "1.0.0"

	maxIngredientsPerRequest = 200
)

// NutritionService is the pipeline the handlers drive
type NutritionService interface {
	CalculateNutrition(ctx context.Context, raws []domain.RawIngredient) (*domain.NutritionResponse, error)
	ParseIngredients(raws []domain.RawIngredient) ([]domain.ParsedIngredient, error)
	SplitIngredients(text string) []domain.RawIngredient
	MatchFood(ctx context.Context, name string) (*domain.MatchedFood, error)
}

// IngredientsRequest carries either a list of ingredients or one
// comma-separated ingredient string
type IngredientsRequest struct {
	Ingredients []domain.RawIngredient `json:"ingredients"`
	Text        string                 `json:"text"`
}

// MatchRequest names a single ingredient to resolve
type MatchRequest struct {
	Name string `json:"name" binding:"required"`
}

// ParseResponse is the body returned by the parse endpoint
type ParseResponse struct {
	Ingredients []domain.ParsedIngredient `json:"ingredients"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service        NutritionService
	logger         *zap.Logger
	requestTimeout time.Duration
}

// NewHandler creates a new HTTP handler. A nil service makes the nutrition
// endpoints answer 501.
func NewHandler(service NutritionService, logger *zap.Logger, requestTimeout time.Duration) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	return &Handler{
		service:        service,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// CalculateNutrition handles POST /api/v1/nutrition/calculate
func (h *Handler) CalculateNutrition(c *gin.Context) {
	if !h.ensureService(c) {
		return
	}

	raws, ok := h.bindIngredients(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	resp, err := h.service.CalculateNutrition(ctx, raws)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ParseIngredients handles POST /api/v1/nutrition/parse
func (h *Handler) ParseIngredients(c *gin.Context) {
	if !h.ensureService(c) {
		return
	}

	raws, ok := h.bindIngredients(c)
	if !ok {
		return
	}

	parsed, err := h.service.ParseIngredients(raws)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ParseResponse{Ingredients: parsed})
}

// MatchFood handles POST /api/v1/nutrition/match
func (h *Handler) MatchFood(c *gin.Context) {
	if !h.ensureService(c) {
		return
	}

	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "request body must include a non-empty \"name\"",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	food, err := h.service.MatchFood(ctx, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, food)
}

func (h *Handler) ensureService(c *gin.Context) bool {
	if h.service != nil {
		return true
	}
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": "nutrition service not configured",
		"code":  "NOT_CONFIGURED",
	})
	return false
}

// bindIngredients decodes an IngredientsRequest into raw ingredients
func (h *Handler) bindIngredients(c *gin.Context) ([]domain.RawIngredient, bool) {
	var req IngredientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return nil, false
	}

	if req.Ingredients == nil && strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "request body must include \"ingredients\" or \"text\"",
			"code":  "INVALID_REQUEST",
		})
		return nil, false
	}

	// An explicit list wins over text
	raws := req.Ingredients
	if raws == nil {
		raws = h.service.SplitIngredients(req.Text)
	}
	if len(raws) > maxIngredientsPerRequest {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "too many ingredients in one request",
			"code":  "INVALID_REQUEST",
		})
		return nil, false
	}

	return raws, true
}

// respondError maps pipeline errors to status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"

	switch {
	case errors.Is(err, domain.ErrInvalidIngredient), errors.Is(err, domain.ErrInvalidRequest):
		status, code = http.StatusBadRequest, "INVALID_INGREDIENT"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, context.Canceled):
		status, code = http.StatusRequestTimeout, "CANCELLED"
	case errors.Is(err, domain.ErrFoodNotFound):
		status, code = http.StatusNotFound, "FOOD_NOT_FOUND"
	case errors.Is(err, domain.ErrRateLimited):
		status, code = http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, domain.ErrUSDAAPIFailure):
		status, code = http.StatusBadGateway, "UPSTREAM_FAILURE"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestid.Get(c)),
			zap.Error(err),
		)
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  code,
	})
}
