package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/forkcast/nutrition/internal/domain"
	"github.com/forkcast/nutrition/internal/infrastructure/usda"
)

// NutrientExtractor fetches a food's per-100g canonical nutrients
type NutrientExtractor struct {
	client   domain.USDAClient
	cache    domain.CacheRepository
	zeroIDs  map[string]bool
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewNutrientExtractor creates an extractor; cache may be nil
func NewNutrientExtractor(
	client domain.USDAClient,
	cache domain.CacheRepository,
	data *ReferenceData,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *NutrientExtractor {
	if data == nil {
		data = DefaultReferenceData()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 720 * time.Hour // Default 30 days
	}

	zeroIDs := make(map[string]bool, len(data.ZeroNutrientFoods))
	for _, id := range data.ZeroNutrientFoods {
		zeroIDs[id] = true
	}

	return &NutrientExtractor{
		client:   client,
		cache:    cache,
		zeroIDs:  zeroIDs,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Extract returns canonical nutrient amounts per 100 g for foodID.
// Zero-nutrient foods short-circuit to an all-zero map without a lookup.
func (e *NutrientExtractor) Extract(ctx context.Context, foodID string) (map[string]float64, error) {
	if e.zeroIDs[foodID] {
		return zeroNutrients(), nil
	}

	cacheKey := "nutrients:" + foodID
	if cached, ok := e.getFromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	food, err := e.client.GetFoodDetails(ctx, foodID)
	if err != nil {
		return nil, fmt.Errorf("food details %s: %w", foodID, err)
	}
	if food == nil {
		return nil, fmt.Errorf("food details %s: %w", foodID, domain.ErrFoodNotFound)
	}

	nutrients := usda.ExtractNutrients(food.FoodNutrients)
	if len(nutrients) == 0 {
		return nil, fmt.Errorf("food %s has no recognized nutrients: %w", foodID, domain.ErrFoodNotFound)
	}

	e.setInCache(ctx, cacheKey, nutrients)
	return nutrients, nil
}

func (e *NutrientExtractor) getFromCache(ctx context.Context, key string) (map[string]float64, bool) {
	if e.cache == nil {
		return nil, false
	}
	raw, err := e.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var nutrients map[string]float64
	if err := json.Unmarshal(raw, &nutrients); err != nil {
		e.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return nutrients, true
}

func (e *NutrientExtractor) setInCache(ctx context.Context, key string, nutrients map[string]float64) {
	if e.cache == nil {
		return
	}
	raw, err := json.Marshal(nutrients)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, raw, e.cacheTTL); err != nil {
		e.logger.Warn("failed to cache nutrients", zap.String("key", key), zap.Error(err))
	}
}

func zeroNutrients() map[string]float64 {
	nutrients := make(map[string]float64, len(domain.NutrientKeys))
	for _, key := range domain.NutrientKeys {
		nutrients[key] = 0
	}
	return nutrients
}
