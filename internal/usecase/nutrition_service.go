package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/forkcast/nutrition/internal/domain"
)

const tracerName = "github.com/forkcast/nutrition/internal/usecase"

// NutritionServiceConfig holds configuration for the nutrition service
type NutritionServiceConfig struct {
	CacheTTL       time.Duration
	MaxConcurrency int
	LookupTimeout  time.Duration
	Match          MatchConfig
}

// NutritionService computes per-ingredient and total nutrition for a recipe
type NutritionService struct {
	parser    *IngredientParser
	converter *UnitConverter
	matcher   *MatchingService
	extractor *NutrientExtractor
	logger    *zap.Logger
	tracer    trace.Tracer

	cacheTTL       time.Duration
	maxConcurrency int
	lookupTimeout  time.Duration
}

// NewNutritionService creates a new nutrition service with dependencies.
// data may be nil to use the built-in reference tables.
func NewNutritionService(
	cache domain.CacheRepository,
	usdaClient domain.USDAClient,
	data *ReferenceData,
	logger *zap.Logger,
	config NutritionServiceConfig,
) *NutritionService {
	if data == nil {
		data = DefaultReferenceData()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 720 * time.Hour // Default 30 days
	}

	maxConcurrency := config.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}

	lookupTimeout := config.LookupTimeout
	if lookupTimeout <= 0 {
		lookupTimeout = 10 * time.Second
	}

	matchConfig := config.Match
	if matchConfig.Weights == (ScoringWeights{}) {
		matchConfig.Weights = data.Scoring.Weights
	}
	if matchConfig.CacheTTL == 0 {
		matchConfig.CacheTTL = cacheTTL
	}

	return &NutritionService{
		parser:         NewIngredientParser(),
		converter:      NewUnitConverter(data),
		matcher:        NewMatchingService(usdaClient, cache, data, logger, matchConfig),
		extractor:      NewNutrientExtractor(usdaClient, cache, data, logger, cacheTTL),
		logger:         logger,
		tracer:         otel.Tracer(tracerName),
		cacheTTL:       cacheTTL,
		maxConcurrency: maxConcurrency,
		lookupTimeout:  lookupTimeout,
	}
}

// ParseIngredients normalizes raw ingredients. The first contract violation
// (negative amount, empty name) fails the whole list.
func (s *NutritionService) ParseIngredients(raws []domain.RawIngredient) ([]domain.ParsedIngredient, error) {
	parsed := make([]domain.ParsedIngredient, len(raws))
	for i, raw := range raws {
		p, err := s.parser.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("ingredient %d: %w", i, err)
		}
		parsed[i] = p
	}
	return parsed, nil
}

// SplitIngredients turns a comma-separated ingredient string into raw ingredients
func (s *NutritionService) SplitIngredients(text string) []domain.RawIngredient {
	items := s.parser.SplitIngredientList(text)
	raws := make([]domain.RawIngredient, len(items))
	for i, item := range items {
		raws[i] = domain.RawIngredient{Name: item}
	}
	return raws
}

// MatchFood resolves a single ingredient name to a reference food under the lookup timeout
func (s *NutritionService) MatchFood(ctx context.Context, name string) (*domain.MatchedFood, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()
	return s.matcher.Match(lookupCtx, name)
}

// CalculateNutrition validates raw ingredients and aggregates their nutrition.
// Flow: normalize all -> per ingredient convert, match, extract, scale (parallel) -> sum totals
func (s *NutritionService) CalculateNutrition(
	ctx context.Context,
	raws []domain.RawIngredient,
) (*domain.NutritionResponse, error) {
	parsed, err := s.ParseIngredients(raws)
	if err != nil {
		return nil, err
	}
	return s.Aggregate(ctx, parsed)
}

// Aggregate runs the per-ingredient pipeline concurrently and reduces the
// results in input order. Lookup failures skip single ingredients; only
// cancellation of ctx fails the batch, and partial results are dropped.
func (s *NutritionService) Aggregate(
	ctx context.Context,
	ingredients []domain.ParsedIngredient,
) (*domain.NutritionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "nutrition.aggregate",
		trace.WithAttributes(attribute.Int("ingredients.count", len(ingredients))))
	defer span.End()

	results := make([]domain.IngredientResult, len(ingredients))

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i, ingredient := range ingredients {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = s.processIngredient(ctx, ingredient)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return nil, err
	}

	response := &domain.NutritionResponse{
		Ingredients: results,
		Total:       sumNutrition(results),
	}

	skipped := 0
	for _, r := range results {
		if r.Skipped() {
			skipped++
		}
	}
	span.SetAttributes(attribute.Int("ingredients.skipped", skipped))

	return response, nil
}

// processIngredient converts, matches, extracts and scales one ingredient.
// Every failure is recorded as a skip reason on the result.
func (s *NutritionService) processIngredient(ctx context.Context, ingredient domain.ParsedIngredient) domain.IngredientResult {
	ctx, span := s.tracer.Start(ctx, "nutrition.ingredient",
		trace.WithAttributes(attribute.String("ingredient.name", ingredient.Name)))
	defer span.End()

	grams, path := s.converter.Convert(ingredient.Amount, ingredient.Unit, ingredient.Name)
	span.SetAttributes(attribute.Float64("ingredient.grams", grams), attribute.String("conversion.path", path))

	result := domain.IngredientResult{
		Ingredient:     ingredient,
		ConvertedGrams: grams,
	}

	matchCtx, cancelMatch := context.WithTimeout(ctx, s.lookupTimeout)
	food, err := s.matcher.Match(matchCtx, ingredient.Name)
	cancelMatch()
	if err != nil {
		result.SkipReason = domain.SkipLookupFailed
		if errors.Is(err, domain.ErrFoodNotFound) {
			result.SkipReason = domain.SkipNoMatch
		}
		s.logSkip(span, ingredient, result.SkipReason, err)
		return result
	}
	result.MatchedFood = food
	span.SetAttributes(attribute.String("food.id", food.ID))

	extractCtx, cancelExtract := context.WithTimeout(ctx, s.lookupTimeout)
	per100g, err := s.extractor.Extract(extractCtx, food.ID)
	cancelExtract()
	if err != nil {
		result.SkipReason = domain.SkipNutrientsUnavailable
		s.logSkip(span, ingredient, result.SkipReason, err)
		return result
	}

	scale := grams / 100
	scaled := make(map[string]float64, len(per100g))
	for key, amount := range per100g {
		scaled[key] = amount * scale
	}
	label := domain.NewNutritionLabel(scaled, grams)
	result.Nutrition = &label

	return result
}

func (s *NutritionService) logSkip(span trace.Span, ingredient domain.ParsedIngredient, reason string, err error) {
	span.SetAttributes(attribute.String("skip.reason", reason))
	span.RecordError(err)
	s.logger.Debug("ingredient skipped",
		zap.String("ingredient", ingredient.Name),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

// sumNutrition adds up every ingredient label that produced nutrition.
// The serving size is the total converted mass of those ingredients.
func sumNutrition(results []domain.IngredientResult) domain.NutritionLabel {
	totals := make(map[string]float64, len(domain.NutrientKeys))
	var grams float64

	for _, r := range results {
		if r.Nutrition == nil {
			continue
		}
		grams += r.ConvertedGrams
		for key, amount := range r.Nutrition.Values() {
			totals[key] += amount
		}
	}

	return domain.NewNutritionLabel(totals, grams)
}
