package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/forkcast/nutrition/internal/domain"
)

// Package-level compiled regex pattern for performance.
// Hyphens and percent signs stay inside tokens ("non-dairy", "2%").
var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}%\-]+`)

// ScoringTables holds the weights and word lists of the candidate scorer.
// PreferredCategories carry reference-quality data; PreparedFoodIndicators
// mark dishes that merely share a keyword with an ingredient;
// BasicIngredientModifiers lists, per basic ingredient, the variant words that
// turn it into something else ("almond milk" is not milk); PreparationMethods
// are compared between query and candidate.
type ScoringTables struct {
	Weights                  ScoringWeights      `yaml:"weights"`
	PreferredCategories      []string            `yaml:"preferred_categories"`
	PreparedFoodIndicators   []string            `yaml:"prepared_food_indicators"`
	BasicIngredientModifiers map[string][]string `yaml:"basic_ingredient_modifiers"`
	PreparationMethods       []string            `yaml:"preparation_methods"`
}

// DefaultScoringTables returns the stock scoring tables
func DefaultScoringTables() ScoringTables {
	return ScoringTables{
		Weights:                DefaultScoringWeights(),
		PreferredCategories:    []string{"sr legacy", "foundation"},
		PreparedFoodIndicators: []string{"sandwich", "dish", "recipe", "prepared", "with", "served", "in", "on"},
		BasicIngredientModifiers: map[string][]string{
			"milk":   {"coconut", "almond", "soy", "oat", "rice", "goat", "flavored"},
			"cheese": {"processed", "food", "product", "substitute"},
			"butter": {"substitute", "spread", "margarine"},
			"cream":  {"substitute", "non-dairy", "imitation"},
			"oil":    {"blend", "substitute"},
			"flour":  {"blend", "mix"},
			"sugar":  {"substitute", "blend", "artificial"},
		},
		PreparationMethods: []string{"raw", "cooked", "boiled", "baked", "fried", "steamed", "fresh"},
	}
}

// ScoringWeights holds the tunable magnitudes of the candidate scoring heuristic
type ScoringWeights struct {
	ExactMatchBonus        float64 `yaml:"exact_match_bonus"`
	WordMatchWeight        float64 `yaml:"word_match_weight"`
	OrderMultiplier        float64 `yaml:"order_multiplier"`
	LengthPenaltyWeight    float64 `yaml:"length_penalty_weight"`
	PreferredCategoryBonus float64 `yaml:"preferred_category_bonus"`
	BrandPenalty           float64 `yaml:"brand_penalty"`
	PreparedFoodPenalty    float64 `yaml:"prepared_food_penalty"`
	ModifierPenalty        float64 `yaml:"modifier_penalty"`
	PrepMatchBonus         float64 `yaml:"prep_match_bonus"`
	RawDefaultBonus        float64 `yaml:"raw_default_bonus"`
}

// DefaultScoringWeights returns the stock weights
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		ExactMatchBonus:        100,
		WordMatchWeight:        10,
		OrderMultiplier:        1.5,
		LengthPenaltyWeight:    2,
		PreferredCategoryBonus: 20,
		BrandPenalty:           10,
		PreparedFoodPenalty:    25,
		ModifierPenalty:        15,
		PrepMatchBonus:         15,
		RawDefaultBonus:        10,
	}
}

// ScoreBreakdown is the per-factor contribution to a candidate's score
type ScoreBreakdown struct {
	Total               float64
	ExactMatch          float64
	WordMatch           float64
	LengthPenalty       float64
	CategoryBonus       float64
	BrandPenalty        float64
	PreparedFoodPenalty float64
	ModifierPenalty     float64
	PrepBonus           float64
	MatchedWords        []string
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	Weights            ScoringWeights
	CacheTTL           time.Duration
	EnableDebugLogging bool
}

// MatchingService matches ingredient names to reference foods
type MatchingService struct {
	client       domain.USDAClient
	cache        domain.CacheRepository
	data         *ReferenceData
	preprocessor *QueryPreprocessor
	logger       *zap.Logger

	weights            ScoringWeights
	preferred          map[string]bool
	preparedIndicators []string
	modifiers          map[string][]string
	modifierBasics     []string
	preparationMethods []string
	cacheTTL           time.Duration
	enableDebugLogging bool
}

// NewMatchingService creates a new matching service with the given configuration.
// A zero Weights value selects the weights of data.Scoring, then
// DefaultScoringWeights; cache may be nil.
func NewMatchingService(
	client domain.USDAClient,
	cache domain.CacheRepository,
	data *ReferenceData,
	logger *zap.Logger,
	config MatchConfig,
) *MatchingService {
	if data == nil {
		data = DefaultReferenceData()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	defaults := DefaultScoringTables()
	tables := data.Scoring

	weights := config.Weights
	if weights == (ScoringWeights{}) {
		weights = tables.Weights
	}
	if weights == (ScoringWeights{}) {
		weights = defaults.Weights
	}
	if tables.PreferredCategories == nil {
		tables.PreferredCategories = defaults.PreferredCategories
	}
	if tables.PreparedFoodIndicators == nil {
		tables.PreparedFoodIndicators = defaults.PreparedFoodIndicators
	}
	if tables.BasicIngredientModifiers == nil {
		tables.BasicIngredientModifiers = defaults.BasicIngredientModifiers
	}
	if tables.PreparationMethods == nil {
		tables.PreparationMethods = defaults.PreparationMethods
	}

	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &MatchingService{
		client:             client,
		cache:              cache,
		data:               data,
		preprocessor:       NewQueryPreprocessor(logger, config.EnableDebugLogging),
		logger:             logger,
		weights:            weights,
		preferred:          tokenSet(lowerAll(tables.PreferredCategories)),
		preparedIndicators: lowerAll(tables.PreparedFoodIndicators),
		modifiers:          tables.BasicIngredientModifiers,
		modifierBasics:     sortedModifierKeys(tables.BasicIngredientModifiers),
		preparationMethods: lowerAll(tables.PreparationMethods),
		cacheTTL:           ttl,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Match finds the reference food for an ingredient name.
// Zero-nutrient foods and direct mappings are resolved without a search.
// Returns ErrFoodNotFound when the search yields no usable candidate.
func (s *MatchingService) Match(ctx context.Context, name string) (*domain.MatchedFood, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, domain.ErrInvalidRequest
	}

	if food, ok := s.lookupDirect(key, name); ok {
		return food, nil
	}

	query, aliased := s.data.SearchAliases[key]
	if !aliased {
		query = s.preprocessor.PreprocessQuery(name)
		if food, ok := s.lookupDirect(query, name); ok {
			return food, nil
		}
		// "large eggs" only reaches the "eggs" alias after cleanup
		if alias, ok := s.data.SearchAliases[query]; ok {
			query = alias
		}
	}

	foods, err := s.searchCandidates(ctx, query)
	if err != nil {
		return nil, err
	}

	return s.FindBestMatch(ctx, query, foods)
}

// lookupDirect resolves zero-nutrient foods and the name->id mapping table
func (s *MatchingService) lookupDirect(key, name string) (*domain.MatchedFood, bool) {
	if id, ok := s.data.ZeroNutrientFoods[key]; ok {
		return &domain.MatchedFood{
			ID:             id,
			Description:    strings.TrimSpace(name),
			SourceCategory: "Custom",
			Score:          s.weights.ExactMatchBonus,
		}, true
	}
	if id, ok := s.data.FoodMappings[key]; ok {
		return &domain.MatchedFood{
			ID:             id,
			Description:    strings.TrimSpace(name),
			SourceCategory: "SR Legacy",
			Score:          s.weights.ExactMatchBonus,
		}, true
	}
	return nil, false
}

// searchCandidates returns search results for query, consulting the cache first
func (s *MatchingService) searchCandidates(ctx context.Context, query string) ([]domain.USDAFood, error) {
	cacheKey := "search:" + query

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var foods []domain.USDAFood
			if err := json.Unmarshal(raw, &foods); err == nil {
				return foods, nil
			}
		}
	}

	resp, err := s.client.SearchFoods(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if resp == nil {
		return nil, nil
	}

	if s.cache != nil && len(resp.Foods) > 0 {
		if raw, err := json.Marshal(resp.Foods); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.cacheTTL); err != nil {
				s.logger.Warn("failed to cache search results", zap.String("query", query), zap.Error(err))
			}
		}
	}

	return resp.Foods, nil
}

// FindBestMatch scores every candidate against query and returns the highest.
// Ties keep the earliest candidate.
func (s *MatchingService) FindBestMatch(
	ctx context.Context,
	query string,
	foods []domain.USDAFood,
) (*domain.MatchedFood, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidRequest
	}

	if len(foods) == 0 {
		return nil, domain.ErrFoodNotFound
	}

	var bestMatch *domain.MatchedFood
	highestScore := math.Inf(-1)

	for _, food := range foods {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		breakdown := s.Score(query, food)

		if s.enableDebugLogging {
			s.logger.Debug("scored candidate",
				zap.String("query", query),
				zap.String("description", food.Description),
				zap.String("data_type", food.DataType),
				zap.Float64("score", breakdown.Total),
				zap.Float64("word_match", breakdown.WordMatch),
				zap.Float64("length_penalty", breakdown.LengthPenalty),
				zap.Float64("modifier_penalty", breakdown.ModifierPenalty),
				zap.Float64("prepared_food_penalty", breakdown.PreparedFoodPenalty),
				zap.Strings("matched", breakdown.MatchedWords),
			)
		}

		if breakdown.Total > highestScore {
			highestScore = breakdown.Total
			bestMatch = &domain.MatchedFood{
				ID:             strconv.Itoa(food.FdcID),
				Description:    food.Description,
				SourceCategory: food.DataType,
				Score:          breakdown.Total,
				MatchedWords:   breakdown.MatchedWords,
			}
		}
	}

	if bestMatch == nil {
		return nil, domain.ErrFoodNotFound
	}

	if s.enableDebugLogging {
		s.logger.Debug("best match", zap.String("query", query), zap.String("description", bestMatch.Description), zap.Float64("score", bestMatch.Score))
	}

	return bestMatch, nil
}

// Score computes the weighted relevance of a candidate food for query
func (s *MatchingService) Score(query string, food domain.USDAFood) ScoreBreakdown {
	w := s.weights
	q := strings.ToLower(strings.TrimSpace(query))
	description := strings.ToLower(strings.TrimSpace(food.Description))
	dataType := strings.ToLower(strings.TrimSpace(food.DataType))

	queryWords := uniqueTokens(tokenize(q))
	descriptionWords := tokenize(description)
	querySet := tokenSet(queryWords)
	descriptionSet := tokenSet(descriptionWords)

	var b ScoreBreakdown

	// 1. Exact match bonus
	if q == description {
		b.ExactMatch = w.ExactMatchBonus
	}

	// 2. Word overlap, boosted when every query word appears in the description text
	for _, word := range queryWords {
		if descriptionSet[word] {
			b.MatchedWords = append(b.MatchedWords, word)
		}
	}
	b.WordMatch = float64(len(b.MatchedWords)) * w.WordMatchWeight
	if len(queryWords) > 0 && allContained(description, queryWords) {
		b.WordMatch *= w.OrderMultiplier
	}

	// 3. Length penalty
	b.LengthPenalty = float64(len(descriptionWords)) * w.LengthPenaltyWeight

	// 4. Preferred category bonus
	if s.preferred[dataType] {
		b.CategoryBonus = w.PreferredCategoryBonus
	}

	// 5. Brand penalty
	if strings.Contains(dataType, "brand") {
		b.BrandPenalty = w.BrandPenalty
	}

	// 6. Prepared food penalty
	for _, indicator := range s.preparedIndicators {
		if descriptionSet[indicator] {
			b.PreparedFoodPenalty += w.PreparedFoodPenalty
		}
	}

	// 7. Modifier penalty for basic ingredients
	for _, basic := range s.modifierBasics {
		if !querySet[basic] {
			continue
		}
		for _, modifier := range s.modifiers[basic] {
			if descriptionSet[modifier] && !querySet[modifier] {
				b.ModifierPenalty += w.ModifierPenalty
			}
		}
	}

	// 8. Preparation method
	queryPreps := s.presentMethods(querySet)
	descriptionPreps := s.presentMethods(descriptionSet)
	switch {
	case len(queryPreps) > 0 && len(descriptionPreps) > 0:
		if strings.Join(queryPreps, ",") == strings.Join(descriptionPreps, ",") {
			b.PrepBonus = w.PrepMatchBonus
		}
	case len(queryPreps) == 0 && descriptionSet["raw"]:
		b.PrepBonus = w.RawDefaultBonus
	}

	b.Total = b.ExactMatch + b.WordMatch - b.LengthPenalty + b.CategoryBonus -
		b.BrandPenalty - b.PreparedFoodPenalty - b.ModifierPenalty + b.PrepBonus

	return b
}

// tokenize splits a string into lowercase word tokens
func tokenize(s string) []string {
	return tokenRegex.FindAllString(strings.ToLower(s), -1)
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			unique = append(unique, t)
		}
	}
	return unique
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// allContained reports whether every word occurs somewhere in text
func allContained(text string, words []string) bool {
	for _, word := range words {
		if !strings.Contains(text, word) {
			return false
		}
	}
	return true
}

// presentMethods returns the preparation methods found in set, in table order
func (s *MatchingService) presentMethods(set map[string]bool) []string {
	var methods []string
	for _, m := range s.preparationMethods {
		if set[m] {
			methods = append(methods, m)
		}
	}
	return methods
}

func sortedModifierKeys(modifiers map[string][]string) []string {
	keys := make([]string, 0, len(modifiers))
	for k := range modifiers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
