package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawIngredient is an ingredient as supplied by a caller. Name may be a full
// free-text line ("1 1/2 cups flour"); Amount and Unit are optional pre-parsed values.
type RawIngredient struct {
	Name   string   `json:"name"`
	Amount *float64 `json:"amount,omitempty"`
	Unit   string   `json:"unit,omitempty"`
}

// UnmarshalJSON accepts either a bare string or an object
func (r *RawIngredient) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var line string
		if err := json.Unmarshal(data, &line); err != nil {
			return err
		}
		*r = RawIngredient{Name: line}
		return nil
	}

	type rawIngredient RawIngredient
	var obj rawIngredient
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("ingredient must be a string or an object: %w", err)
	}
	*r = RawIngredient(obj)
	return nil
}

// ParsedIngredient is the single normalized shape every pipeline stage works on
type ParsedIngredient struct {
	Amount      float64 `json:"amount"`
	Unit        string  `json:"unit,omitempty"`
	Name        string  `json:"name"`
	Qualitative string  `json:"qualitative,omitempty"` // e.g. "a pinch", "to taste"
	Notes       string  `json:"notes,omitempty"`       // parenthetical asides and trailing descriptions
}

// MatchedFood is the candidate chosen by the food matcher plus diagnostics
type MatchedFood struct {
	ID             string   `json:"id"`
	Description    string   `json:"description"`
	SourceCategory string   `json:"sourceCategory"`
	Score          float64  `json:"score"`
	MatchedWords   []string `json:"matchedWords,omitempty"`
}

// Skip reasons recorded on an IngredientResult without nutrition
const (
	SkipNoMatch              = "no_match"
	SkipLookupFailed         = "lookup_failed"
	SkipNutrientsUnavailable = "nutrients_unavailable"
)

// IngredientResult is one row of a NutritionResponse. A nil Nutrition marks a
// skipped ingredient and SkipReason says why.
type IngredientResult struct {
	Ingredient     ParsedIngredient `json:"ingredient"`
	MatchedFood    *MatchedFood     `json:"matchedFood,omitempty"`
	ConvertedGrams float64          `json:"convertedGrams"`
	Nutrition      *NutritionLabel  `json:"nutrition,omitempty"`
	SkipReason     string           `json:"skipReason,omitempty"`
}

// Skipped reports whether the ingredient produced no nutrition
func (r IngredientResult) Skipped() bool {
	return r.Nutrition == nil
}

// NutritionResponse is the aggregated result for a batch of ingredients
type NutritionResponse struct {
	Ingredients []IngredientResult `json:"ingredients"`
	Total       NutritionLabel     `json:"total"`
}
