package usecase

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default conversion constants
const (
	defaultServingGrams = 30.0
	waterFoodID         = "water"
)

// VolumeOverride is a hand-tuned grams-per-unit table for one ingredient whose
// density makes generic volume math wrong (1 tbsp butter is 14.2 g, not 14.8 g).
type VolumeOverride struct {
	Ingredient string             `yaml:"ingredient"`
	Contains   bool               `yaml:"contains"` // substring match instead of exact name
	Grams      map[string]float64 `yaml:"grams"`    // unit -> grams per unit
}

// ReferenceData holds every lookup table used by the converter and matcher.
// Tables are plain data so they can be replaced from a YAML file.
type ReferenceData struct {
	DefaultServingGrams float64            `yaml:"default_serving_grams"`
	ServingSizes        map[string]float64 `yaml:"serving_sizes"`
	WeightUnits         map[string]float64 `yaml:"weight_units"`
	VolumeUnits         map[string]float64 `yaml:"volume_units"` // milliliters per unit
	SmallUnits          map[string]float64 `yaml:"small_units"`
	Densities           map[string]float64 `yaml:"densities"` // grams per milliliter
	VolumeOverrides     []VolumeOverride   `yaml:"volume_overrides"`
	FoodMappings        map[string]string  `yaml:"food_mappings"`
	ZeroNutrientFoods   map[string]string  `yaml:"zero_nutrient_foods"` // name -> synthetic food id
	SearchAliases       map[string]string  `yaml:"search_aliases"`
	Scoring             ScoringTables      `yaml:"scoring"`
}

// DefaultReferenceData returns the built-in tables
func DefaultReferenceData() *ReferenceData {
	return &ReferenceData{
		DefaultServingGrams: defaultServingGrams,
		ServingSizes: map[string]float64{
			// Proteins
			"chicken breast": 85,
			"salmon":         85,
			"beef":           85,
			"egg":            50,
			// Vegetables
			"potato":  150,
			"onion":   110,
			"tomato":  123,
			"carrot":  61,
			"lettuce": 47,
			"spinach": 30,
			"avocado": 170,
			// Dairy
			"cheese":          28,
			"parmesan cheese": 5,
			"butter":          14.2,
			"milk":            244,
			"yogurt":          170,
			// Seasonings
			"salt":        6,
			"pepper":      2,
			"herbs":       1,
			"spices":      2,
			"baking soda": 4.6,
			"cilantro":    10,
		},
		WeightUnits: map[string]float64{
			"g":  1,
			"kg": 1000,
			"mg": 0.001,
			"oz": 28.3495,
			"lb": 453.592,
		},
		VolumeUnits: map[string]float64{
			"cup":    236.588,
			"tbsp":   14.787,
			"tsp":    4.929,
			"fl oz":  29.574,
			"ml":     1,
			"l":      1000,
			"pint":   473.176,
			"quart":  946.353,
			"gallon": 3785.41,
		},
		SmallUnits: map[string]float64{
			"pinch":   0.5,
			"dash":    0.5,
			"handful": 30,
		},
		Densities: map[string]float64{
			"water":         1.0,
			"milk":          1.03,
			"olive oil":     0.92,
			"vegetable oil": 0.92,
			"honey":         1.42,
			"maple syrup":   1.37,
			"soy sauce":     1.1,
			"vinegar":       1.01,
		},
		VolumeOverrides: []VolumeOverride{
			{Ingredient: "water", Grams: map[string]float64{
				"cup": 236.588, "tbsp": 14.787, "tsp": 4.929, "fl oz": 29.574,
				"ml": 1, "l": 1000, "pint": 473.176, "quart": 946.353, "gallon": 3785.41,
			}},
			{Ingredient: "salt", Grams: map[string]float64{"tsp": 6, "tbsp": 18}},
			{Ingredient: "baking soda", Grams: map[string]float64{"tsp": 4.6, "tbsp": 13.8}},
			{Ingredient: "butter", Grams: map[string]float64{"tbsp": 14.2, "cup": 227.2}},
			{Ingredient: "parmesan cheese", Grams: map[string]float64{"tbsp": 5, "cup": 80}},
			{Ingredient: "potato", Contains: true, Grams: map[string]float64{"cup": 150}},
		},
		FoodMappings: map[string]string{
			"potatoes":        "170026",
			"salt":            "173468",
			"baking soda":     "171405",
			"parmesan cheese": "171242",
			"butter":          "173430",
			"milk":            "746782",
			"whole milk":      "746782",
			"2% milk":         "746786",
			"1% milk":         "746784",
			"skim milk":       "746783",
		},
		ZeroNutrientFoods: map[string]string{
			"water": waterFoodID,
		},
		SearchAliases: map[string]string{
			"eggs":                       "Egg, whole, raw, fresh",
			"avocado":                    "Avocados, raw, all commercial varieties",
			"cottage cheese":             "Cheese, cottage, lowfat, 2% milkfat",
			"chile lime seasoning":       "Spices, chili powder",
			"everything bagel seasoning": "Spices, sesame seeds",
			"hot sauce":                  "Sauce, hot chile, sriracha",
		},
		Scoring: DefaultScoringTables(),
	}
}

// LoadReferenceData reads a YAML file and merges it over the defaults.
// Map tables are merged key by key; volume_overrides and the scoring word
// lists replace the defaults when present; scoring weights merge field by field.
func LoadReferenceData(path string) (*ReferenceData, error) {
	data := DefaultReferenceData()
	if path == "" {
		return data, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data: %w", err)
	}

	var override ReferenceData
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("failed to parse reference data: %w", err)
	}

	data.merge(&override)
	if err := data.validate(); err != nil {
		return nil, fmt.Errorf("invalid reference data: %w", err)
	}
	return data, nil
}

func (d *ReferenceData) merge(o *ReferenceData) {
	if o.DefaultServingGrams > 0 {
		d.DefaultServingGrams = o.DefaultServingGrams
	}
	mergeFloats(d.ServingSizes, o.ServingSizes)
	mergeFloats(d.WeightUnits, o.WeightUnits)
	mergeFloats(d.VolumeUnits, o.VolumeUnits)
	mergeFloats(d.SmallUnits, o.SmallUnits)
	mergeFloats(d.Densities, o.Densities)
	mergeStrings(d.FoodMappings, o.FoodMappings)
	mergeStrings(d.ZeroNutrientFoods, o.ZeroNutrientFoods)
	mergeStrings(d.SearchAliases, o.SearchAliases)
	if len(o.VolumeOverrides) > 0 {
		d.VolumeOverrides = o.VolumeOverrides
	}
	d.Scoring.merge(&o.Scoring)
}

func (t *ScoringTables) merge(o *ScoringTables) {
	w, ow := &t.Weights, o.Weights
	for _, f := range []struct {
		dst *float64
		src float64
	}{
		{&w.ExactMatchBonus, ow.ExactMatchBonus},
		{&w.WordMatchWeight, ow.WordMatchWeight},
		{&w.OrderMultiplier, ow.OrderMultiplier},
		{&w.LengthPenaltyWeight, ow.LengthPenaltyWeight},
		{&w.PreferredCategoryBonus, ow.PreferredCategoryBonus},
		{&w.BrandPenalty, ow.BrandPenalty},
		{&w.PreparedFoodPenalty, ow.PreparedFoodPenalty},
		{&w.ModifierPenalty, ow.ModifierPenalty},
		{&w.PrepMatchBonus, ow.PrepMatchBonus},
		{&w.RawDefaultBonus, ow.RawDefaultBonus},
	} {
		if f.src != 0 {
			*f.dst = f.src
		}
	}

	if len(o.PreferredCategories) > 0 {
		t.PreferredCategories = o.PreferredCategories
	}
	if len(o.PreparedFoodIndicators) > 0 {
		t.PreparedFoodIndicators = o.PreparedFoodIndicators
	}
	if len(o.PreparationMethods) > 0 {
		t.PreparationMethods = o.PreparationMethods
	}
	if len(o.BasicIngredientModifiers) > 0 && t.BasicIngredientModifiers == nil {
		t.BasicIngredientModifiers = make(map[string][]string, len(o.BasicIngredientModifiers))
	}
	for basic, modifiers := range o.BasicIngredientModifiers {
		t.BasicIngredientModifiers[strings.ToLower(strings.TrimSpace(basic))] = lowerAll(modifiers)
	}
}

func (d *ReferenceData) validate() error {
	for name, tables := range map[string]map[string]float64{
		"serving_sizes": d.ServingSizes,
		"weight_units":  d.WeightUnits,
		"volume_units":  d.VolumeUnits,
		"small_units":   d.SmallUnits,
		"densities":     d.Densities,
	} {
		for key, v := range tables {
			if v <= 0 {
				return fmt.Errorf("%s[%q] must be positive, got %v", name, key, v)
			}
		}
	}
	if err := d.Scoring.validate(); err != nil {
		return err
	}
	for _, o := range d.VolumeOverrides {
		if strings.TrimSpace(o.Ingredient) == "" {
			return fmt.Errorf("volume override without ingredient")
		}
		for unit, grams := range o.Grams {
			if grams <= 0 {
				return fmt.Errorf("volume override %q[%q] must be positive", o.Ingredient, unit)
			}
		}
	}
	return nil
}

func (t *ScoringTables) validate() error {
	w := t.Weights
	for name, v := range map[string]float64{
		"exact_match_bonus":        w.ExactMatchBonus,
		"word_match_weight":        w.WordMatchWeight,
		"order_multiplier":         w.OrderMultiplier,
		"length_penalty_weight":    w.LengthPenaltyWeight,
		"preferred_category_bonus": w.PreferredCategoryBonus,
		"brand_penalty":            w.BrandPenalty,
		"prepared_food_penalty":    w.PreparedFoodPenalty,
		"modifier_penalty":         w.ModifierPenalty,
		"prep_match_bonus":         w.PrepMatchBonus,
		"raw_default_bonus":        w.RawDefaultBonus,
	} {
		if v < 0 {
			return fmt.Errorf("scoring.weights.%s must not be negative, got %v", name, v)
		}
	}
	for basic, modifiers := range t.BasicIngredientModifiers {
		if strings.TrimSpace(basic) == "" || len(modifiers) == 0 {
			return fmt.Errorf("scoring.basic_ingredient_modifiers[%q] needs a name and at least one modifier", basic)
		}
	}
	return nil
}

func mergeFloats(dst, src map[string]float64) {
	for k, v := range src {
		dst[strings.ToLower(strings.TrimSpace(k))] = v
	}
}

func mergeStrings(dst, src map[string]string) {
	for k, v := range src {
		dst[strings.ToLower(strings.TrimSpace(k))] = v
	}
}

// sortedKeysByLength returns keys longest first, ties alphabetical, so substring
// lookups prefer the most specific entry ("parmesan cheese" before "cheese").
func sortedKeysByLength(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
