package usda

import (
	"github.com/forkcast/nutrition/internal/domain"
)

// USDA nutrient IDs of the canonical nutrient set
const (
	NutrientIDEnergy       = 1008 // Calories (kcal)
	NutrientIDTotalFat     = 1004 // Total lipid (g)
	NutrientIDSaturatedFat = 1258 // Fatty acids, total saturated (g)
	NutrientIDTransFat     = 1257 // Fatty acids, total trans (g)
	NutrientIDCholesterol  = 1253 // Cholesterol (mg)
	NutrientIDSodium       = 1093 // Sodium, Na (mg)
	NutrientIDCarbohydrate = 1005 // Carbohydrate, by difference (g)
	NutrientIDFiber        = 1079 // Fiber, total dietary (g)
	NutrientIDTotalSugars  = 2000 // Sugars, total (g)
	NutrientIDAddedSugars  = 1235 // Sugars, added (g)
	NutrientIDProtein      = 1003 // Protein (g)
	NutrientIDVitaminD     = 1114 // Vitamin D (D2 + D3) (mcg)
	NutrientIDCalcium      = 1087 // Calcium, Ca (mg)
	NutrientIDIron         = 1089 // Iron, Fe (mg)
	NutrientIDPotassium    = 1092 // Potassium, K (mg)
)

// NutrientIDs maps USDA nutrient IDs to canonical nutrient keys
var NutrientIDs = map[int]string{
	NutrientIDEnergy:       domain.NutrientCalories,
	NutrientIDTotalFat:     domain.NutrientTotalFat,
	NutrientIDSaturatedFat: domain.NutrientSaturatedFat,
	NutrientIDTransFat:     domain.NutrientTransFat,
	NutrientIDCholesterol:  domain.NutrientCholesterol,
	NutrientIDSodium:       domain.NutrientSodium,
	NutrientIDCarbohydrate: domain.NutrientTotalCarbohydrates,
	NutrientIDFiber:        domain.NutrientDietaryFiber,
	NutrientIDTotalSugars:  domain.NutrientTotalSugars,
	NutrientIDAddedSugars:  domain.NutrientAddedSugars,
	NutrientIDProtein:      domain.NutrientProtein,
	NutrientIDVitaminD:     domain.NutrientVitaminD,
	NutrientIDCalcium:      domain.NutrientCalcium,
	NutrientIDIron:         domain.NutrientIron,
	NutrientIDPotassium:    domain.NutrientPotassium,
}

// ExtractNutrients maps a USDA nutrient list (amounts per 100 g) to canonical keys.
// Entries are read from either the nested nutrient/amount shape or the flat
// nutrientId/value shape. Unknown IDs and entries without a usable id or
// amount are skipped.
func ExtractNutrients(usdaNutrients []domain.USDANutrient) map[string]float64 {
	nutrients := make(map[string]float64)

	for _, nutrient := range usdaNutrients {
		id, amount, ok := nutrientEntry(nutrient)
		if !ok {
			continue
		}
		if key, known := NutrientIDs[id]; known {
			nutrients[key] = amount
		}
	}

	return nutrients
}

// nutrientEntry normalizes one payload entry to an (id, amount) pair
func nutrientEntry(n domain.USDANutrient) (int, float64, bool) {
	if n.Nutrient != nil {
		if id, ok := n.Nutrient.ID.Int(); ok {
			if n.Amount.Valid {
				return id, n.Amount.Value, true
			}
			if n.Value.Valid {
				return id, n.Value.Value, true
			}
			return 0, 0, false
		}
	}

	if id, ok := n.NutrientID.Int(); ok {
		if n.Value.Valid {
			return id, n.Value.Value, true
		}
		if n.Amount.Valid {
			return id, n.Amount.Value, true
		}
	}

	return 0, 0, false
}

// FindNutrientValue finds a specific nutrient value by ID
func FindNutrientValue(nutrients []domain.USDANutrient, nutrientID int) float64 {
	for _, nutrient := range nutrients {
		if id, amount, ok := nutrientEntry(nutrient); ok && id == nutrientID {
			return amount
		}
	}
	return 0.0
}
