package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Canonical nutrient keys
const (
	NutrientCalories           = "calories"
	NutrientTotalFat           = "total_fat"
	NutrientSaturatedFat       = "saturated_fat"
	NutrientTransFat           = "trans_fat"
	NutrientCholesterol        = "cholesterol"
	NutrientSodium             = "sodium"
	NutrientTotalCarbohydrates = "total_carbohydrates"
	NutrientDietaryFiber       = "dietary_fiber"
	NutrientTotalSugars        = "total_sugars"
	NutrientAddedSugars        = "added_sugars"
	NutrientProtein            = "protein"
	NutrientVitaminD           = "vitamin_d"
	NutrientCalcium            = "calcium"
	NutrientIron               = "iron"
	NutrientPotassium          = "potassium"
)

// NutrientKeys lists the canonical nutrient set in label order
var NutrientKeys = []string{
	NutrientCalories,
	NutrientTotalFat,
	NutrientSaturatedFat,
	NutrientTransFat,
	NutrientCholesterol,
	NutrientSodium,
	NutrientTotalCarbohydrates,
	NutrientDietaryFiber,
	NutrientTotalSugars,
	NutrientAddedSugars,
	NutrientProtein,
	NutrientVitaminD,
	NutrientCalcium,
	NutrientIron,
	NutrientPotassium,
}

// nutrientUnits holds the display unit of every canonical nutrient except calories
var nutrientUnits = map[string]string{
	NutrientTotalFat:           "g",
	NutrientSaturatedFat:       "g",
	NutrientTransFat:           "g",
	NutrientCholesterol:        "mg",
	NutrientSodium:             "mg",
	NutrientTotalCarbohydrates: "g",
	NutrientDietaryFiber:       "g",
	NutrientTotalSugars:        "g",
	NutrientAddedSugars:        "g",
	NutrientProtein:            "g",
	NutrientVitaminD:           "mcg",
	NutrientCalcium:            "mg",
	NutrientIron:               "mg",
	NutrientPotassium:          "mg",
}

// NutrientUnit returns the display unit for a canonical nutrient key
func NutrientUnit(key string) string {
	if key == NutrientCalories {
		return "kcal"
	}
	return nutrientUnits[key]
}

// NutrientAmount is a single quantity with its display unit
type NutrientAmount struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// NutritionLabel is a fixed record of the canonical nutrient set
type NutritionLabel struct {
	ServingSize        NutrientAmount `json:"serving_size"`
	Calories           float64        `json:"calories"`
	TotalFat           NutrientAmount `json:"total_fat"`
	SaturatedFat       NutrientAmount `json:"saturated_fat"`
	TransFat           NutrientAmount `json:"trans_fat"`
	Cholesterol        NutrientAmount `json:"cholesterol"`
	Sodium             NutrientAmount `json:"sodium"`
	TotalCarbohydrates NutrientAmount `json:"total_carbohydrates"`
	DietaryFiber       NutrientAmount `json:"dietary_fiber"`
	TotalSugars        NutrientAmount `json:"total_sugars"`
	AddedSugars        NutrientAmount `json:"added_sugars"`
	Protein            NutrientAmount `json:"protein"`
	VitaminD           NutrientAmount `json:"vitamin_d"`
	Calcium            NutrientAmount `json:"calcium"`
	Iron               NutrientAmount `json:"iron"`
	Potassium          NutrientAmount `json:"potassium"`
}

// NewNutritionLabel builds a label from canonical nutrient values.
// Every value is clamped at zero and rounded to one decimal place; missing keys are zero.
func NewNutritionLabel(values map[string]float64, servingGrams float64) NutritionLabel {
	label := NutritionLabel{
		ServingSize: NutrientAmount{Amount: math.Max(servingGrams, 0), Unit: "g"},
	}
	for _, key := range NutrientKeys {
		label.set(key, RoundTenth(values[key]))
	}
	return label
}

// Value returns the amount stored for a canonical nutrient key
func (l NutritionLabel) Value(key string) float64 {
	if key == NutrientCalories {
		return l.Calories
	}
	if field := l.field(key); field != nil {
		return field.Amount
	}
	return 0
}

// Values returns the label's nutrients keyed by canonical key
func (l NutritionLabel) Values() map[string]float64 {
	values := make(map[string]float64, len(NutrientKeys))
	for _, key := range NutrientKeys {
		values[key] = l.Value(key)
	}
	return values
}

func (l *NutritionLabel) set(key string, value float64) {
	if value < 0 {
		value = 0
	}
	if key == NutrientCalories {
		l.Calories = value
		return
	}
	if field := l.field(key); field != nil {
		field.Amount = value
		field.Unit = nutrientUnits[key]
	}
}

func (l *NutritionLabel) field(key string) *NutrientAmount {
	switch key {
	case NutrientTotalFat:
		return &l.TotalFat
	case NutrientSaturatedFat:
		return &l.SaturatedFat
	case NutrientTransFat:
		return &l.TransFat
	case NutrientCholesterol:
		return &l.Cholesterol
	case NutrientSodium:
		return &l.Sodium
	case NutrientTotalCarbohydrates:
		return &l.TotalCarbohydrates
	case NutrientDietaryFiber:
		return &l.DietaryFiber
	case NutrientTotalSugars:
		return &l.TotalSugars
	case NutrientAddedSugars:
		return &l.AddedSugars
	case NutrientProtein:
		return &l.Protein
	case NutrientVitaminD:
		return &l.VitaminD
	case NutrientCalcium:
		return &l.Calcium
	case NutrientIron:
		return &l.Iron
	case NutrientPotassium:
		return &l.Potassium
	}
	return nil
}

// RoundTenth rounds to one decimal place
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// USDAFood represents a food item from the USDA FoodData Central API
type USDAFood struct {
	FdcID         int            `json:"fdcId"`
	Description   string         `json:"description"`
	DataType      string         `json:"dataType"`
	BrandOwner    string         `json:"brandOwner,omitempty"`
	FoodNutrients []USDANutrient `json:"foodNutrients,omitempty"`
}

// USDANutrient is a single nutrient entry from a USDA payload.
// Search results use the flat nutrientId/value shape; food details use the
// nested nutrient/amount shape. Both are decoded into the same struct.
type USDANutrient struct {
	Nutrient     *USDANutrientRef `json:"nutrient,omitempty"`
	Amount       FlexibleNumber   `json:"amount"`
	NutrientID   FlexibleNumber   `json:"nutrientId"`
	NutrientName string           `json:"nutrientName,omitempty"`
	UnitName     string           `json:"unitName,omitempty"`
	Value        FlexibleNumber   `json:"value"`
}

// USDANutrientRef is the nested nutrient descriptor of the food details shape
type USDANutrientRef struct {
	ID       FlexibleNumber `json:"id"`
	Name     string         `json:"name,omitempty"`
	UnitName string         `json:"unitName,omitempty"`
}

// USDASearchResponse represents the response from USDA search API
type USDASearchResponse struct {
	Foods       []USDAFood `json:"foods"`
	TotalHits   int        `json:"totalHits"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
}

// FlexibleNumber decodes a JSON number or numeric string. Anything else,
// including null, leaves Valid false instead of failing the whole payload.
type FlexibleNumber struct {
	Value float64
	Valid bool
}

// Num returns a valid FlexibleNumber
func Num(v float64) FlexibleNumber {
	return FlexibleNumber{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler
func (n *FlexibleNumber) UnmarshalJSON(data []byte) error {
	*n = FlexibleNumber{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		data = []byte(s)
	}
	v, err := strconv.ParseFloat(string(bytes.TrimSpace(data)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n.Value = v
	n.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler
func (n FlexibleNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Int returns the value as an integer id when it is a whole number
func (n FlexibleNumber) Int() (int, bool) {
	if !n.Valid || n.Value != math.Trunc(n.Value) {
		return 0, false
	}
	return int(n.Value), true
}
