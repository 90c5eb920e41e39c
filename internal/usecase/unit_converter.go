package usecase

import (
	"strings"
)

// Conversion paths reported by UnitConverter.Convert
const (
	ConversionServing  = "serving"
	ConversionWeight   = "weight"
	ConversionOverride = "override"
	ConversionDensity  = "density"
	ConversionSmall    = "small_unit"
	ConversionDefault  = "default"
)

// UnitConverter converts ingredient quantities to grams
type UnitConverter struct {
	data *ReferenceData

	servingKeys []string
	densityKeys []string
}

// NewUnitConverter creates a converter over the given tables (defaults when nil)
func NewUnitConverter(data *ReferenceData) *UnitConverter {
	if data == nil {
		data = DefaultReferenceData()
	}
	if data.DefaultServingGrams <= 0 {
		data.DefaultServingGrams = defaultServingGrams
	}
	return &UnitConverter{
		data:        data,
		servingKeys: sortedKeysByLength(data.ServingSizes),
		densityKeys: sortedKeysByLength(data.Densities),
	}
}

// ToGrams converts amount of unit of the named ingredient to grams.
// The result is always positive for a non-negative amount.
func (c *UnitConverter) ToGrams(amount float64, unit, ingredientName string) float64 {
	grams, _ := c.Convert(amount, unit, ingredientName)
	return grams
}

// Convert is ToGrams plus the name of the conversion path that produced the result
func (c *UnitConverter) Convert(amount float64, unit, ingredientName string) (float64, string) {
	if amount <= 0 {
		amount = 1
	}
	unit = strings.ToLower(strings.TrimSpace(unit))
	name := strings.ToLower(strings.TrimSpace(ingredientName))

	// 1. No unit: per-item serving mass ("2 eggs")
	if unit == "" {
		if grams, ok := c.servingMass(name); ok {
			return amount * grams, ConversionServing
		}
		return amount * c.data.DefaultServingGrams, ConversionDefault
	}

	// 2. Weight units
	if factor, ok := c.data.WeightUnits[unit]; ok {
		return amount * factor, ConversionWeight
	}

	if ml, ok := c.data.VolumeUnits[unit]; ok {
		// 3. Volume with an ingredient-specific override
		if grams, ok := c.volumeOverride(unit, name); ok {
			return amount * grams, ConversionOverride
		}
		// 4. Volume times density
		return amount * ml * c.densityFactor(name), ConversionDensity
	}

	// 5. Small units
	if grams, ok := c.data.SmallUnits[unit]; ok {
		return amount * grams, ConversionSmall
	}

	// 6. Unknown unit
	return amount * c.data.DefaultServingGrams, ConversionDefault
}

// servingMass looks up a per-item mass by substring, most specific key first
func (c *UnitConverter) servingMass(name string) (float64, bool) {
	for _, key := range c.servingKeys {
		if strings.Contains(name, key) {
			return c.data.ServingSizes[key], true
		}
	}
	return 0, false
}

// volumeOverride returns hand-tuned grams per unit for ingredients whose
// density deviates from the generic volume table
func (c *UnitConverter) volumeOverride(unit, name string) (float64, bool) {
	for _, o := range c.data.VolumeOverrides {
		ingredient := strings.ToLower(o.Ingredient)
		matched := name == ingredient
		if o.Contains {
			matched = strings.Contains(name, ingredient)
		}
		if !matched {
			continue
		}
		if grams, ok := o.Grams[unit]; ok {
			return grams, true
		}
	}
	return 0, false
}

// densityFactor returns grams per milliliter by substring match, 1.0 when unknown
func (c *UnitConverter) densityFactor(name string) float64 {
	for _, key := range c.densityKeys {
		if strings.Contains(name, key) {
			return c.data.Densities[key]
		}
	}
	return 1.0
}
