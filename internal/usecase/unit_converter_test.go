package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitConverter_ToGrams(t *testing.T) {
	c := NewUnitConverter(nil)

	testCases := []struct {
		name       string
		amount     float64
		unit       string
		ingredient string
		want       float64
		wantPath   string
	}{
		{"butter tbsp override", 1, "tbsp", "butter", 14.2, ConversionOverride},
		{"butter cup override", 0.5, "cup", "Butter", 113.6, ConversionOverride},
		{"water cup override", 1, "cup", "water", 236.588, ConversionOverride},
		{"salt tsp override", 1, "tsp", "salt", 6, ConversionOverride},
		{"baking soda tbsp override", 1, "tbsp", "baking soda", 13.8, ConversionOverride},
		{"mashed potatoes contains override", 2, "cup", "mashed potatoes", 300, ConversionOverride},
		{"override missing unit falls through to density", 1, "cup", "salt", 236.588, ConversionDensity},
		{"milk density", 1, "cup", "whole milk", 243.68564, ConversionDensity},
		{"honey density", 1, "tbsp", "honey", 14.787 * 1.42, ConversionDensity},
		{"unknown liquid uses water density", 100, "ml", "broth", 100, ConversionDensity},
		{"grams", 250, "g", "flour", 250, ConversionWeight},
		{"pounds", 2, "lb", "beef", 907.184, ConversionWeight},
		{"ounces", 4, "oz", "cheddar", 113.398, ConversionWeight},
		{"eggs serving", 2, "", "eggs", 100, ConversionServing},
		{"most specific serving key wins", 1, "", "parmesan cheese", 5, ConversionServing},
		{"generic serving key", 1, "", "cheddar cheese", 28, ConversionServing},
		{"unknown item uses default serving", 1, "", "dragonfruit", 30, ConversionDefault},
		{"pinch", 1, "pinch", "salt", 0.5, ConversionSmall},
		{"dash", 2, "dash", "hot sauce", 1, ConversionSmall},
		{"handful", 1, "handful", "spinach", 30, ConversionSmall},
		{"unknown unit uses default serving", 1, "bunch", "kale", 30, ConversionDefault},
		{"zero amount counts as one", 0, "g", "flour", 1, ConversionWeight},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, path := c.Convert(tc.amount, tc.unit, tc.ingredient)
			assert.InDelta(t, tc.want, got, 1e-6)
			assert.Equal(t, tc.wantPath, path)
			assert.InDelta(t, tc.want, c.ToGrams(tc.amount, tc.unit, tc.ingredient), 1e-6)
		})
	}
}

func TestUnitConverter_AlwaysPositive(t *testing.T) {
	c := NewUnitConverter(nil)
	units := []string{"", "g", "kg", "mg", "oz", "lb", "cup", "tbsp", "tsp", "ml", "l", "fl oz", "pint", "quart", "gallon", "pinch", "dash", "handful", "clove"}
	names := []string{"butter", "water", "milk", "egg", "salt", "mystery"}

	for _, amount := range []float64{0, 0.001, 1, 12.5} {
		for _, unit := range units {
			for _, name := range names {
				assert.Greater(t, c.ToGrams(amount, unit, name), 0.0, "%v %q %q", amount, unit, name)
			}
		}
	}
}

func TestUnitConverter_CustomReferenceData(t *testing.T) {
	data := DefaultReferenceData()
	data.DefaultServingGrams = 0
	data.ServingSizes["dragonfruit"] = 200

	c := NewUnitConverter(data)

	assert.Equal(t, 200.0, c.ToGrams(1, "", "dragonfruit"))
	assert.Equal(t, defaultServingGrams, c.ToGrams(1, "bunch", "kale"))
}
