package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValue float64
		wantValid bool
	}{
		{"integer", `1008`, 1008, true},
		{"float", `12.5`, 12.5, true},
		{"numeric string", `"1093"`, 1093, true},
		{"padded numeric string", `" 7.25 "`, 7.25, true},
		{"null", `null`, 0, false},
		{"non numeric string", `"abc"`, 0, false},
		{"object", `{"id":1}`, 0, false},
		{"bool", `true`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n FlexibleNumber
			require.NoError(t, json.Unmarshal([]byte(tt.input), &n))
			assert.Equal(t, tt.wantValid, n.Valid)
			assert.Equal(t, tt.wantValue, n.Value)
		})
	}
}

func TestFlexibleNumber_Int(t *testing.T) {
	id, ok := Num(1008).Int()
	assert.True(t, ok)
	assert.Equal(t, 1008, id)

	_, ok = Num(10.5).Int()
	assert.False(t, ok)

	_, ok = FlexibleNumber{}.Int()
	assert.False(t, ok)
}

func TestUSDANutrient_DecodesBothShapes(t *testing.T) {
	payload := `[
		{"nutrient": {"id": 1008, "name": "Energy"}, "amount": 52},
		{"nutrientId": 1003, "value": 0.3},
		{"nutrientId": "1005", "value": "13.8"},
		{"nutrient": {"id": null}, "amount": 1}
	]`

	var nutrients []USDANutrient
	require.NoError(t, json.Unmarshal([]byte(payload), &nutrients))
	require.Len(t, nutrients, 4)

	require.NotNil(t, nutrients[0].Nutrient)
	id, ok := nutrients[0].Nutrient.ID.Int()
	assert.True(t, ok)
	assert.Equal(t, 1008, id)
	assert.Equal(t, 52.0, nutrients[0].Amount.Value)

	assert.Nil(t, nutrients[1].Nutrient)
	assert.Equal(t, 1003.0, nutrients[1].NutrientID.Value)
	assert.Equal(t, 0.3, nutrients[1].Value.Value)

	assert.Equal(t, 1005.0, nutrients[2].NutrientID.Value)
	assert.Equal(t, 13.8, nutrients[2].Value.Value)

	assert.False(t, nutrients[3].Nutrient.ID.Valid)
}

func TestRawIngredient_UnmarshalJSON(t *testing.T) {
	t.Run("bare string", func(t *testing.T) {
		var raw RawIngredient
		require.NoError(t, json.Unmarshal([]byte(`"2 eggs"`), &raw))
		assert.Equal(t, "2 eggs", raw.Name)
		assert.Nil(t, raw.Amount)
		assert.Empty(t, raw.Unit)
	})

	t.Run("object", func(t *testing.T) {
		var raw RawIngredient
		require.NoError(t, json.Unmarshal([]byte(`{"name":"butter","amount":2,"unit":"tbsp"}`), &raw))
		assert.Equal(t, "butter", raw.Name)
		require.NotNil(t, raw.Amount)
		assert.Equal(t, 2.0, *raw.Amount)
		assert.Equal(t, "tbsp", raw.Unit)
	})

	t.Run("mixed list", func(t *testing.T) {
		var raws []RawIngredient
		require.NoError(t, json.Unmarshal([]byte(`["salt", {"name":"flour","amount":1.5,"unit":"cup"}]`), &raws))
		require.Len(t, raws, 2)
		assert.Equal(t, "salt", raws[0].Name)
		assert.Equal(t, "flour", raws[1].Name)
	})

	t.Run("rejects other json types", func(t *testing.T) {
		var raw RawIngredient
		assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &raw))
	})
}

func TestNewNutritionLabel(t *testing.T) {
	label := NewNutritionLabel(map[string]float64{
		NutrientCalories:   123.456,
		NutrientProtein:    7.74,
		NutrientSodium:     -3,
		NutrientVitaminD:   1.25,
		"unknown_nutrient": 99,
	}, 150)

	assert.Equal(t, NutrientAmount{Amount: 150, Unit: "g"}, label.ServingSize)
	assert.Equal(t, 123.5, label.Calories)
	assert.Equal(t, NutrientAmount{Amount: 7.7, Unit: "g"}, label.Protein)
	assert.Equal(t, NutrientAmount{Amount: 0, Unit: "mg"}, label.Sodium)
	assert.Equal(t, "mcg", label.VitaminD.Unit)
	assert.Equal(t, "mg", label.Potassium.Unit)
	assert.Equal(t, 0.0, label.Potassium.Amount)

	values := label.Values()
	assert.Len(t, values, len(NutrientKeys))
	assert.Equal(t, 123.5, values[NutrientCalories])
}

func TestNutrientUnit(t *testing.T) {
	assert.Equal(t, "kcal", NutrientUnit(NutrientCalories))
	assert.Equal(t, "mg", NutrientUnit(NutrientCholesterol))
	assert.Equal(t, "mcg", NutrientUnit(NutrientVitaminD))
	assert.Empty(t, NutrientUnit("nope"))
}
