package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkcast/nutrition/internal/domain"
)

func TestIngredientParser_Parse(t *testing.T) {
	p := NewIngredientParser()

	testCases := []struct {
		name  string
		input string
		want  domain.ParsedIngredient
	}{
		{
			name:  "amount unit and name",
			input: "2 tbsp olive oil",
			want:  domain.ParsedIngredient{Amount: 2, Unit: "tbsp", Name: "olive oil"},
		},
		{
			name:  "qualitative amount with of",
			input: "a pinch of salt",
			want:  domain.ParsedIngredient{Amount: 1, Unit: "pinch", Name: "salt", Qualitative: "a pinch"},
		},
		{
			name:  "mixed number",
			input: "1 1/2 cups flour",
			want:  domain.ParsedIngredient{Amount: 1.5, Unit: "cup", Name: "flour"},
		},
		{
			name:  "simple fraction",
			input: "3/4 cup sugar",
			want:  domain.ParsedIngredient{Amount: 0.75, Unit: "cup", Name: "sugar"},
		},
		{
			name:  "decimal with weight unit",
			input: "1.5 kg potatoes",
			want:  domain.ParsedIngredient{Amount: 1.5, Unit: "kg", Name: "potatoes"},
		},
		{
			name:  "count without unit",
			input: "2 eggs",
			want:  domain.ParsedIngredient{Amount: 2, Name: "eggs"},
		},
		{
			name:  "unknown unit folds into name",
			input: "3 cloves garlic",
			want:  domain.ParsedIngredient{Amount: 3, Name: "cloves garlic"},
		},
		{
			name:  "range resolves to midpoint",
			input: "2-3 cloves garlic",
			want:  domain.ParsedIngredient{Amount: 2.5, Name: "cloves garlic"},
		},
		{
			name:  "worded range",
			input: "1 to 2 cups broth",
			want:  domain.ParsedIngredient{Amount: 1.5, Unit: "cup", Name: "broth"},
		},
		{
			name:  "two token unit",
			input: "2 fl oz cream",
			want:  domain.ParsedIngredient{Amount: 2, Unit: "fl oz", Name: "cream"},
		},
		{
			name:  "unit is case insensitive with trailing period",
			input: "3 Tbsp. butter",
			want:  domain.ParsedIngredient{Amount: 3, Unit: "tbsp", Name: "butter"},
		},
		{
			name:  "long unit spelling",
			input: "2 Tablespoons honey",
			want:  domain.ParsedIngredient{Amount: 2, Unit: "tbsp", Name: "honey"},
		},
		{
			name:  "unicode fraction",
			input: "½ cup milk",
			want:  domain.ParsedIngredient{Amount: 0.5, Unit: "cup", Name: "milk"},
		},
		{
			name:  "unicode mixed number",
			input: "1½ cups sugar",
			want:  domain.ParsedIngredient{Amount: 1.5, Unit: "cup", Name: "sugar"},
		},
		{
			name:  "parenthetical becomes notes",
			input: "1 cup flour (140 g)",
			want:  domain.ParsedIngredient{Amount: 1, Unit: "cup", Name: "flour", Notes: "140 g"},
		},
		{
			name:  "comma without quantity",
			input: "salt, to taste",
			want:  domain.ParsedIngredient{Amount: 1, Name: "salt", Notes: "to taste"},
		},
		{
			name:  "trailing description after quantity",
			input: "1 large onion, diced",
			want:  domain.ParsedIngredient{Amount: 1, Name: "large onion", Notes: "diced"},
		},
		{
			name:  "qualitative to taste",
			input: "to taste black pepper",
			want:  domain.ParsedIngredient{Amount: 1, Name: "black pepper", Qualitative: "to taste"},
		},
		{
			name:  "a handful",
			input: "a handful of spinach",
			want:  domain.ParsedIngredient{Amount: 1, Unit: "handful", Name: "spinach", Qualitative: "a handful"},
		},
		{
			name:  "explicit pinch unit",
			input: "1 pinch salt",
			want:  domain.ParsedIngredient{Amount: 1, Unit: "pinch", Name: "salt"},
		},
		{
			name:  "fallback to whole string",
			input: "  fresh   basil  ",
			want:  domain.ParsedIngredient{Amount: 1, Name: "fresh basil"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := p.Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIngredientParser_Parse_Invalid(t *testing.T) {
	p := NewIngredientParser()

	for _, input := range []string{"", "   ", "(optional)"} {
		t.Run(input, func(t *testing.T) {
			_, err := p.Parse(input)
			assert.True(t, errors.Is(err, domain.ErrInvalidIngredient), "err = %v", err)
		})
	}
}

func TestIngredientParser_Parse_AmountOnly(t *testing.T) {
	p := NewIngredientParser()

	testCases := []struct {
		input string
		want  domain.ParsedIngredient
	}{
		{"2 cups", domain.ParsedIngredient{Amount: 2, Name: "cups"}},
		{"1 fl oz", domain.ParsedIngredient{Amount: 1, Name: "fl oz"}},
		{"a pinch", domain.ParsedIngredient{Amount: 1, Name: "pinch", Qualitative: "a pinch"}},
		{"to taste", domain.ParsedIngredient{Amount: 1, Name: "to taste", Qualitative: "to taste"}},
		{"3 (large)", domain.ParsedIngredient{Amount: 3, Name: "3", Notes: "large"}},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := p.Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIngredientParser_Normalize(t *testing.T) {
	p := NewIngredientParser()
	amount := func(v float64) *float64 { return &v }

	t.Run("free text name is parsed", func(t *testing.T) {
		got, err := p.Normalize(domain.RawIngredient{Name: "2 eggs"})
		require.NoError(t, err)
		assert.Equal(t, domain.ParsedIngredient{Amount: 2, Name: "eggs"}, got)
	})

	t.Run("pre-parsed amount and unit are honored", func(t *testing.T) {
		got, err := p.Normalize(domain.RawIngredient{Name: "butter (softened)", Amount: amount(2), Unit: "Tablespoons"})
		require.NoError(t, err)
		assert.Equal(t, domain.ParsedIngredient{Amount: 2, Unit: "tbsp", Name: "butter", Notes: "softened"}, got)
	})

	t.Run("zero amount defaults to one", func(t *testing.T) {
		got, err := p.Normalize(domain.RawIngredient{Name: "sugar", Amount: amount(0), Unit: "cup"})
		require.NoError(t, err)
		assert.Equal(t, 1.0, got.Amount)
		assert.Equal(t, "cup", got.Unit)
	})

	t.Run("unknown unit is kept lowercase", func(t *testing.T) {
		got, err := p.Normalize(domain.RawIngredient{Name: "kale", Amount: amount(1), Unit: "Bunch"})
		require.NoError(t, err)
		assert.Equal(t, "bunch", got.Unit)
	})

	t.Run("negative amount fails fast", func(t *testing.T) {
		_, err := p.Normalize(domain.RawIngredient{Name: "flour", Amount: amount(-1), Unit: "cup"})
		assert.ErrorIs(t, err, domain.ErrInvalidIngredient)
	})

	t.Run("empty name fails fast", func(t *testing.T) {
		_, err := p.Normalize(domain.RawIngredient{Name: "  "})
		assert.ErrorIs(t, err, domain.ErrInvalidIngredient)
	})
}

func TestIngredientParser_SplitIngredientList(t *testing.T) {
	p := NewIngredientParser()

	got := p.SplitIngredientList("2 eggs, 1 cup flour (sifted, fine), , salt")
	assert.Equal(t, []string{"2 eggs", "1 cup flour (sifted, fine)", "salt"}, got)

	assert.Empty(t, p.SplitIngredientList("  "))
}

func TestParseRational_ExactMixedNumber(t *testing.T) {
	r, ok := parseRational("1 1/2")
	require.True(t, ok)
	assert.Equal(t, "3/2", r.RatString())

	_, ok = parseRational("1/x")
	assert.False(t, ok)
}
