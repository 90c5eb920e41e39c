package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkcast/nutrition/internal/domain"
	"github.com/forkcast/nutrition/internal/infrastructure/usda"
)

func TestNutrientExtractor_Extract(t *testing.T) {
	ctx := context.Background()

	t.Run("zero nutrient food needs no lookup", func(t *testing.T) {
		client := NewMockUSDAClient()
		extractor := NewNutrientExtractor(client, nil, nil, nil, 0)

		nutrients, err := extractor.Extract(ctx, waterFoodID)
		require.NoError(t, err)
		assert.Len(t, nutrients, len(domain.NutrientKeys))
		for _, key := range domain.NutrientKeys {
			assert.Zero(t, nutrients[key], key)
		}
		assert.Zero(t, client.foodCount())
	})

	t.Run("maps food details to canonical keys", func(t *testing.T) {
		client := NewMockUSDAClient()
		client.foods["173430"] = &domain.USDAFood{
			FdcID:       173430,
			Description: "Butter, salted",
			FoodNutrients: nutrientEntries(map[int]float64{
				usda.NutrientIDEnergy:   717,
				usda.NutrientIDTotalFat: 81.1,
				usda.NutrientIDSodium:   643,
			}),
		}
		extractor := NewNutrientExtractor(client, nil, nil, nil, 0)

		nutrients, err := extractor.Extract(ctx, "173430")
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{
			domain.NutrientCalories: 717,
			domain.NutrientTotalFat: 81.1,
			domain.NutrientSodium:   643,
		}, nutrients)
	})

	t.Run("second call is served from cache", func(t *testing.T) {
		client := NewMockUSDAClient()
		client.foods["1"] = &domain.USDAFood{
			FdcID:         1,
			FoodNutrients: nutrientEntries(map[int]float64{usda.NutrientIDProtein: 12.6}),
		}
		cache := NewMockCacheRepository()
		extractor := NewNutrientExtractor(client, cache, nil, nil, 0)

		_, err := extractor.Extract(ctx, "1")
		require.NoError(t, err)
		nutrients, err := extractor.Extract(ctx, "1")
		require.NoError(t, err)

		assert.Equal(t, 12.6, nutrients[domain.NutrientProtein])
		assert.Equal(t, 1, client.foodCount())

		raw, err := cache.Get(ctx, "nutrients:1")
		require.NoError(t, err)
		var cached map[string]float64
		require.NoError(t, json.Unmarshal(raw, &cached))
		assert.Equal(t, nutrients, cached)
	})

	t.Run("corrupt cache entry falls back to lookup", func(t *testing.T) {
		client := NewMockUSDAClient()
		client.foods["2"] = &domain.USDAFood{
			FdcID:         2,
			FoodNutrients: nutrientEntries(map[int]float64{usda.NutrientIDIron: 2.7}),
		}
		cache := NewMockCacheRepository()
		cache.data["nutrients:2"] = []byte("not json")
		extractor := NewNutrientExtractor(client, cache, nil, nil, 0)

		nutrients, err := extractor.Extract(ctx, "2")
		require.NoError(t, err)
		assert.Equal(t, 2.7, nutrients[domain.NutrientIron])
		assert.Equal(t, 1, client.foodCount())
	})

	t.Run("lookup failure is wrapped", func(t *testing.T) {
		client := NewMockUSDAClient()
		client.foodError = domain.ErrUSDAAPIFailure
		extractor := NewNutrientExtractor(client, nil, nil, nil, 0)

		_, err := extractor.Extract(ctx, "3")
		assert.ErrorIs(t, err, domain.ErrUSDAAPIFailure)
	})

	t.Run("payload without recognized nutrients", func(t *testing.T) {
		client := NewMockUSDAClient()
		client.foods["4"] = &domain.USDAFood{
			FdcID:         4,
			FoodNutrients: nutrientEntries(map[int]float64{9999: 1}),
		}
		cache := NewMockCacheRepository()
		extractor := NewNutrientExtractor(client, cache, nil, nil, 0)

		_, err := extractor.Extract(ctx, "4")
		assert.ErrorIs(t, err, domain.ErrFoodNotFound)
		assert.False(t, cache.setCalled)
	})
}
