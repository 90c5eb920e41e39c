package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/forkcast/nutrition/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockUSDAClient is a mock implementation of domain.USDAClient.
// Responses are keyed by query and FDC ID; delay blocks each call until it
// elapses or the context is done.
type MockUSDAClient struct {
	mu            sync.Mutex
	searchResults map[string]*domain.USDASearchResponse
	searchErrors  map[string]error
	searchError   error
	foods         map[string]*domain.USDAFood
	foodError     error
	delay         time.Duration
	queries       []string
	foodCalls     int
}

func NewMockUSDAClient() *MockUSDAClient {
	return &MockUSDAClient{
		searchResults: make(map[string]*domain.USDASearchResponse),
		searchErrors:  make(map[string]error),
		foods:         make(map[string]*domain.USDAFood),
	}
}

func (m *MockUSDAClient) wait(ctx context.Context) error {
	if m.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.delay):
		return nil
	}
}

func (m *MockUSDAClient) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.searchErrors[query]; ok {
		return nil, err
	}
	if m.searchError != nil {
		return nil, m.searchError
	}
	if result, ok := m.searchResults[query]; ok {
		return result, nil
	}
	return nil, domain.ErrFoodNotFound
}

func (m *MockUSDAClient) GetFoodDetails(ctx context.Context, fdcID string) (*domain.USDAFood, error) {
	m.mu.Lock()
	m.foodCalls++
	m.mu.Unlock()

	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.foodError != nil {
		return nil, m.foodError
	}
	if food, ok := m.foods[fdcID]; ok {
		return food, nil
	}
	return nil, domain.ErrFoodNotFound
}

func (m *MockUSDAClient) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

func (m *MockUSDAClient) foodCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.foodCalls
}

// nutrientEntries builds a food details payload in the nested nutrient/amount shape
func nutrientEntries(values map[int]float64) []domain.USDANutrient {
	entries := make([]domain.USDANutrient, 0, len(values))
	for id, amount := range values {
		entries = append(entries, domain.USDANutrient{
			Nutrient: &domain.USDANutrientRef{ID: domain.Num(float64(id))},
			Amount:   domain.Num(amount),
		})
	}
	return entries
}
