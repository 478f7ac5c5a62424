package store

import (
	"sync"

	"teketeke/mpesa-sms/internal/models"
)

// MockCategoryStore is a mock implementation of CategoryStore for testing.
// It is safe for concurrent use.
type MockCategoryStore struct {
	Config              models.CategoriesConfig
	LoadCategoriesError error
	Loads               int

	mu sync.Mutex
}

// LoadCategories returns the mock configuration.
func (m *MockCategoryStore) LoadCategories() (models.CategoriesConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Loads++
	if m.LoadCategoriesError != nil {
		return models.CategoriesConfig{}, m.LoadCategoriesError
	}
	return m.Config, nil
}

// LoadCount returns how many times LoadCategories was called.
func (m *MockCategoryStore) LoadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Loads
}
