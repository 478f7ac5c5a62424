// Package categorizer assigns a spending category to outbound M-PESA payments
// using an ordered set of keyword rules. Rules come from a YAML file when one is
// configured, otherwise from DefaultRules.
package categorizer

import (
	"sync"

	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/models"
)

// DefaultRules returns the built-in rule set. Order matters: a message naming both
// a fuel brand and a garage is Fuel.
func DefaultRules() []models.CategoryConfig {
	return []models.CategoryConfig{
		{Name: models.CategoryFuel, Keywords: []string{"fuel", "petrol", "shell", "total"}},
		{Name: models.CategoryParking, Keywords: []string{"parking"}},
		{Name: models.CategoryMaintenance, Keywords: []string{"garage", "service", "repair"}},
	}
}

// DefaultConfig returns the built-in rules together with the fallback category.
func DefaultConfig() models.CategoriesConfig {
	return models.CategoriesConfig{
		Categories: DefaultRules(),
		Fallback:   models.CategoryOther,
	}
}

// Categorizer runs its strategies in order and falls back to a fixed category
// when none matches. It is safe for concurrent use; Reload swaps the rules atomically.
type Categorizer struct {
	mu         sync.RWMutex
	strategies []CategorizationStrategy
	keyword    *KeywordStrategy
	fallback   string
	store      CategoryStoreInterface
	logger     logging.Logger
}

// NewCategorizer creates a Categorizer whose rules are read from store.
// A nil store, a load failure or an empty file all leave the built-in rules in place.
func NewCategorizer(store CategoryStoreInterface, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.GetLogger()
	}
	c := &Categorizer{store: store, logger: logger}
	c.apply(DefaultConfig())
	c.Reload()
	return c
}

// NewCategorizerWithConfig creates a Categorizer over an explicit rule set.
func NewCategorizerWithConfig(cfg models.CategoriesConfig, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.GetLogger()
	}
	c := &Categorizer{logger: logger}
	c.apply(cfg)
	return c
}

// Reload re-reads the rules from the store.
func (c *Categorizer) Reload() {
	if c.store == nil {
		return
	}
	cfg, err := c.store.LoadCategories()
	if err != nil {
		c.logger.WithError(err).Warn("Failed to load categories, keeping current rules")
		return
	}
	if len(cfg.Categories) == 0 {
		return
	}
	c.apply(cfg)
	c.logger.Debug("Loaded category rules", logging.Field{Key: logging.FieldCount, Value: len(cfg.Categories)})
}

func (c *Categorizer) apply(cfg models.CategoriesConfig) {
	fallback := cfg.Fallback
	if fallback == "" {
		fallback = models.CategoryOther
	}
	keyword := NewKeywordStrategy(cfg.Categories, c.logger)

	c.mu.Lock()
	c.keyword = keyword
	c.strategies = []CategorizationStrategy{keyword}
	c.fallback = fallback
	c.mu.Unlock()
}

// Categorize returns the category for the message text. It never returns "".
func (c *Categorizer) Categorize(text string) string {
	c.mu.RLock()
	strategies, fallback := c.strategies, c.fallback
	c.mu.RUnlock()

	for _, s := range strategies {
		if name, ok := s.Categorize(text); ok {
			return name
		}
	}
	return fallback
}

// Config returns the active rules and fallback.
func (c *Categorizer) Config() models.CategoriesConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.CategoriesConfig{Categories: c.keyword.Rules(), Fallback: c.fallback}
}
