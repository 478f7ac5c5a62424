// Package store loads and saves the category keyword rules used by the categorizer.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/models"

	"gopkg.in/yaml.v3"
)

// DefaultCategoriesFile is looked up when no explicit file is configured.
const DefaultCategoriesFile = "categories.yaml"

// CategoryStore manages loading and saving of category rules.
type CategoryStore struct {
	CategoriesFile string
	logger         logging.Logger
}

// NewCategoryStore creates a store reading rules from categoriesFile.
// An empty name means DefaultCategoriesFile in the standard locations.
func NewCategoryStore(categoriesFile string, logger logging.Logger) *CategoryStore {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &CategoryStore{
		CategoriesFile: categoriesFile,
		logger:         logger,
	}
}

// FindConfigFile looks for a configuration file in standard locations
func (s *CategoryStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "mpesa-sms", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	return "", os.ErrNotExist
}

func (s *CategoryStore) filename() string {
	if s.CategoriesFile == "" {
		return DefaultCategoriesFile
	}
	return s.CategoriesFile
}

// LoadCategories loads the ordered category rules from the YAML file.
// A missing file is not an error: it yields an empty configuration, which makes
// the categorizer fall back to its built-in rules.
func (s *CategoryStore) LoadCategories() (models.CategoriesConfig, error) {
	filename := s.filename()

	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("Categories file not found, using built-in rules",
				logging.Field{Key: logging.FieldInputFile, Value: filename})
			return models.CategoriesConfig{}, nil
		}
		return models.CategoriesConfig{}, fmt.Errorf("error resolving categories file: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return models.CategoriesConfig{}, fmt.Errorf("error reading categories file: %w", err)
	}

	// "categories: [...]" is the canonical layout
	var cfg models.CategoriesConfig
	if err := yaml.Unmarshal(data, &cfg); err == nil && len(cfg.Categories) > 0 {
		s.logger.Debug("Loaded categories",
			logging.Field{Key: logging.FieldInputFile, Value: filePath},
			logging.Field{Key: logging.FieldCount, Value: len(cfg.Categories)})
		return cfg, nil
	}

	// a bare list of rules is accepted as well
	var rules []models.CategoryConfig
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return models.CategoriesConfig{}, fmt.Errorf("error parsing categories file %s: %w", filePath, err)
	}
	s.logger.Debug("Loaded categories from bare list",
		logging.Field{Key: logging.FieldInputFile, Value: filePath},
		logging.Field{Key: logging.FieldCount, Value: len(rules)})
	return models.CategoriesConfig{Categories: rules}, nil
}

// SaveCategories writes cfg to path, creating parent directories as needed.
func (s *CategoryStore) SaveCategories(path string, cfg models.CategoriesConfig) error {
	if path == "" {
		path = s.filename()
	}

	if err := os.MkdirAll(filepath.Dir(path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling categories: %w", err)
	}

	if err := os.WriteFile(path, data, models.PermissionReportFile); err != nil {
		return fmt.Errorf("error writing categories: %w", err)
	}

	s.logger.Debug("Saved categories",
		logging.Field{Key: logging.FieldOutputFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(cfg.Categories)})
	return nil
}
