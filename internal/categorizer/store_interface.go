package categorizer

import "teketeke/mpesa-sms/internal/models"

// CategoryStoreInterface defines the interface for category rule storage.
type CategoryStoreInterface interface {
	LoadCategories() (models.CategoriesConfig, error)
}
