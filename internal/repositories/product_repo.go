package repositories

import (
	"gemstock/internal/models"
)

// ProductRepository defines the interface for product data access.
// GetByID returns (nil, nil) when no record matches: absence is an expected
// outcome for callers, distinct from a store failure.
type ProductRepository interface {
	List(filters models.ProductFilters, offset, limit int) ([]models.Product, int64, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// CountBySKU counts products holding the given SKU, excluding excludeID
	// when non-empty. Used for the uniqueness pre-check.
	CountBySKU(sku, excludeID string) (int64, error)
	Categories() ([]string, error)
	FindByStatus(statuses ...models.ProductStatus) ([]models.Product, error)
	All() ([]models.Product, error)
}
