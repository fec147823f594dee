package repositories

import (
	"errors"
	"fmt"
	"strings"

	"gemstock/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateSKU is returned when a write trips the sku unique index. The
// index is the authoritative uniqueness signal; the service-level pre-check
// only exists for a friendlier error message.
var ErrDuplicateSKU = errors.New("duplicate SKU")

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List retrieves one page of products matching the filters, ordered by name
// ascending, along with the total matching count.
func (r *GORMProductRepository) List(filters models.ProductFilters, offset, limit int) ([]models.Product, int64, error) {
	q := r.db.Model(&models.Product{})

	if filters.Category != "" {
		q = q.Where("category = ?", filters.Category)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.MinPrice != nil {
		q = q.Where("price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		q = q.Where("price <= ?", *filters.MaxPrice)
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern)
	}
	if filters.InStock != nil {
		if *filters.InStock {
			q = q.Where("stock_quantity > 0")
		} else {
			q = q.Where("stock_quantity = 0")
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	if err := q.Order("name ASC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID. A missing record yields
// (nil, nil), not an error.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create inserts a new product, assigning a UUID when none is set.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateSKU, product.SKU)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update persists the full product row. Save updates every column, including
// zero values, which is what a reconciled record requires.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateSKU, product.SKU)
		}
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for update", product.ID)
	}
	return nil
}

// Delete removes a product by its ID. Absence is detected via RowsAffected,
// without a separate existence read.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for deletion", id)
	}
	return nil
}

// CountBySKU counts products carrying the given SKU, optionally excluding
// one record (the one being updated).
func (r *GORMProductRepository) CountBySKU(sku, excludeID string) (int64, error) {
	q := r.db.Model(&models.Product{}).Where("sku = ?", sku)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products by SKU %s: %w", sku, err)
	}
	return count, nil
}

// Categories returns the distinct non-empty category values, sorted.
func (r *GORMProductRepository) Categories() ([]string, error) {
	var categories []string
	err := r.db.Model(&models.Product{}).
		Distinct("category").
		Where("category IS NOT NULL AND category <> ''").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// FindByStatus retrieves all products whose stored status is one of the
// given values, ordered by name ascending.
func (r *GORMProductRepository) FindByStatus(statuses ...models.ProductStatus) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("status IN ?", statuses).Order("name ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products by status: %w", err)
	}
	return products, nil
}

// All retrieves every product. Used by the statistics aggregation, which
// derives its sums in memory.
func (r *GORMProductRepository) All() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}
