package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gemstock/internal/models"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of
// ProductRepository. It backs the server when no database is configured and
// doubles as a test store.
type MemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates an empty in-memory repository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

func matches(p models.Product, f models.ProductFilters) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Status != "" && string(p.Status) != f.Status {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.SKU), needle) {
			return false
		}
	}
	if f.InStock != nil {
		if *f.InStock && p.Stock <= 0 {
			return false
		}
		if !*f.InStock && p.Stock != 0 {
			return false
		}
	}
	return true
}

// List filters, sorts by name and paginates in memory.
func (r *MemoryProductRepository) List(filters models.ProductFilters, offset, limit int) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if matches(p, filters) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := int64(len(matched))
	if offset >= len(matched) {
		return []models.Product{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// GetByID returns the product, or (nil, nil) when absent.
func (r *MemoryProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return &product, nil
}

// Create adds a new product, assigning a UUID when none is set.
func (r *MemoryProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.products {
		if existing.SKU == product.SKU {
			return fmt.Errorf("%w: %s", ErrDuplicateSKU, product.SKU)
		}
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// Update replaces an existing product.
func (r *MemoryProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("product with ID %s not found for update", product.ID)
	}
	for id, existing := range r.products {
		if id != product.ID && existing.SKU == product.SKU {
			return fmt.Errorf("%w: %s", ErrDuplicateSKU, product.SKU)
		}
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %s not found for deletion", id)
	}
	delete(r.products, id)
	return nil
}

// CountBySKU counts products with the given SKU, excluding excludeID.
func (r *MemoryProductRepository) CountBySKU(sku, excludeID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for id, p := range r.products {
		if p.SKU == sku && id != excludeID {
			count++
		}
	}
	return count, nil
}

// Categories returns the distinct non-empty category values, sorted.
func (r *MemoryProductRepository) Categories() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range r.products {
		if p.Category != "" {
			seen[p.Category] = struct{}{}
		}
	}
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories, nil
}

// FindByStatus returns all products in one of the given statuses, by name.
func (r *MemoryProductRepository) FindByStatus(statuses ...models.ProductStatus) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[models.ProductStatus]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}
	var products []models.Product
	for _, p := range r.products {
		if _, ok := wanted[p.Status]; ok {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

// All returns every product.
func (r *MemoryProductRepository) All() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, p)
	}
	return products, nil
}
