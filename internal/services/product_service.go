package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"gemstock/internal/models"
	"gemstock/internal/reconcile"
	"gemstock/internal/repositories"
)

// EventPublisher publishes inventory events to the message broker. The
// service treats publishing as best-effort: a broker failure never fails the
// catalog write that triggered it.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// ProductService is the reconciliation layer between the canonical product
// shape and the stored catalog. It owns field validation, derived-status
// computation and SKU uniqueness enforcement.
//
// Error text is a contract with the HTTP layer: handlers pick status codes by
// sniffing for "Validation errors:", "not found" and "SKU must be unique".
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	mapper    *reconcile.Mapper
}

// NewProductService creates a new ProductService. publisher may be nil, in
// which case events are silently skipped.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		mapper:    reconcile.NewMapper(reconcile.DefaultRules),
	}
}

func validationError(violations []string) error {
	return fmt.Errorf("Validation errors: %s", strings.Join(violations, ", "))
}

func conflictError(sku string) error {
	return fmt.Errorf("SKU must be unique: SKU %s already exists", sku)
}

func notFoundError(id string) error {
	return fmt.Errorf("product with ID %s not found", id)
}

// reconcileProduct applies the read-side canonical touch-ups that are not
// expressible as column mappings.
func reconcileProduct(p *models.Product) {
	p.Image = p.PrimaryImage()
}

// ensureUniqueSKU runs the uniqueness pre-check. A failing check query is
// logged loudly and treated as "assume unique": the unique index on the sku
// column fails closed underneath, so duplicates cannot actually slip through.
func (s *ProductService) ensureUniqueSKU(sku, excludeID string) error {
	count, err := s.repo.CountBySKU(sku, excludeID)
	if err != nil {
		log.Printf("WARNING: SKU uniqueness pre-check failed for %q, relying on store unique index: %v", sku, err)
		return nil
	}
	if count > 0 {
		return conflictError(sku)
	}
	return nil
}

// List returns one page of products matching the filters, ordered by name,
// with pagination metadata derived from the total matching count.
func (s *ProductService) List(filters models.ProductFilters, page, limit int) (*models.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	items, total, err := s.repo.List(filters, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	for i := range items {
		reconcileProduct(&items[i])
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.ProductPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Get returns the product with the given ID, or (nil, nil) when no record
// matches. Absence is an expected outcome, not an error.
func (s *ProductService) Get(id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	if product == nil {
		return nil, nil
	}
	reconcileProduct(product)
	return product, nil
}

func validateCreate(req models.CreateProductRequest) []string {
	var violations []string
	if strings.TrimSpace(req.Name) == "" {
		violations = append(violations, "name is required")
	}
	if strings.TrimSpace(req.SKU) == "" {
		violations = append(violations, "sku is required")
	}
	if req.Price < 0 {
		violations = append(violations, "price must be non-negative")
	}
	if req.Stock < 0 {
		violations = append(violations, "stock must be non-negative")
	}
	return violations
}

// Create validates the request, enforces SKU uniqueness, derives the status
// from the supplied stock and persists the product. Every violated rule is
// reported, not just the first.
func (s *ProductService) Create(req models.CreateProductRequest) (*models.Product, error) {
	if violations := validateCreate(req); len(violations) > 0 {
		return nil, validationError(violations)
	}
	if err := s.ensureUniqueSKU(req.SKU, ""); err != nil {
		return nil, err
	}

	category := req.Category
	if strings.TrimSpace(category) == "" {
		category = "general"
	}

	product := &models.Product{
		Name:       strings.TrimSpace(req.Name),
		SKU:        strings.TrimSpace(req.SKU),
		Price:      req.Price,
		Stock:      req.Stock,
		Status:     models.DeriveStatus(req.Stock),
		Category:   category,
		MinStock:   req.MinStock,
		Material:   req.Material,
		Gemstone:   req.Gemstone,
		Weight:     req.Weight,
		Dimensions: req.Dimensions,
		Tags:       req.Tags,
		Images:     req.Images,
		Grading:    req.Grading,
	}

	if err := s.repo.Create(product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateSKU) {
			return nil, conflictError(product.SKU)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	reconcileProduct(product)
	s.publishEvent("product.created", map[string]any{
		"product_id": product.ID,
		"sku":        product.SKU,
		"status":     product.Status,
		"stock":      product.Stock,
	})
	return product, nil
}

func validateUpdate(req models.UpdateProductRequest) []string {
	var violations []string
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		violations = append(violations, "name is required")
	}
	if req.SKU != nil && strings.TrimSpace(*req.SKU) == "" {
		violations = append(violations, "sku is required")
	}
	if req.Price != nil && *req.Price < 0 {
		violations = append(violations, "price must be non-negative")
	}
	if req.Stock != nil && *req.Stock < 0 {
		violations = append(violations, "stock must be non-negative")
	}
	return violations
}

// Update applies a partial update: only supplied fields change. The current
// record is re-read first because the derived status depends on the effective
// stock, which falls back to the stored value when the request omits it.
func (s *ProductService) Update(id string, req models.UpdateProductRequest) (*models.Product, error) {
	if violations := validateUpdate(req); len(violations) > 0 {
		return nil, validationError(violations)
	}

	current, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	if current == nil {
		return nil, notFoundError(id)
	}

	if req.SKU != nil && *req.SKU != current.SKU {
		if err := s.ensureUniqueSKU(*req.SKU, id); err != nil {
			return nil, err
		}
	}

	if req.Name != nil {
		current.Name = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		current.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Price != nil {
		current.Price = *req.Price
	}
	if req.Stock != nil {
		current.Stock = *req.Stock
	}
	if req.Category != nil {
		current.Category = *req.Category
	}
	if req.MinStock != nil {
		current.MinStock = *req.MinStock
	}
	if req.Material != nil {
		current.Material = *req.Material
	}
	if req.Gemstone != nil {
		current.Gemstone = *req.Gemstone
	}
	if req.Weight != nil {
		current.Weight = *req.Weight
	}
	if req.Dimensions != nil {
		current.Dimensions = *req.Dimensions
	}
	if req.Tags != nil {
		current.Tags = req.Tags
	}
	if req.Images != nil {
		current.Images = req.Images
	}
	if req.Grading != nil {
		current.Grading = *req.Grading
	}

	// Effective stock: new value if supplied, prior value otherwise.
	current.Status = models.DeriveStatus(current.Stock)

	if err := s.repo.Update(current); err != nil {
		if errors.Is(err, repositories.ErrDuplicateSKU) {
			return nil, conflictError(current.SKU)
		}
		if strings.Contains(err.Error(), "not found") {
			return nil, notFoundError(id)
		}
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}

	reconcileProduct(current)
	return current, nil
}

// Delete hard-deletes a product. There is no existence pre-read; absence is
// surfaced by the store reporting zero affected rows.
func (s *ProductService) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return notFoundError(id)
		}
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// UpdateStock sets the stock level and recomputes the derived status. A
// negative level is rejected before any store round trip.
func (s *ProductService) UpdateStock(id string, newStock int) (*models.Product, error) {
	if newStock < 0 {
		return nil, validationError([]string{"stock must be non-negative"})
	}

	current, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	if current == nil {
		return nil, notFoundError(id)
	}

	current.Stock = newStock
	current.Status = models.DeriveStatus(newStock)

	if err := s.repo.Update(current); err != nil {
		return nil, fmt.Errorf("failed to update stock for product %s: %w", id, err)
	}

	reconcileProduct(current)
	s.publishEvent("stock.updated", map[string]any{
		"product_id": current.ID,
		"sku":        current.SKU,
		"stock":      current.Stock,
		"status":     current.Status,
	})
	if current.Status == models.StatusLowStock || current.Status == models.StatusOutOfStock {
		s.publishEvent("product.low_stock", map[string]any{
			"product_id": current.ID,
			"sku":        current.SKU,
			"stock":      current.Stock,
			"status":     current.Status,
		})
	}
	return current, nil
}

// ListCategories returns the distinct non-empty categories in lexicographic
// order.
func (s *ProductService) ListCategories() ([]string, error) {
	categories, err := s.repo.Categories()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

// LowStockAlerts reports every product whose stored status is low_stock or
// out_of_stock. MinStock is always the fixed threshold; the per-product
// min_stock column is intentionally not consulted here.
func (s *ProductService) LowStockAlerts() ([]models.LowStockAlert, error) {
	products, err := s.repo.FindByStatus(models.StatusLowStock, models.StatusOutOfStock)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch low stock products: %w", err)
	}

	alerts := make([]models.LowStockAlert, 0, len(products))
	for _, p := range products {
		alerts = append(alerts, models.LowStockAlert{
			ID:           p.ID,
			Name:         p.Name,
			SKU:          p.SKU,
			CurrentStock: p.Stock,
			MinStock:     models.LowStockThreshold,
			Category:     p.Category,
			AlertLevel:   p.Status,
		})
	}
	return alerts, nil
}

// Statistics aggregates the whole catalog in memory: total value is
// Σ(price × stock), the stock counters partition by stored status and the
// category histogram buckets missing categories as "Uncategorized".
func (s *ProductService) Statistics() (*models.InventoryStatistics, error) {
	products, err := s.repo.All()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products for statistics: %w", err)
	}

	stats := &models.InventoryStatistics{
		TotalProducts:        int64(len(products)),
		CategoryDistribution: make(map[string]int64),
	}
	for _, p := range products {
		stats.TotalValue += p.Price * float64(p.Stock)
		switch p.Status {
		case models.StatusLowStock:
			stats.LowStockCount++
		case models.StatusOutOfStock:
			stats.OutOfStockCount++
		}
		category := p.Category
		if category == "" {
			category = "Uncategorized"
		}
		stats.CategoryDistribution[category]++
	}
	return stats, nil
}

// AppendImage attaches an uploaded image URL to a product's image list.
func (s *ProductService) AppendImage(id, url string) (*models.Product, error) {
	current, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	if current == nil {
		return nil, notFoundError(id)
	}

	current.Images = append(current.Images, url)
	if err := s.repo.Update(current); err != nil {
		return nil, fmt.Errorf("failed to attach image to product %s: %w", id, err)
	}
	reconcileProduct(current)
	return current, nil
}

func (s *ProductService) publishEvent(routingKey string, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.publisher.Publish("inventory", routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
