package models

// CreateProductRequest carries the fields a caller may supply when creating a
// product. ID and Status are never accepted from the caller; the store
// assigns the ID and Status is derived from Stock.
type CreateProductRequest struct {
	Name       string     `json:"name"`
	SKU        string     `json:"sku"`
	Price      float64    `json:"price"`
	Stock      int        `json:"stock"`
	Category   string     `json:"category"`
	MinStock   int        `json:"min_stock"`
	Material   string     `json:"material"`
	Gemstone   string     `json:"gemstone"`
	Weight     float64    `json:"weight"`
	Dimensions string     `json:"dimensions"`
	Tags       []string   `json:"tags"`
	Images     []string   `json:"images"`
	Grading    GemGrading `json:"grading"`
}

// UpdateProductRequest is a partial update: only non-nil fields change the
// stored record. Grading replaces the whole grading block when present.
type UpdateProductRequest struct {
	Name       *string     `json:"name"`
	SKU        *string     `json:"sku"`
	Price      *float64    `json:"price"`
	Stock      *int        `json:"stock"`
	Category   *string     `json:"category"`
	MinStock   *int        `json:"min_stock"`
	Material   *string     `json:"material"`
	Gemstone   *string     `json:"gemstone"`
	Weight     *float64    `json:"weight"`
	Dimensions *string     `json:"dimensions"`
	Tags       []string    `json:"tags"`
	Images     []string    `json:"images"`
	Grading    *GemGrading `json:"grading"`
}

// ProductFilters are conjunctive predicates applied to product listings.
type ProductFilters struct {
	Category string
	Status   string
	MinPrice *float64
	MaxPrice *float64
	// Search matches a case-insensitive substring of name or SKU.
	Search  string
	InStock *bool
}

// ProductPage is one page of a filtered listing plus pagination metadata.
type ProductPage struct {
	Items      []Product `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
}

// LowStockAlert is one row of the replenishment report. MinStock always
// carries the fixed LowStockThreshold, never the per-product override.
type LowStockAlert struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	SKU          string        `json:"sku"`
	CurrentStock int           `json:"current_stock"`
	MinStock     int           `json:"min_stock"`
	Category     string        `json:"category"`
	AlertLevel   ProductStatus `json:"alert_level"`
}

// InventoryStatistics summarizes the whole catalog.
type InventoryStatistics struct {
	TotalProducts        int64            `json:"total_products"`
	TotalValue           float64          `json:"total_value"`
	LowStockCount        int64            `json:"low_stock_count"`
	OutOfStockCount      int64            `json:"out_of_stock_count"`
	CategoryDistribution map[string]int64 `json:"category_distribution"`
}
