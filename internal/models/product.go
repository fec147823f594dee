package models

import "time"

// ProductStatus enumerates the stock-derived and legacy lifecycle states of a
// product. Only the first three are ever derived; "inactive" and
// "discontinued" survive as stored values from the legacy catalog and must be
// tolerated by listing and statistics.
type ProductStatus string

const (
	StatusActive       ProductStatus = "active"
	StatusLowStock     ProductStatus = "low_stock"
	StatusOutOfStock   ProductStatus = "out_of_stock"
	StatusInactive     ProductStatus = "inactive"
	StatusDiscontinued ProductStatus = "discontinued"
)

// LowStockThreshold is the fixed stock level at or below which a product is
// flagged low_stock. It is a catalog-wide constant, not configurable per
// product.
const LowStockThreshold = 10

// DeriveStatus computes the status for a given stock level. Status is a pure
// function of stock and is recomputed on every write that changes stock.
func DeriveStatus(stock int) ProductStatus {
	switch {
	case stock <= 0:
		return StatusOutOfStock
	case stock <= LowStockThreshold:
		return StatusLowStock
	default:
		return StatusActive
	}
}

// GemGrading holds the optional gemological certificate attributes of a
// piece. All fields pass through storage unchanged; nothing is derived from
// them.
type GemGrading struct {
	CaratWeight   float64 `json:"carat_weight,omitempty" gorm:"column:carat_weight"`
	Clarity       string  `json:"clarity,omitempty" gorm:"type:varchar(20)"`
	Color         string  `json:"color,omitempty" gorm:"type:varchar(20)"`
	Cut           string  `json:"cut,omitempty" gorm:"type:varchar(40)"`
	Shape         string  `json:"shape,omitempty" gorm:"type:varchar(40)"`
	Certification string  `json:"certification,omitempty" gorm:"type:varchar(100)"`
	Fluorescence  string  `json:"fluorescence,omitempty" gorm:"type:varchar(40)"`
	Polish        string  `json:"polish,omitempty" gorm:"type:varchar(40)"`
	Symmetry      string  `json:"symmetry,omitempty" gorm:"type:varchar(40)"`
	DepthPct      float64 `json:"depth_pct,omitempty" gorm:"column:depth_pct"`
	TablePct      float64 `json:"table_pct,omitempty" gorm:"column:table_pct"`
	Measurements  string  `json:"measurements,omitempty" gorm:"type:varchar(100)"`
	Origin        string  `json:"origin,omitempty" gorm:"type:varchar(100)"`
	Treatment     string  `json:"treatment,omitempty" gorm:"type:varchar(100)"`
}

// Product is the canonical in-memory shape of a catalog item. The gorm column
// tags preserve the legacy table layout (stock lives in "stock_quantity"), so
// the struct doubles as the mapping between the stored and canonical
// representations.
//
// No gorm.Model here: product deletes are hard deletes, and embedding the
// model would give the table a DeletedAt tombstone column.
type Product struct {
	ID       string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name     string        `json:"name" gorm:"type:varchar(200);index"`
	SKU      string        `json:"sku" gorm:"column:sku;type:varchar(64);uniqueIndex"`
	Price    float64       `json:"price"`
	Stock    int           `json:"stock" gorm:"column:stock_quantity"`
	Status   ProductStatus `json:"status" gorm:"type:varchar(20);index"`
	Category string        `json:"category" gorm:"type:varchar(100);index"`

	// MinStock is stored per product but deliberately not consulted by the
	// low-stock alert path, which reports the fixed LowStockThreshold instead.
	MinStock int `json:"min_stock" gorm:"column:min_stock"`

	Material   string   `json:"material,omitempty" gorm:"type:varchar(100)"`
	Gemstone   string   `json:"gemstone,omitempty" gorm:"type:varchar(100)"`
	Weight     float64  `json:"weight,omitempty"`
	Dimensions string   `json:"dimensions,omitempty" gorm:"type:varchar(100)"`
	Tags       []string `json:"tags,omitempty" gorm:"serializer:json"`
	Images     []string `json:"images,omitempty" gorm:"serializer:json"`

	// Image is the display image, reconciled from Images[0] on read.
	Image string `json:"image,omitempty" gorm:"-"`

	Grading GemGrading `json:"grading" gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrimaryImage returns the display image, defined as the first element of the
// stored image list.
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}
