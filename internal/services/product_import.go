package services

import (
	"gemstock/internal/models"
	"gemstock/internal/reconcile"
)

// ImportResult reports the outcome of importing one legacy record.
type ImportResult struct {
	Index   int             `json:"index"`
	SKU     string          `json:"sku,omitempty"`
	Product *models.Product `json:"product,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Import normalizes loosely-shaped legacy catalog records through the
// candidate-source-key mapper and creates a product for each. Records are
// processed independently: one bad row never aborts the batch, its failure is
// reported in its result slot instead.
func (s *ProductService) Import(records []map[string]any) []ImportResult {
	results := make([]ImportResult, 0, len(records))
	for i, raw := range records {
		result := ImportResult{Index: i}

		req, err := s.buildImportRequest(raw)
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		result.SKU = req.SKU

		product, err := s.Create(req)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Product = product
		}
		results = append(results, result)
	}
	return results
}

func (s *ProductService) buildImportRequest(raw map[string]any) (models.CreateProductRequest, error) {
	fields := s.mapper.Resolve(raw)

	var req models.CreateProductRequest
	var err error

	req.Name = reconcile.String(fields, "name")
	req.SKU = reconcile.String(fields, "sku")
	req.Category = reconcile.String(fields, "category")
	req.Material = reconcile.String(fields, "material")
	req.Gemstone = reconcile.String(fields, "gemstone")
	req.Dimensions = reconcile.String(fields, "dimensions")
	req.Tags = reconcile.Strings(fields, "tags")
	req.Images = reconcile.Strings(fields, "images")

	if req.Price, err = reconcile.Float(fields, "price"); err != nil {
		return req, err
	}
	if req.Stock, err = reconcile.Int(fields, "stock"); err != nil {
		return req, err
	}
	if req.MinStock, err = reconcile.Int(fields, "min_stock"); err != nil {
		return req, err
	}
	if req.Weight, err = reconcile.Float(fields, "weight"); err != nil {
		return req, err
	}

	g := &req.Grading
	if g.CaratWeight, err = reconcile.Float(fields, "carat_weight"); err != nil {
		return req, err
	}
	if g.DepthPct, err = reconcile.Float(fields, "depth_pct"); err != nil {
		return req, err
	}
	if g.TablePct, err = reconcile.Float(fields, "table_pct"); err != nil {
		return req, err
	}
	g.Clarity = reconcile.String(fields, "clarity")
	g.Color = reconcile.String(fields, "color")
	g.Cut = reconcile.String(fields, "cut")
	g.Shape = reconcile.String(fields, "shape")
	g.Certification = reconcile.String(fields, "certification")
	g.Fluorescence = reconcile.String(fields, "fluorescence")
	g.Polish = reconcile.String(fields, "polish")
	g.Symmetry = reconcile.String(fields, "symmetry")
	g.Measurements = reconcile.String(fields, "measurements")
	g.Origin = reconcile.String(fields, "origin")
	g.Treatment = reconcile.String(fields, "treatment")

	return req, nil
}
