// Package reconcile normalizes loosely-shaped legacy catalog records into the
// canonical product shape. The old system stored the same logical field under
// several key spellings depending on which export produced the file, so each
// canonical field carries an ordered list of candidate source keys and the
// first populated one wins.
package reconcile

import (
	"fmt"
	"strconv"
	"strings"
)

// Rule maps one canonical field to its candidate source keys, in preference
// order.
type Rule struct {
	Canonical string
	Sources   []string
}

// DefaultRules is the mapping table for legacy catalog exports. Order within
// Sources matters: the first key holding a non-empty value is used.
var DefaultRules = []Rule{
	{"name", []string{"name", "Name", "product_name", "productName", "title"}},
	{"sku", []string{"sku", "SKU", "sku_code", "skuCode", "code"}},
	{"price", []string{"price", "Price", "unit_price", "unitPrice"}},
	{"stock", []string{"stock", "stock_quantity", "stockQuantity", "Stock", "quantity", "qty"}},
	{"category", []string{"category", "Category", "product_category"}},
	{"min_stock", []string{"min_stock", "minStock", "reorder_level"}},
	{"material", []string{"material", "Material"}},
	{"gemstone", []string{"gemstone", "Gemstone", "stone"}},
	{"weight", []string{"weight", "Weight", "weight_grams"}},
	{"dimensions", []string{"dimensions", "Dimensions", "size"}},
	{"tags", []string{"tags", "Tags", "labels"}},
	{"images", []string{"images", "Images", "image", "photo_urls", "image_url"}},
	{"carat_weight", []string{"carat_weight", "caratWeight", "carat"}},
	{"clarity", []string{"clarity", "Clarity"}},
	{"color", []string{"color", "Color", "colour"}},
	{"cut", []string{"cut", "Cut", "cut_grade"}},
	{"shape", []string{"shape", "Shape"}},
	{"certification", []string{"certification", "Certification", "cert", "certificate"}},
	{"fluorescence", []string{"fluorescence", "Fluorescence"}},
	{"polish", []string{"polish", "Polish"}},
	{"symmetry", []string{"symmetry", "Symmetry"}},
	{"depth_pct", []string{"depth_pct", "depthPct", "depth_percent", "depth"}},
	{"table_pct", []string{"table_pct", "tablePct", "table_percent", "table"}},
	{"measurements", []string{"measurements", "Measurements"}},
	{"origin", []string{"origin", "Origin", "country_of_origin"}},
	{"treatment", []string{"treatment", "Treatment"}},
}

// Mapper resolves raw records against a rule table.
type Mapper struct {
	rules []Rule
}

// NewMapper returns a Mapper over the given rules; pass DefaultRules for the
// standard legacy export mapping.
func NewMapper(rules []Rule) *Mapper {
	return &Mapper{rules: rules}
}

// Resolve flattens a raw record into canonical-field → value, applying
// first-populated-wins across each rule's candidate keys. Keys with no
// populated candidate are absent from the result.
func (m *Mapper) Resolve(raw map[string]any) map[string]any {
	out := make(map[string]any, len(m.rules))
	for _, rule := range m.rules {
		for _, key := range rule.Sources {
			v, ok := raw[key]
			if !ok || !populated(v) {
				continue
			}
			out[rule.Canonical] = v
			break
		}
	}
	return out
}

func populated(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	default:
		return true
	}
}

// String coerces a resolved value to a string. Returns "" when absent.
func String(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Float coerces a resolved value to a float64. JSON numbers arrive as
// float64; legacy CSV-derived exports sometimes carry numerics as strings.
func Float(fields map[string]any, key string) (float64, error) {
	v, ok := fields[key]
	if !ok {
		return 0, nil
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("field %s: %q is not numeric", key, t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %s: unsupported type %T", key, v)
	}
}

// Int coerces a resolved value to an int, rejecting fractional values.
func Int(fields map[string]any, key string) (int, error) {
	f, err := Float(fields, key)
	if err != nil {
		return 0, err
	}
	n := int(f)
	if float64(n) != f {
		return 0, fmt.Errorf("field %s: %v is not an integer", key, f)
	}
	return n, nil
}

// Strings coerces a resolved value to a string slice. A scalar string is
// wrapped in a one-element slice, which is how single-image legacy exports
// land in the canonical image list.
func Strings(fields map[string]any, key string) []string {
	v, ok := fields[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}
