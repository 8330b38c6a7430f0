package carriers

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/ports"
)

// ParseProducts walks an arbitrary product-list payload and returns every
// object that has a code and a name or description. Nested objects of a
// match are not visited. Codes are de-duplicated case-insensitively, first
// occurrence wins. Carriers publish these lists in several shapes, so
// nothing else about the layout is assumed.
func ParseProducts(raw json.RawMessage) []ports.CarrierProduct {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil
	}

	var out []ports.CarrierProduct
	seen := map[string]struct{}{}

	var walk func(node any)
	walk = func(node any) {
		switch n := node.(type) {
		case []any:
			for _, v := range n {
				walk(v)
			}
		case map[string]any:
			if p, ok := productFrom(n); ok {
				key := strings.ToLower(p.Code)
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					out = append(out, p)
				}
				return
			}
			for _, k := range slices.Sorted(maps.Keys(n)) {
				walk(n[k])
			}
		}
	}
	walk(root)
	return out
}

func productFrom(n map[string]any) (ports.CarrierProduct, bool) {
	code := strings.TrimSpace(stringField(n, "code", "Code", "service_code", "PackageCode"))
	name := strings.TrimSpace(stringField(n, "name", "Name", "description", "Description", "service_name"))
	if code == "" || name == "" {
		return ports.CarrierProduct{}, false
	}

	p := ports.CarrierProduct{Code: code, Name: name, Kind: catalog.GuessKind(name)}
	if dims, err := kernel.NewDimensions(
		intField(n, "length_mm", "LengthMM"),
		intField(n, "width_mm", "WidthMM"),
		intField(n, "height_mm", "HeightMM"),
	); err == nil {
		p.Dimensions = dims
	}
	if capG := intField(n, "max_weight_g", "MaxWeightG"); capG > 0 {
		p.CapacityG = &capG
	}
	return p, true
}

func stringField(n map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := n[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func intField(n map[string]any, keys ...string) int {
	for _, k := range keys {
		if f, ok := n[k].(float64); ok && f > 0 {
			return int(f)
		}
	}
	return 0
}
