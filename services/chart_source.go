package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
)

// SizeRange is an inclusive [Min, Max] bound for one body parameter, in cm.
type SizeRange struct {
	Min float64
	Max float64
}

// SizeTable maps a size label to its per-parameter ranges.
type SizeTable map[string]map[string]SizeRange

// ChartCatalog holds every size chart, keyed brand → gender → category.
// Loaded once at startup and never mutated afterwards.
type ChartCatalog struct {
	brands map[string]map[string]map[string]SizeTable
}

// normalizeBrandKey folds brand input ("H&M", "Зара", " Zara ") onto the
// ascii-slug keys the catalog is stored under.
func normalizeBrandKey(s string) string {
	return slug.Make(s)
}

// normalizeToken lowercases gender/category input and transliterates
// non-latin script without inserting slug dashes.
func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))
}

// CategoryFor maps a concrete clothing type to a chart category.
// Unrecognized types fall back to tops, matching the recommendation
// history the audit trail was built on.
func CategoryFor(clothingType string) string {
	t := normalizeToken(clothingType)
	bottoms := []string{"jeans", "pants", "shorts", "skirt"}
	for _, b := range bottoms {
		if strings.Contains(t, b) {
			return "bottoms"
		}
	}
	return "tops"
}

// Lookup resolves (brand, gender, category) to a size table.
func (c *ChartCatalog) Lookup(brand, gender, category string) (SizeTable, error) {
	genders, ok := c.brands[normalizeBrandKey(brand)]
	if !ok {
		return nil, fmt.Errorf("%w: brand %q", ErrChartNotFound, brand)
	}
	categories, ok := genders[normalizeToken(gender)]
	if !ok {
		return nil, fmt.Errorf("%w: no %s charts for %q", ErrChartNotFound, gender, brand)
	}
	table, ok := categories[normalizeToken(category)]
	if !ok {
		return nil, fmt.Errorf("%w: no %s/%s chart for %q", ErrChartNotFound, gender, category, brand)
	}
	return table, nil
}

// Brands lists the catalog contents for the brand menu.
func (c *ChartCatalog) Brands() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(c.brands))
	names := make([]string, 0, len(c.brands))
	for name := range c.brands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		genders := make(map[string][]string)
		for g, cats := range c.brands[name] {
			var list []string
			for cat := range cats {
				list = append(list, cat)
			}
			sort.Strings(list)
			genders[g] = list
		}
		out = append(out, map[string]interface{}{
			"brand":      name,
			"categories": genders,
		})
	}
	return out
}

// rawCatalog is the JSON wire shape of a chart document:
// brand → gender → category → size → parameter → [min, max].
type rawCatalog map[string]map[string]map[string]map[string]map[string][]float64

// LoadChartCatalog parses a chart JSON document. Brand keys are slugged
// so lookups survive punctuation and casing differences.
func LoadChartCatalog(data []byte) (*ChartCatalog, error) {
	var raw rawCatalog
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse chart document: %w", err)
	}

	catalog := &ChartCatalog{brands: make(map[string]map[string]map[string]SizeTable, len(raw))}
	for brand, genders := range raw {
		gm := make(map[string]map[string]SizeTable, len(genders))
		for gender, categories := range genders {
			cm := make(map[string]SizeTable, len(categories))
			for category, sizes := range categories {
				table := make(SizeTable, len(sizes))
				for size, params := range sizes {
					ranges := make(map[string]SizeRange, len(params))
					for param, bounds := range params {
						if len(bounds) != 2 || bounds[0] > bounds[1] {
							return nil, fmt.Errorf("invalid range for %s/%s/%s/%s/%s", brand, gender, category, size, param)
						}
						ranges[normalizeToken(param)] = SizeRange{Min: bounds[0], Max: bounds[1]}
					}
					table[strings.ToUpper(size)] = ranges
				}
				cm[normalizeToken(category)] = table
			}
			gm[normalizeToken(gender)] = cm
		}
		catalog.brands[normalizeBrandKey(brand)] = gm
	}
	return catalog, nil
}

// DefaultChartCatalog is the built-in chart set, used when no chart
// object is configured or the fetch fails at startup.
func DefaultChartCatalog() *ChartCatalog {
	catalog, err := LoadChartCatalog([]byte(defaultChartJSON))
	if err != nil {
		// The embedded document is fixed at compile time.
		panic(fmt.Sprintf("built-in chart document is broken: %v", err))
	}
	return catalog
}

const defaultChartJSON = `{
  "zara": {
    "women": {
      "tops": {
        "XS": {"chest": [80, 84], "waist": [60, 64]},
        "S":  {"chest": [84, 88], "waist": [64, 68]},
        "M":  {"chest": [88, 92], "waist": [68, 72]},
        "L":  {"chest": [92, 96], "waist": [72, 76]},
        "XL": {"chest": [96, 100], "waist": [76, 80]}
      },
      "bottoms": {
        "XS": {"waist": [60, 64], "hips": [84, 88]},
        "S":  {"waist": [64, 68], "hips": [88, 92]},
        "M":  {"waist": [68, 72], "hips": [92, 96]},
        "L":  {"waist": [72, 76], "hips": [96, 100]},
        "XL": {"waist": [76, 80], "hips": [100, 104]}
      }
    },
    "men": {
      "tops": {
        "XS": {"chest": [86, 90], "waist": [70, 74]},
        "S":  {"chest": [90, 94], "waist": [74, 78]},
        "M":  {"chest": [94, 98], "waist": [78, 82]},
        "L":  {"chest": [98, 102], "waist": [82, 86]},
        "XL": {"chest": [102, 106], "waist": [86, 90]}
      }
    }
  },
  "hm": {
    "women": {
      "tops": {
        "XS": {"chest": [78, 82], "waist": [58, 62]},
        "S":  {"chest": [82, 86], "waist": [62, 66]},
        "M":  {"chest": [86, 90], "waist": [66, 70]},
        "L":  {"chest": [90, 94], "waist": [70, 74]},
        "XL": {"chest": [94, 98], "waist": [74, 78]}
      }
    }
  }
}`
