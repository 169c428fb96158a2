package engine

import (
	"dev.helix.vectorquery/internal/models"
)

// translateFilter converts a FilterExpr into the store's native filter,
// a must[] list with AND semantics. Returns nil for an empty filter.
func translateFilter(f *models.FilterExpr) map[string]interface{} {
	if f == nil || f.IsEmpty() {
		return nil
	}
	must := make([]interface{}, 0, len(f.Conditions))
	for _, c := range f.Conditions {
		cond := translateCondition(c)
		if cond != nil {
			must = append(must, cond)
		}
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]interface{}{"must": must}
}

func translateCondition(c models.Condition) map[string]interface{} {
	switch c.Op {
	case models.OpEquals:
		return map[string]interface{}{
			"key":   c.Field,
			"match": map[string]interface{}{"value": c.Value},
		}
	case models.OpContains:
		return map[string]interface{}{
			"key":   c.Field,
			"match": map[string]interface{}{"text": c.Value},
		}
	case models.OpGt, models.OpGte, models.OpLt, models.OpLte:
		return map[string]interface{}{
			"key":   c.Field,
			"range": map[string]interface{}{string(c.Op): c.Value},
		}
	case models.OpIn:
		return map[string]interface{}{
			"key":   c.Field,
			"match": map[string]interface{}{"any": c.Values},
		}
	case models.OpNot:
		return map[string]interface{}{
			"key":   c.Field,
			"match": map[string]interface{}{"except": []interface{}{c.Value}},
		}
	}
	return nil
}

// entityFromFilter returns the value of an equality condition on the
// entity payload field, or "" when the filter carries none.
func entityFromFilter(f *models.FilterExpr, entityField string) string {
	if f == nil {
		return ""
	}
	for _, c := range f.Conditions {
		if c.Field == entityField && c.Op == models.OpEquals {
			if s, ok := c.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}
