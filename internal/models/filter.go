package models

import (
	"encoding/json"
	"fmt"
)

// FilterOp is the comparison operator of a single filter condition.
type FilterOp string

const (
	OpEquals   FilterOp = "equals"
	OpContains FilterOp = "contains"
	OpGt       FilterOp = "gt"
	OpGte      FilterOp = "gte"
	OpLt       FilterOp = "lt"
	OpLte      FilterOp = "lte"
	OpIn       FilterOp = "in"
	OpNot      FilterOp = "not"
)

// Condition is one field comparison inside a filter.
type Condition struct {
	Field  string
	Op     FilterOp
	Value  interface{}
	Values []interface{} // populated for OpIn
}

// FilterExpr is a conjunction of conditions. The wire format accepts either a
// single mapping of field to value, a mapping of field to an operator object
// (contains/gt/gte/lt/lte/in/not), or a flat array of such mappings; all forms
// reduce to one AND list. Arrays never nest.
type FilterExpr struct {
	Conditions []Condition
}

// NewEqualsFilter builds a filter with a single equality condition.
func NewEqualsFilter(field string, value interface{}) *FilterExpr {
	return &FilterExpr{Conditions: []Condition{{Field: field, Op: OpEquals, Value: value}}}
}

// IsEmpty reports whether the filter carries no conditions.
func (f *FilterExpr) IsEmpty() bool {
	return f == nil || len(f.Conditions) == 0
}

// UnmarshalJSON accepts the three wire shapes described on FilterExpr.
func (f *FilterExpr) UnmarshalJSON(data []byte) error {
	var arr []map[string]interface{}
	if err := json.Unmarshal(data, &arr); err == nil {
		for _, m := range arr {
			conds, err := conditionsFromMapping(m)
			if err != nil {
				return err
			}
			f.Conditions = append(f.Conditions, conds...)
		}
		return nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("filter is neither a mapping nor an array of mappings: %w", err)
	}
	conds, err := conditionsFromMapping(obj)
	if err != nil {
		return err
	}
	f.Conditions = conds
	return nil
}

// MarshalJSON emits the canonical single-mapping form when possible, the
// array form otherwise.
func (f FilterExpr) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(f.Conditions))
	for _, c := range f.Conditions {
		if _, dup := m[c.Field]; dup {
			// Two conditions on the same field need the array form.
			return json.Marshal(f.asMappings())
		}
		m[c.Field] = c.wireValue()
	}
	return json.Marshal(m)
}

func (f FilterExpr) asMappings() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(f.Conditions))
	for _, c := range f.Conditions {
		out = append(out, map[string]interface{}{c.Field: c.wireValue()})
	}
	return out
}

func (c Condition) wireValue() interface{} {
	switch c.Op {
	case OpEquals:
		return c.Value
	case OpIn:
		return map[string]interface{}{string(OpIn): c.Values}
	default:
		return map[string]interface{}{string(c.Op): c.Value}
	}
}

func conditionsFromMapping(m map[string]interface{}) ([]Condition, error) {
	conds := make([]Condition, 0, len(m))
	for field, raw := range m {
		opObj, ok := raw.(map[string]interface{})
		if !ok {
			conds = append(conds, Condition{Field: field, Op: OpEquals, Value: raw})
			continue
		}
		for opName, opVal := range opObj {
			switch FilterOp(opName) {
			case OpContains, OpGt, OpGte, OpLt, OpLte, OpNot:
				conds = append(conds, Condition{Field: field, Op: FilterOp(opName), Value: opVal})
			case OpIn:
				vals, ok := opVal.([]interface{})
				if !ok {
					return nil, fmt.Errorf("filter field %q: %q requires an array value", field, opName)
				}
				conds = append(conds, Condition{Field: field, Op: OpIn, Values: vals})
			default:
				return nil, fmt.Errorf("filter field %q: unknown operator %q", field, opName)
			}
		}
	}
	return conds, nil
}
