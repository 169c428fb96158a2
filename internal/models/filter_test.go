package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFilter(t *testing.T, raw string) *FilterExpr {
	t.Helper()
	var f FilterExpr
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	return &f
}

func TestFilterExprUnmarshal(t *testing.T) {
	t.Run("bare value means equality", func(t *testing.T) {
		f := decodeFilter(t, `{"name":"Jane Doe"}`)
		require.Len(t, f.Conditions, 1)
		assert.Equal(t, Condition{Field: "name", Op: OpEquals, Value: "Jane Doe"}, f.Conditions[0])
	})

	t.Run("operator objects", func(t *testing.T) {
		f := decodeFilter(t, `{"price":{"gte":10,"lt":100}}`)
		require.Len(t, f.Conditions, 2)
		ops := map[FilterOp]interface{}{}
		for _, c := range f.Conditions {
			assert.Equal(t, "price", c.Field)
			ops[c.Op] = c.Value
		}
		assert.Equal(t, float64(10), ops[OpGte])
		assert.Equal(t, float64(100), ops[OpLt])
	})

	t.Run("in requires an array", func(t *testing.T) {
		var f FilterExpr
		assert.Error(t, json.Unmarshal([]byte(`{"tag":{"in":"solo"}}`), &f))
	})

	t.Run("unknown operator is rejected", func(t *testing.T) {
		var f FilterExpr
		assert.Error(t, json.Unmarshal([]byte(`{"tag":{"near":"x"}}`), &f))
	})

	t.Run("array of mappings is one AND list", func(t *testing.T) {
		f := decodeFilter(t, `[{"a":1},{"b":2}]`)
		require.Len(t, f.Conditions, 2)

		merged := decodeFilter(t, `{"a":1,"b":2}`)
		assert.ElementsMatch(t, merged.Conditions, f.Conditions)
	})
}

func TestFilterExprRoundTrip(t *testing.T) {
	f := &FilterExpr{Conditions: []Condition{
		{Field: "name", Op: OpEquals, Value: "Jane"},
		{Field: "price", Op: OpGt, Value: float64(5)},
	}}
	raw, err := json.Marshal(f)
	require.NoError(t, err)

	var back FilterExpr
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.ElementsMatch(t, f.Conditions, back.Conditions)
}

func TestQueryIntentNormalize(t *testing.T) {
	qi := &QueryIntent{}
	qi.Normalize()
	assert.Equal(t, QueryDescribe, qi.Type)
	assert.Equal(t, ScopeDatabase, qi.Scope)

	qi = &QueryIntent{Type: QueryTop, Scope: ScopeCollection, Limit: -3, SortOrder: "descending"}
	qi.Normalize()
	assert.Equal(t, ScopeCollection, qi.Scope)
	assert.Equal(t, 0, qi.Limit)
	assert.Equal(t, SortDesc, qi.SortOrder)
}

func TestIsAggregateActionable(t *testing.T) {
	assert.False(t, (&QueryIntent{Type: QueryAggregate}).IsAggregateActionable())
	assert.False(t, (&QueryIntent{Type: QueryAggregate, AggregateFunc: AggregateSum}).IsAggregateActionable())
	assert.False(t, (&QueryIntent{Type: QueryAggregate, AggregateFunc: "median", AggregateField: "price"}).IsAggregateActionable())
	assert.True(t, (&QueryIntent{Type: QueryAggregate, AggregateFunc: AggregateAverage, AggregateField: "price"}).IsAggregateActionable())
}
