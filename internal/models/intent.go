package models

// QueryType identifies the category of a parsed query.
type QueryType string

const (
	QueryCount       QueryType = "count"
	QuerySearch      QueryType = "search"
	QueryList        QueryType = "list"
	QueryFilter      QueryType = "filter"
	QueryDescribe    QueryType = "describe"
	QueryCollections QueryType = "collections"
	QueryDatabase    QueryType = "database"
	QuerySummarize   QueryType = "summarize"
	QueryAnalyze     QueryType = "analyze"
	QueryTop         QueryType = "top"
	QueryRanking     QueryType = "ranking"
	QueryAggregate   QueryType = "aggregate"
)

// Scope determines whether a query targets one collection or the whole database.
type Scope string

const (
	ScopeCollection Scope = "collection"
	ScopeDatabase   Scope = "database"
)

// SortOrder is the direction for sorted results.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// AggregateFunc is a numeric aggregation applied over a payload field.
type AggregateFunc string

const (
	AggregateSum     AggregateFunc = "sum"
	AggregateAverage AggregateFunc = "average"
	AggregateMin     AggregateFunc = "min"
	AggregateMax     AggregateFunc = "max"
)

// QueryIntent is the structured representation of a natural-language question.
// Scope is always set; Aggregate intents need both AggregateFunc and
// AggregateField to be actionable.
type QueryIntent struct {
	Type                QueryType     `json:"type"`
	Target              string        `json:"target,omitempty"`
	Filter              *FilterExpr   `json:"filter,omitempty"`
	Limit               int           `json:"limit,omitempty"`
	Scope               Scope         `json:"scope"`
	ExtractedCollection string        `json:"extractedCollection,omitempty"`
	SortBy              string        `json:"sortBy,omitempty"`
	SortOrder           SortOrder     `json:"sortOrder,omitempty"`
	AggregateFunc       AggregateFunc `json:"aggregationFunction,omitempty"`
	AggregateField      string        `json:"aggregationField,omitempty"`
}

// Normalize fills missing defaults so downstream stages never see a
// structurally invalid intent.
func (qi *QueryIntent) Normalize() {
	if qi.Type == "" {
		qi.Type = QueryDescribe
	}
	if qi.Scope != ScopeCollection && qi.Scope != ScopeDatabase {
		qi.Scope = ScopeDatabase
	}
	if qi.SortOrder != "" && qi.SortOrder != SortAsc {
		qi.SortOrder = SortDesc
	}
	if qi.Limit < 0 {
		qi.Limit = 0
	}
}

// IsAggregateActionable reports whether an aggregate intent carries enough
// information to execute.
func (qi *QueryIntent) IsAggregateActionable() bool {
	switch qi.AggregateFunc {
	case AggregateSum, AggregateAverage, AggregateMin, AggregateMax:
		return qi.AggregateField != ""
	default:
		return false
	}
}
