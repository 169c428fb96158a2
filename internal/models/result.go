package models

// ResultKind tags the concrete shape of a QueryResult.
type ResultKind string

const (
	KindCount            ResultKind = "count"
	KindItems            ResultKind = "items"
	KindEntityList       ResultKind = "entity_list"
	KindAggregation      ResultKind = "aggregation"
	KindDatabaseCount    ResultKind = "database_count"
	KindEntityCount      ResultKind = "entity_count"
	KindSummary          ResultKind = "summary"
	KindAnalysis         ResultKind = "analysis"
	KindRanking          ResultKind = "ranking"
	KindCollectionInfo   ResultKind = "collection_info"
	KindCollectionsList  ResultKind = "collections_list"
	KindDatabaseOverview ResultKind = "database_overview"
	KindCrossSearch      ResultKind = "cross_collection_search"
)

// QueryResult is the structured payload produced by exactly one executor
// handler. The response generator switches on the concrete type.
type QueryResult interface {
	Kind() ResultKind
}

// BreakdownCarrier is implemented by results that report per-collection
// match counts. The context updater uses it to adopt a collection when a
// turn matched exactly one.
type BreakdownCarrier interface {
	CollectionBreakdown() []CollectionCount
}

// CollectionCount is one entry of a per-collection breakdown.
type CollectionCount struct {
	Collection string `json:"collection"`
	Count      int64  `json:"count"`
}

// Item is a single record returned from the store.
type Item struct {
	ID      string                 `json:"id"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// EntityCount pairs an entity value with its item count.
type EntityCount struct {
	Entity string `json:"entity"`
	Count  int64  `json:"count"`
}

// DistributionBucket groups entities by their item count.
type DistributionBucket struct {
	Count    int64 `json:"count"`
	Entities int   `json:"entities"`
}

// CountResult is a plain count, optionally truncated by a scan cap.
type CountResult struct {
	Count      int64  `json:"count"`
	Target     string `json:"target,omitempty"`
	Collection string `json:"collection,omitempty"`
	Truncated  bool   `json:"truncated,omitempty"`
}

func (*CountResult) Kind() ResultKind { return KindCount }

// ItemsResult is a single page of raw items with the store-side total.
type ItemsResult struct {
	Collection string `json:"collection"`
	Total      int64  `json:"total"`
	Displayed  int    `json:"displayed"`
	Items      []Item `json:"items"`
}

func (*ItemsResult) Kind() ResultKind { return KindItems }

// EntityListResult lists distinct entity values found in a collection.
type EntityListResult struct {
	Collection string   `json:"collection,omitempty"`
	Entities   []string `json:"entities"`
	Count      int      `json:"count"`
	Truncated  bool     `json:"truncated,omitempty"`
}

func (*EntityListResult) Kind() ResultKind { return KindEntityList }

// AggregationResult reports a numeric aggregation. Result is nil when the
// aggregation could not be performed; Message then explains why.
type AggregationResult struct {
	Collection          string        `json:"collection,omitempty"`
	Function            AggregateFunc `json:"function,omitempty"`
	Field               string        `json:"field,omitempty"`
	Result              *float64      `json:"result"`
	ItemCountConsidered int           `json:"item_count_considered"`
	TotalItemsScanned   int           `json:"total_items_scanned"`
	Message             string        `json:"message,omitempty"`
}

func (*AggregationResult) Kind() ResultKind { return KindAggregation }

// DatabaseCountResult is a database-wide count with a per-collection breakdown.
type DatabaseCountResult struct {
	Total        int64             `json:"total"`
	Target       string            `json:"target,omitempty"`
	ByCollection []CollectionCount `json:"results_by_collection"`
	Truncated    bool              `json:"truncated,omitempty"`
}

func (*DatabaseCountResult) Kind() ResultKind { return KindDatabaseCount }

func (r *DatabaseCountResult) CollectionBreakdown() []CollectionCount { return r.ByCollection }

// EntityCountResult counts items belonging to a named entity, optionally
// broken down per collection when the query spanned the database.
type EntityCountResult struct {
	Entity       string            `json:"entity"`
	Total        int64             `json:"total"`
	ByCollection []CollectionCount `json:"results_by_collection,omitempty"`
}

func (*EntityCountResult) Kind() ResultKind { return KindEntityCount }

func (r *EntityCountResult) CollectionBreakdown() []CollectionCount { return r.ByCollection }

// SummaryResult summarizes an entity's presence, with a few sample items.
type SummaryResult struct {
	Entity       string            `json:"entity"`
	Collection   string            `json:"collection,omitempty"`
	Total        int64             `json:"total"`
	ByCollection []CollectionCount `json:"results_by_collection,omitempty"`
	SampleItems  []Item            `json:"sample_items,omitempty"`
}

func (*SummaryResult) Kind() ResultKind { return KindSummary }

func (r *SummaryResult) CollectionBreakdown() []CollectionCount { return r.ByCollection }

// AnalysisResult carries collection or entity statistics.
type AnalysisResult struct {
	Collection            string            `json:"collection,omitempty"`
	Entity                string            `json:"entity,omitempty"`
	TotalItems            int64             `json:"total_items"`
	UniqueEntities        int               `json:"unique_entities,omitempty"`
	TopEntity             string            `json:"top_entity,omitempty"`
	TopEntityCount        int64             `json:"top_entity_count,omitempty"`
	AverageItemsPerEntity float64           `json:"average_items_per_entity,omitempty"`
	ByCollection          []CollectionCount `json:"results_by_collection,omitempty"`
	Truncated             bool              `json:"truncated,omitempty"`
}

func (*AnalysisResult) Kind() ResultKind { return KindAnalysis }

func (r *AnalysisResult) CollectionBreakdown() []CollectionCount { return r.ByCollection }

// RankingResult ranks entities by item count, with tie reporting.
type RankingResult struct {
	Collection    string               `json:"collection,omitempty"`
	Entities      []EntityCount        `json:"entities"`
	MaxCount      int64                `json:"max_count"`
	TiedEntities  []string             `json:"tied_entities,omitempty"`
	HasTie        bool                 `json:"has_tie"`
	TieCount      int                  `json:"tie_count"`
	AverageCount  float64              `json:"average_count"`
	Distribution  []DistributionBucket `json:"distribution,omitempty"`
	TotalEntities int                  `json:"total_entities"`
	Truncated     bool                 `json:"truncated,omitempty"`
}

func (*RankingResult) Kind() ResultKind { return KindRanking }

// CollectionDescription describes one collection, with a best-effort item
// type hint ("image", "document", "mixed", or empty for an empty collection).
type CollectionDescription struct {
	Name          string   `json:"name"`
	PointsCount   int64    `json:"points_count"`
	ItemTypeHint  string   `json:"item_type_hint,omitempty"`
	PayloadFields []string `json:"payload_fields,omitempty"`
}

func (*CollectionDescription) Kind() ResultKind { return KindCollectionInfo }

// CollectionsListResult enumerates the database's collections.
type CollectionsListResult struct {
	Collections []CollectionDescription `json:"collections"`
	Count       int                     `json:"count"`
}

func (*CollectionsListResult) Kind() ResultKind { return KindCollectionsList }

// DatabaseOverview aggregates collection descriptions with a grand total.
type DatabaseOverview struct {
	Collections     []CollectionDescription `json:"collections"`
	CollectionCount int                     `json:"collection_count"`
	TotalVectors    int64                   `json:"total_vectors"`
}

func (*DatabaseOverview) Kind() ResultKind { return KindDatabaseOverview }

// CollectionMatches holds one collection's matches for a cross-collection search.
type CollectionMatches struct {
	Collection string `json:"collection"`
	Count      int64  `json:"count"`
	Items      []Item `json:"items,omitempty"`
}

// CrossSearchResult fans a search out across every collection.
type CrossSearchResult struct {
	Query        string              `json:"query,omitempty"`
	Total        int64               `json:"total"`
	ByCollection []CollectionMatches `json:"results_by_collection"`
}

func (*CrossSearchResult) Kind() ResultKind { return KindCrossSearch }

func (r *CrossSearchResult) CollectionBreakdown() []CollectionCount {
	out := make([]CollectionCount, 0, len(r.ByCollection))
	for _, m := range r.ByCollection {
		out = append(out, CollectionCount{Collection: m.Collection, Count: m.Count})
	}
	return out
}
