package engine

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"

	"dev.helix.vectorquery/internal/models"
	"dev.helix.vectorquery/internal/vectordb/qdrant"
)

const (
	defaultItemPage = 100
	sampleSize      = 5
)

func (e *Engine) countItems(ctx context.Context, collection string, filter *models.FilterExpr) (*models.CountResult, error) {
	count, err := e.store.CountPoints(ctx, collection, translateFilter(filter))
	if err != nil {
		return nil, e.storeErr("count", collection, err)
	}
	return &models.CountResult{Count: count, Target: "items", Collection: collection}, nil
}

func (e *Engine) countEntityItems(ctx context.Context, collection, entity string, filter *models.FilterExpr) (*models.EntityCountResult, error) {
	count, err := e.store.CountPoints(ctx, collection, translateFilter(filter))
	if err != nil {
		return nil, e.storeErr("count", collection, err)
	}
	return &models.EntityCountResult{
		Entity: entity,
		Total:  count,
		ByCollection: []models.CollectionCount{
			{Collection: collection, Count: count},
		},
	}, nil
}

func (e *Engine) countUniqueEntities(ctx context.Context, collection string, filter *models.FilterExpr) (*models.CountResult, error) {
	entities := map[string]struct{}{}
	_, capped, err := e.scanCollection(ctx, collection, translateFilter(filter), maxScanEntities, func(p qdrant.Point) bool {
		if v := e.entityValue(p); v != "" {
			return admitEntity(entities, v)
		}
		return true
	})
	if err != nil {
		return nil, e.storeErr("entity count scan", collection, err)
	}
	return &models.CountResult{
		Count:      int64(len(entities)),
		Target:     "entities",
		Collection: collection,
		Truncated:  capped,
	}, nil
}

func (e *Engine) listUniqueEntities(ctx context.Context, collection string, filter *models.FilterExpr) (*models.EntityListResult, error) {
	entities := map[string]struct{}{}
	_, capped, err := e.scanCollection(ctx, collection, translateFilter(filter), maxScanEntities, func(p qdrant.Point) bool {
		if v := e.entityValue(p); v != "" {
			return admitEntity(entities, v)
		}
		return true
	})
	if err != nil {
		return nil, e.storeErr("entity list scan", collection, err)
	}
	names := make([]string, 0, len(entities))
	for name := range entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return &models.EntityListResult{
		Collection: collection,
		Entities:   names,
		Count:      len(names),
		Truncated:  capped,
	}, nil
}

// fetchItems serves search/list/filter over raw items: the filter is
// pushed down to the store and a single page is returned alongside the
// exact total.
func (e *Engine) fetchItems(ctx context.Context, collection string, intent *models.QueryIntent) (*models.ItemsResult, error) {
	filter := translateFilter(intent.Filter)
	total, err := e.store.CountPoints(ctx, collection, filter)
	if err != nil {
		return nil, e.storeErr("count", collection, err)
	}

	limit := intent.Limit
	if limit <= 0 || limit > defaultItemPage {
		limit = defaultItemPage
	}
	points, _, err := e.store.Scroll(ctx, collection, limit, nil, filter)
	if err != nil {
		return nil, e.storeErr("fetch", collection, err)
	}
	return &models.ItemsResult{
		Collection: collection,
		Total:      total,
		Displayed:  len(points),
		Items:      pointsToItems(points),
	}, nil
}

func (e *Engine) describeCollection(ctx context.Context, collection string) (*models.CollectionDescription, error) {
	info, err := e.store.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, e.storeErr("describe", collection, err)
	}
	desc := &models.CollectionDescription{
		Name:        collection,
		PointsCount: info.PointsCount,
	}
	desc.ItemTypeHint, desc.PayloadFields = e.sampleCollection(ctx, collection)
	return desc, nil
}

func (e *Engine) summarizeEntity(ctx context.Context, collection, entity string, filter *models.FilterExpr) (*models.SummaryResult, error) {
	native := translateFilter(filter)
	total, err := e.store.CountPoints(ctx, collection, native)
	if err != nil {
		return nil, e.storeErr("count", collection, err)
	}
	points, _, err := e.store.Scroll(ctx, collection, sampleSize, nil, native)
	if err != nil {
		return nil, e.storeErr("sample", collection, err)
	}
	return &models.SummaryResult{
		Entity:     entity,
		Collection: collection,
		Total:      total,
		ByCollection: []models.CollectionCount{
			{Collection: collection, Count: total},
		},
		SampleItems: pointsToItems(points),
	}, nil
}

func (e *Engine) analyzeEntity(ctx context.Context, collection, entity string, filter *models.FilterExpr) (*models.AnalysisResult, error) {
	total, err := e.store.CountPoints(ctx, collection, translateFilter(filter))
	if err != nil {
		return nil, e.storeErr("count", collection, err)
	}
	return &models.AnalysisResult{
		Collection: collection,
		Entity:     entity,
		TotalItems: total,
		ByCollection: []models.CollectionCount{
			{Collection: collection, Count: total},
		},
	}, nil
}

func (e *Engine) analyzeCollection(ctx context.Context, collection string) (*models.AnalysisResult, error) {
	counts := map[string]int64{}
	var total int64
	_, capped, err := e.scanCollection(ctx, collection, nil, maxScanRanking, func(p qdrant.Point) bool {
		if v := e.entityValue(p); v != "" && !admitEntityCount(counts, v) {
			return false
		}
		total++
		return true
	})
	if err != nil {
		return nil, e.storeErr("analysis scan", collection, err)
	}

	result := &models.AnalysisResult{
		Collection:     collection,
		TotalItems:     total,
		UniqueEntities: len(counts),
		Truncated:      capped,
	}
	for entity, count := range counts {
		if count > result.TopEntityCount || (count == result.TopEntityCount && entity < result.TopEntity) {
			result.TopEntity = entity
			result.TopEntityCount = count
		}
	}
	if len(counts) > 0 {
		result.AverageItemsPerEntity = float64(total) / float64(len(counts))
	}
	return result, nil
}

// rankEntities serves both "which entity has the most" (limit 1) and
// "top N" intents from one full chunked scan.
func (e *Engine) rankEntities(ctx context.Context, collection string, intent *models.QueryIntent) (*models.RankingResult, error) {
	counts := map[string]int64{}
	_, capped, err := e.scanCollection(ctx, collection, translateFilter(intent.Filter), maxScanRanking, func(p qdrant.Point) bool {
		if v := e.entityValue(p); v != "" {
			return admitEntityCount(counts, v)
		}
		return true
	})
	if err != nil {
		return nil, e.storeErr("ranking scan", collection, err)
	}
	result := buildRanking(counts, intent.Limit)
	result.Collection = collection
	result.Truncated = capped
	return result, nil
}

// buildRanking sorts the per-entity counts, computes the tie set over the
// maximum count and the count distribution.
func buildRanking(counts map[string]int64, limit int) *models.RankingResult {
	ranked := make([]models.EntityCount, 0, len(counts))
	var totalItems int64
	for entity, count := range counts {
		ranked = append(ranked, models.EntityCount{Entity: entity, Count: count})
		totalItems += count
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Entity < ranked[j].Entity
	})

	result := &models.RankingResult{TotalEntities: len(ranked)}
	if len(ranked) == 0 {
		result.Entities = []models.EntityCount{}
		return result
	}

	result.MaxCount = ranked[0].Count
	for _, ec := range ranked {
		if ec.Count == result.MaxCount {
			result.TiedEntities = append(result.TiedEntities, ec.Entity)
		}
	}
	result.TieCount = len(result.TiedEntities)
	result.HasTie = result.TieCount > 1
	result.AverageCount = float64(totalItems) / float64(len(ranked))

	buckets := map[int64]int{}
	for _, ec := range ranked {
		buckets[ec.Count]++
	}
	for count, entities := range buckets {
		result.Distribution = append(result.Distribution, models.DistributionBucket{Count: count, Entities: entities})
	}
	sort.Slice(result.Distribution, func(i, j int) bool {
		return result.Distribution[i].Count > result.Distribution[j].Count
	})

	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	result.Entities = ranked[:limit]
	return result
}

func (e *Engine) aggregate(ctx context.Context, collection string, intent *models.QueryIntent) (*models.AggregationResult, error) {
	if !intent.IsAggregateActionable() {
		return &models.AggregationResult{
			Collection: collection,
			Message:    "aggregation needs a function (sum, average, min, max) and a numeric field",
		}, nil
	}

	var values []float64
	scanned, _, err := e.scanCollection(ctx, collection, translateFilter(intent.Filter), maxScanAggregate, func(p qdrant.Point) bool {
		if v, ok := numericValue(p.Payload[intent.AggregateField]); ok {
			values = append(values, v)
		}
		return true
	})
	if err != nil {
		return nil, e.storeErr("aggregation scan", collection, err)
	}

	result := &models.AggregationResult{
		Collection:          collection,
		Function:            intent.AggregateFunc,
		Field:               intent.AggregateField,
		ItemCountConsidered: len(values),
		TotalItemsScanned:   scanned,
	}
	if len(values) == 0 {
		result.Message = "no numeric values found in field " + intent.AggregateField
		return result, nil
	}

	var out float64
	switch intent.AggregateFunc {
	case models.AggregateSum, models.AggregateAverage:
		for _, v := range values {
			out += v
		}
		if intent.AggregateFunc == models.AggregateAverage {
			out /= float64(len(values))
		}
	case models.AggregateMin:
		out = values[0]
		for _, v := range values[1:] {
			if v < out {
				out = v
			}
		}
	case models.AggregateMax:
		out = values[0]
		for _, v := range values[1:] {
			if v > out {
				out = v
			}
		}
	}
	result.Result = &out
	return result, nil
}

// sampleCollection scrolls a handful of records to infer the item-type
// hint and the payload field names. Best effort: errors and empty
// collections yield no hint.
func (e *Engine) sampleCollection(ctx context.Context, collection string) (hint string, fields []string) {
	points, _, err := e.store.Scroll(ctx, collection, sampleSize, nil, nil)
	if err != nil || len(points) == 0 {
		return "", nil
	}

	fieldSet := map[string]struct{}{}
	hints := map[string]struct{}{}
	for _, p := range points {
		for key := range p.Payload {
			fieldSet[key] = struct{}{}
		}
		if h := classifyItemType(p.Payload, e.vocab.AdditionalFields.Filename); h != "" {
			hints[h] = struct{}{}
		}
	}

	fields = make([]string, 0, len(fieldSet))
	for key := range fieldSet {
		fields = append(fields, key)
	}
	sort.Strings(fields)

	switch len(hints) {
	case 0:
		return "", fields
	case 1:
		for h := range hints {
			return h, fields
		}
	}
	return "mixed", fields
}

func classifyItemType(payload map[string]interface{}, filenameField string) string {
	for _, key := range []string{"mime_type", "mimetype", "content_type"} {
		if mime, ok := payload[key].(string); ok {
			return hintFromMIME(mime)
		}
	}
	candidates := []string{"filename", "file_name", "url"}
	if filenameField != "" {
		candidates = append([]string{filenameField}, candidates...)
	}
	for _, key := range candidates {
		name, ok := payload[key].(string)
		if !ok {
			continue
		}
		if h := hintFromExtension(path.Ext(name)); h != "" {
			return h
		}
	}
	return ""
}

func hintFromMIME(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "image"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	case strings.HasPrefix(mime, "audio/"):
		return "audio"
	case strings.HasPrefix(mime, "text/"), mime == "application/pdf":
		return "document"
	}
	return ""
}

func hintFromExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg":
		return "image"
	case ".mp4", ".mov", ".avi", ".mkv", ".webm":
		return "video"
	case ".mp3", ".wav", ".flac", ".ogg":
		return "audio"
	case ".pdf", ".txt", ".md", ".doc", ".docx":
		return "document"
	}
	return ""
}

func (e *Engine) entityValue(p qdrant.Point) string {
	switch v := p.Payload[e.vocab.EntityField].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

func pointsToItems(points []qdrant.Point) []models.Item {
	items := make([]models.Item, 0, len(points))
	for _, p := range points {
		items = append(items, models.Item{ID: p.ID, Payload: p.Payload})
	}
	return items
}

func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
