package engine

import (
	"context"
	"sort"

	"dev.helix.vectorquery/internal/models"
	"dev.helix.vectorquery/internal/vectordb/qdrant"
)

// executeDatabase handles database-wide intents. Fan-out across
// collections is strictly sequential; one failing collection fails the
// whole operation.
func (e *Engine) executeDatabase(ctx context.Context, intent *models.QueryIntent, collections []string) (models.QueryResult, error) {
	collections, err := e.requireCollections(ctx, collections)
	if err != nil {
		return nil, err
	}

	switch intent.Type {
	case models.QueryCount:
		if entity := entityFromFilter(intent.Filter, e.vocab.EntityField); entity != "" {
			return e.countEntityAcross(ctx, collections, entity, intent.Filter)
		}
		switch intent.Target {
		case "collections":
			return &models.CountResult{Count: int64(len(collections)), Target: "collections"}, nil
		case "entities":
			return e.countUniqueEntitiesAcross(ctx, collections, intent.Filter)
		default:
			return e.countTotalAcross(ctx, collections, intent.Target)
		}

	case models.QueryCollections:
		return e.listCollectionsDetailed(ctx, collections)

	case models.QueryDatabase, models.QueryDescribe:
		return e.databaseOverview(ctx, collections)

	case models.QuerySearch, models.QueryList, models.QueryFilter:
		if intent.Target == "entities" {
			return e.listUniqueEntitiesAcross(ctx, collections, intent.Filter)
		}
		if !intent.Filter.IsEmpty() {
			return e.searchAcross(ctx, collections, intent)
		}
		return e.countTotalAcross(ctx, collections, "items")

	case models.QuerySummarize:
		if entity := entityFromFilter(intent.Filter, e.vocab.EntityField); entity != "" {
			return e.summarizeEntityAcross(ctx, collections, entity, intent.Filter)
		}
		return e.databaseOverview(ctx, collections)

	case models.QueryAnalyze:
		if entity := entityFromFilter(intent.Filter, e.vocab.EntityField); entity != "" {
			return e.analyzeEntityAcross(ctx, collections, entity, intent.Filter)
		}
		return e.analyzeDatabase(ctx, collections)

	case models.QueryTop, models.QueryRanking:
		return e.rankEntitiesAcross(ctx, collections, intent)

	case models.QueryAggregate:
		if intent.ExtractedCollection != "" {
			return e.aggregate(ctx, intent.ExtractedCollection, intent)
		}
		// Database-wide aggregation has no collection to scan; this is
		// an explicit unsupported case, not an error.
		return &models.AggregationResult{
			Function: intent.AggregateFunc,
			Field:    intent.AggregateField,
			Message:  "aggregation requires a specific collection; name one and ask again",
		}, nil
	}
	return e.databaseOverview(ctx, collections)
}

func (e *Engine) countTotalAcross(ctx context.Context, collections []string, target string) (*models.DatabaseCountResult, error) {
	result := &models.DatabaseCountResult{Target: target}
	for _, name := range collections {
		count, err := e.store.CountPoints(ctx, name, nil)
		if err != nil {
			return nil, e.storeErr("count", name, err)
		}
		result.Total += count
		result.ByCollection = append(result.ByCollection, models.CollectionCount{Collection: name, Count: count})
	}
	return result, nil
}

func (e *Engine) countEntityAcross(ctx context.Context, collections []string, entity string, filter *models.FilterExpr) (*models.EntityCountResult, error) {
	native := translateFilter(filter)
	result := &models.EntityCountResult{Entity: entity}
	for _, name := range collections {
		count, err := e.store.CountPoints(ctx, name, native)
		if err != nil {
			return nil, e.storeErr("count", name, err)
		}
		result.Total += count
		result.ByCollection = append(result.ByCollection, models.CollectionCount{Collection: name, Count: count})
	}
	return result, nil
}

func (e *Engine) countUniqueEntitiesAcross(ctx context.Context, collections []string, filter *models.FilterExpr) (*models.CountResult, error) {
	native := translateFilter(filter)
	entities := map[string]struct{}{}
	truncated := false
	for _, name := range collections {
		_, capped, err := e.scanCollection(ctx, name, native, maxScanEntities, func(p qdrant.Point) bool {
			if v := e.entityValue(p); v != "" {
				return admitEntity(entities, v)
			}
			return true
		})
		if err != nil {
			return nil, e.storeErr("entity count scan", name, err)
		}
		truncated = truncated || capped
	}
	return &models.CountResult{
		Count:     int64(len(entities)),
		Target:    "entities",
		Truncated: truncated,
	}, nil
}

func (e *Engine) listUniqueEntitiesAcross(ctx context.Context, collections []string, filter *models.FilterExpr) (*models.EntityListResult, error) {
	native := translateFilter(filter)
	entities := map[string]struct{}{}
	truncated := false
	for _, name := range collections {
		_, capped, err := e.scanCollection(ctx, name, native, maxScanEntities, func(p qdrant.Point) bool {
			if v := e.entityValue(p); v != "" {
				return admitEntity(entities, v)
			}
			return true
		})
		if err != nil {
			return nil, e.storeErr("entity list scan", name, err)
		}
		truncated = truncated || capped
	}
	names := make([]string, 0, len(entities))
	for name := range entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return &models.EntityListResult{Entities: names, Count: len(names), Truncated: truncated}, nil
}

func (e *Engine) searchAcross(ctx context.Context, collections []string, intent *models.QueryIntent) (*models.CrossSearchResult, error) {
	native := translateFilter(intent.Filter)
	result := &models.CrossSearchResult{}
	for _, name := range collections {
		count, err := e.store.CountPoints(ctx, name, native)
		if err != nil {
			return nil, e.storeErr("count", name, err)
		}
		matches := models.CollectionMatches{Collection: name, Count: count}
		if count > 0 {
			points, _, err := e.store.Scroll(ctx, name, sampleSize, nil, native)
			if err != nil {
				return nil, e.storeErr("fetch", name, err)
			}
			matches.Items = pointsToItems(points)
		}
		result.Total += count
		result.ByCollection = append(result.ByCollection, matches)
	}
	return result, nil
}

func (e *Engine) summarizeEntityAcross(ctx context.Context, collections []string, entity string, filter *models.FilterExpr) (*models.SummaryResult, error) {
	native := translateFilter(filter)
	result := &models.SummaryResult{Entity: entity}
	for _, name := range collections {
		count, err := e.store.CountPoints(ctx, name, native)
		if err != nil {
			return nil, e.storeErr("count", name, err)
		}
		result.Total += count
		result.ByCollection = append(result.ByCollection, models.CollectionCount{Collection: name, Count: count})
		if count > 0 && len(result.SampleItems) < sampleSize {
			points, _, err := e.store.Scroll(ctx, name, sampleSize-len(result.SampleItems), nil, native)
			if err != nil {
				return nil, e.storeErr("sample", name, err)
			}
			result.SampleItems = append(result.SampleItems, pointsToItems(points)...)
		}
	}
	return result, nil
}

func (e *Engine) analyzeEntityAcross(ctx context.Context, collections []string, entity string, filter *models.FilterExpr) (*models.AnalysisResult, error) {
	native := translateFilter(filter)
	result := &models.AnalysisResult{Entity: entity}
	for _, name := range collections {
		count, err := e.store.CountPoints(ctx, name, native)
		if err != nil {
			return nil, e.storeErr("count", name, err)
		}
		result.TotalItems += count
		result.ByCollection = append(result.ByCollection, models.CollectionCount{Collection: name, Count: count})
	}
	return result, nil
}

func (e *Engine) analyzeDatabase(ctx context.Context, collections []string) (*models.AnalysisResult, error) {
	counts := map[string]int64{}
	result := &models.AnalysisResult{}
	for _, name := range collections {
		var collectionTotal int64
		_, capped, err := e.scanCollection(ctx, name, nil, maxScanRanking, func(p qdrant.Point) bool {
			if v := e.entityValue(p); v != "" && !admitEntityCount(counts, v) {
				return false
			}
			collectionTotal++
			return true
		})
		if err != nil {
			return nil, e.storeErr("analysis scan", name, err)
		}
		result.TotalItems += collectionTotal
		result.ByCollection = append(result.ByCollection, models.CollectionCount{Collection: name, Count: collectionTotal})
		result.Truncated = result.Truncated || capped
	}
	result.UniqueEntities = len(counts)
	for entity, count := range counts {
		if count > result.TopEntityCount || (count == result.TopEntityCount && entity < result.TopEntity) {
			result.TopEntity = entity
			result.TopEntityCount = count
		}
	}
	if len(counts) > 0 {
		result.AverageItemsPerEntity = float64(result.TotalItems) / float64(len(counts))
	}
	return result, nil
}

func (e *Engine) rankEntitiesAcross(ctx context.Context, collections []string, intent *models.QueryIntent) (*models.RankingResult, error) {
	native := translateFilter(intent.Filter)
	counts := map[string]int64{}
	truncated := false
	for _, name := range collections {
		_, capped, err := e.scanCollection(ctx, name, native, maxScanRanking, func(p qdrant.Point) bool {
			if v := e.entityValue(p); v != "" {
				return admitEntityCount(counts, v)
			}
			return true
		})
		if err != nil {
			return nil, e.storeErr("ranking scan", name, err)
		}
		truncated = truncated || capped
	}
	result := buildRanking(counts, intent.Limit)
	result.Truncated = truncated
	return result, nil
}

func (e *Engine) listCollectionsDetailed(ctx context.Context, collections []string) (*models.CollectionsListResult, error) {
	result := &models.CollectionsListResult{Count: len(collections)}
	for _, name := range collections {
		desc, err := e.describeCollection(ctx, name)
		if err != nil {
			return nil, err
		}
		result.Collections = append(result.Collections, *desc)
	}
	return result, nil
}

func (e *Engine) databaseOverview(ctx context.Context, collections []string) (*models.DatabaseOverview, error) {
	overview := &models.DatabaseOverview{CollectionCount: len(collections)}
	for _, name := range collections {
		desc, err := e.describeCollection(ctx, name)
		if err != nil {
			return nil, err
		}
		overview.Collections = append(overview.Collections, *desc)
		overview.TotalVectors += desc.PointsCount
	}
	return overview, nil
}
