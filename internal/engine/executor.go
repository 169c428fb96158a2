package engine

import (
	"context"
	"errors"

	"dev.helix.vectorquery/internal/models"
	"dev.helix.vectorquery/internal/vectordb/qdrant"
)

// execute routes the intent to the matching handler. collections holds
// the known collection names if they could be listed, nil otherwise.
func (e *Engine) execute(ctx context.Context, intent *models.QueryIntent, resolvedCollection string, collections []string) (models.QueryResult, error) {
	// collections/database intents are database-wide regardless of what
	// scope the parser assigned.
	if intent.Type == models.QueryCollections || intent.Type == models.QueryDatabase {
		return e.executeDatabase(ctx, intent, collections)
	}

	if intent.Scope == models.ScopeCollection {
		name := intent.ExtractedCollection
		if name == "" {
			name = resolvedCollection
		}
		if name == "" {
			return nil, models.NewValidationError("this query needs a collection, but none was given or could be inferred")
		}
		exists, err := e.store.CollectionExists(ctx, name)
		if err != nil {
			return nil, &models.SearchOperationError{Op: "collection lookup", Err: err}
		}
		if !exists {
			return nil, &models.CollectionNotFoundError{Collection: name}
		}
		return e.executeCollection(ctx, intent, name)
	}
	return e.executeDatabase(ctx, intent, collections)
}

// executeCollection handles collection-scoped intents, keyed by type,
// target, and filter presence.
func (e *Engine) executeCollection(ctx context.Context, intent *models.QueryIntent, collection string) (models.QueryResult, error) {
	switch intent.Type {
	case models.QueryCount:
		if entity := entityFromFilter(intent.Filter, e.vocab.EntityField); entity != "" {
			return e.countEntityItems(ctx, collection, entity, intent.Filter)
		}
		if intent.Target == "entities" {
			return e.countUniqueEntities(ctx, collection, intent.Filter)
		}
		return e.countItems(ctx, collection, intent.Filter)

	case models.QuerySearch, models.QueryList, models.QueryFilter:
		if intent.Target == "entities" {
			return e.listUniqueEntities(ctx, collection, intent.Filter)
		}
		return e.fetchItems(ctx, collection, intent)

	case models.QueryDescribe:
		return e.describeCollection(ctx, collection)

	case models.QuerySummarize:
		if entity := entityFromFilter(intent.Filter, e.vocab.EntityField); entity != "" {
			return e.summarizeEntity(ctx, collection, entity, intent.Filter)
		}
		return e.describeCollection(ctx, collection)

	case models.QueryAnalyze:
		if entity := entityFromFilter(intent.Filter, e.vocab.EntityField); entity != "" {
			return e.analyzeEntity(ctx, collection, entity, intent.Filter)
		}
		return e.analyzeCollection(ctx, collection)

	case models.QueryTop, models.QueryRanking:
		return e.rankEntities(ctx, collection, intent)

	case models.QueryAggregate:
		return e.aggregate(ctx, collection, intent)
	}
	return e.describeCollection(ctx, collection)
}

// requireCollections re-fetches the collection list when the earlier
// best-effort listing failed; database-wide handlers cannot run without it.
func (e *Engine) requireCollections(ctx context.Context, collections []string) ([]string, error) {
	if collections != nil {
		return collections, nil
	}
	names, err := e.store.ListCollections(ctx)
	if err != nil {
		return nil, &models.SearchOperationError{Op: "list collections", Err: err}
	}
	return names, nil
}

func (e *Engine) storeErr(op, collection string, err error) error {
	if errors.Is(err, qdrant.ErrNotFound) {
		return &models.CollectionNotFoundError{Collection: collection}
	}
	return &models.SearchOperationError{Op: op, Err: err}
}
