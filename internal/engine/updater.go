package engine

import (
	"time"

	"github.com/google/uuid"

	"dev.helix.vectorquery/internal/models"
)

// updateContext folds the completed turn into a new context value. The
// input context is never modified.
func (e *Engine) updateContext(conv *models.ConversationContext, question string, intent *models.QueryIntent, result models.QueryResult) *models.ConversationContext {
	next := conv.WithTurn(models.ConversationTurn{
		ID:       uuid.NewString(),
		Question: question,
		Intent: models.TurnIntent{
			Type:                intent.Type,
			Target:              intent.Target,
			Filter:              intent.Filter,
			Scope:               intent.Scope,
			ExtractedCollection: intent.ExtractedCollection,
		},
		Result:    result,
		Timestamp: time.Now(),
	})

	next.LastQueryType = intent.Type
	next.LastTarget = intent.Target

	if intent.ExtractedCollection != "" {
		next.LastCollection = intent.ExtractedCollection
	} else if name := singlePositiveCollection(result); name != "" {
		next.LastCollection = name
	}

	if entity := entityFromFilter(intent.Filter, e.vocab.EntityField); entity != "" {
		next.LastEntity = entity
		next.CurrentTopic = entity
	} else if next.LastCollection != "" && next.CurrentTopic == "" {
		next.CurrentTopic = next.LastCollection
	}
	return next
}
