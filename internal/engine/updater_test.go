package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.helix.vectorquery/internal/models"
)

func TestUpdateContext(t *testing.T) {
	e := newTestEngine(t, newFakeStore())

	t.Run("history caps at ten turns, oldest first out", func(t *testing.T) {
		conv := models.NewConversationContext()
		intent := &models.QueryIntent{Type: models.QueryCount, Scope: models.ScopeDatabase}
		for i := 0; i < 15; i++ {
			conv = e.updateContext(conv, fmt.Sprintf("question %d", i), intent, &models.CountResult{Count: int64(i)})
			want := i + 1
			if want > models.MaxHistoryTurns {
				want = models.MaxHistoryTurns
			}
			require.Len(t, conv.History, want)
		}
		assert.Equal(t, "question 5", conv.History[0].Question)
		assert.Equal(t, "question 14", conv.History[len(conv.History)-1].Question)
	})

	t.Run("never mutates the input context", func(t *testing.T) {
		conv := models.NewConversationContext()
		intent := &models.QueryIntent{Type: models.QueryCount, Scope: models.ScopeDatabase}
		next := e.updateContext(conv, "q", intent, &models.CountResult{})
		assert.Empty(t, conv.History)
		assert.Len(t, next.History, 1)
		assert.Empty(t, conv.LastQueryType)
	})

	t.Run("remembers entity from filter", func(t *testing.T) {
		intent := &models.QueryIntent{
			Type:   models.QuerySearch,
			Filter: models.NewEqualsFilter("name", "Jane Doe"),
			Scope:  models.ScopeDatabase,
		}
		next := e.updateContext(nil, "q", intent, &models.ItemsResult{})
		assert.Equal(t, "Jane Doe", next.LastEntity)
		assert.Equal(t, "Jane Doe", next.CurrentTopic)
	})

	t.Run("remembers extracted collection", func(t *testing.T) {
		intent := &models.QueryIntent{
			Type:                models.QueryCount,
			Scope:               models.ScopeCollection,
			ExtractedCollection: "gallery",
		}
		next := e.updateContext(nil, "q", intent, &models.CountResult{})
		assert.Equal(t, "gallery", next.LastCollection)
		assert.Equal(t, models.QueryCount, next.LastQueryType)
	})

	t.Run("adopts the single collection with matches", func(t *testing.T) {
		intent := &models.QueryIntent{Type: models.QueryCount, Scope: models.ScopeDatabase}
		result := &models.EntityCountResult{
			Entity: "Jane Doe",
			Total:  3,
			ByCollection: []models.CollectionCount{
				{Collection: "gallery", Count: 3},
				{Collection: "sketches", Count: 0},
			},
		}
		next := e.updateContext(nil, "q", intent, result)
		assert.Equal(t, "gallery", next.LastCollection)
	})
}
