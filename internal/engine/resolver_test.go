package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dev.helix.vectorquery/internal/models"
)

func TestResolveContextRewrites(t *testing.T) {
	e := newTestEngine(t, newFakeStore())

	tests := []struct {
		name     string
		question string
		conv     *models.ConversationContext
		want     string
	}{
		{
			name:     "no context passes through",
			question: "How many artworks are there?",
			conv:     nil,
			want:     "How many artworks are there?",
		},
		{
			name:     "possessive pronoun",
			question: "Show me their best work",
			conv:     &models.ConversationContext{LastEntity: "Chris Dyer"},
			want:     "Show me Chris Dyer's best work",
		},
		{
			name:     "bare pronoun",
			question: "How many items do they have?",
			conv:     &models.ConversationContext{LastEntity: "Chris Dyer"},
			want:     "How many items do Chris Dyer have?",
		},
		{
			name:     "also inserts entity",
			question: "Count sketches also",
			conv:     &models.ConversationContext{LastEntity: "Chris Dyer"},
			want:     "Count sketches also for Chris Dyer",
		},
		{
			name:     "also left alone when entity already present",
			question: "Count Chris Dyer sketches also",
			conv:     &models.ConversationContext{LastEntity: "Chris Dyer"},
			want:     "Count Chris Dyer sketches also",
		},
		{
			name:     "dollar sign in entity name stays literal",
			question: "Show me her latest work",
			conv:     &models.ConversationContext{LastEntity: "Ke$ha"},
			want:     "Show me Ke$ha's latest work",
		},
		{
			name:     "it becomes last collection",
			question: "Describe it",
			conv:     &models.ConversationContext{LastCollection: "gallery"},
			want:     "Describe gallery",
		},
		{
			name:     "continuation phrase restates prior query",
			question: "What about Jane Doe?",
			conv: &models.ConversationContext{
				LastQueryType: models.QueryCount,
				LastTarget:    "items",
			},
			want: "count items by Jane Doe",
		},
		{
			name:     "continuation needs remembered query",
			question: "What about Jane Doe?",
			conv:     &models.ConversationContext{},
			want:     "What about Jane Doe?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.resolveContext(tt.question, "", tt.conv)
			assert.Equal(t, tt.want, res.Question)
		})
	}
}

func TestResolveContextCollection(t *testing.T) {
	e := newTestEngine(t, newFakeStore())

	t.Run("explicit collection wins", func(t *testing.T) {
		conv := &models.ConversationContext{LastCollection: "old"}
		res := e.resolveContext("How many artworks?", "new", conv)
		assert.Equal(t, "new", res.Collection)
	})

	t.Run("adopts last collection by default", func(t *testing.T) {
		conv := &models.ConversationContext{LastCollection: "gallery"}
		res := e.resolveContext("How many artworks?", "", conv)
		assert.Equal(t, "gallery", res.Collection)
	})

	t.Run("database phrasing blocks adoption", func(t *testing.T) {
		conv := &models.ConversationContext{LastCollection: "gallery"}
		res := e.resolveContext("How many artworks across all collections?", "", conv)
		assert.Equal(t, "", res.Collection)
	})

	t.Run("this collection phrasing adopts even with database wording", func(t *testing.T) {
		conv := &models.ConversationContext{LastCollection: "gallery"}
		res := e.resolveContext("Is this collection the biggest in the database?", "", conv)
		assert.Equal(t, "gallery", res.Collection)
	})

	t.Run("single positive breakdown from prior turn", func(t *testing.T) {
		conv := models.NewConversationContext().WithTurn(models.ConversationTurn{
			Question: "Where does Chris Dyer appear across all collections?",
			Result: &models.EntityCountResult{
				Entity: "Chris Dyer",
				Total:  3,
				ByCollection: []models.CollectionCount{
					{Collection: "gallery", Count: 3},
					{Collection: "sketches", Count: 0},
				},
			},
		})
		res := e.resolveContext("Show them across the database", "", conv)
		assert.Equal(t, "gallery", res.Collection)
	})

	t.Run("two positive collections resolve nothing", func(t *testing.T) {
		conv := models.NewConversationContext().WithTurn(models.ConversationTurn{
			Result: &models.EntityCountResult{
				ByCollection: []models.CollectionCount{
					{Collection: "gallery", Count: 3},
					{Collection: "sketches", Count: 1},
				},
			},
		})
		res := e.resolveContext("Show items across the database", "", conv)
		assert.Equal(t, "", res.Collection)
	})
}
