package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.helix.vectorquery/internal/config"
	"dev.helix.vectorquery/internal/llm"
	"dev.helix.vectorquery/internal/models"
	"dev.helix.vectorquery/internal/vectordb/qdrant"
)

// fakeStore serves collections from memory, honoring equality filters
// and cursor-based pagination the way the real store does.
type fakeStore struct {
	order       []string
	collections map[string][]qdrant.Point
	scrollCalls int
	listErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{collections: map[string][]qdrant.Point{}}
}

func (s *fakeStore) addCollection(name string, points ...qdrant.Point) {
	s.order = append(s.order, name)
	s.collections[name] = points
}

func (s *fakeStore) ListCollections(ctx context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]string(nil), s.order...), nil
}

func (s *fakeStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, ok := s.collections[name]
	return ok, nil
}

func (s *fakeStore) GetCollectionInfo(ctx context.Context, name string) (*qdrant.CollectionInfo, error) {
	points, ok := s.collections[name]
	if !ok {
		return nil, qdrant.ErrNotFound
	}
	return &qdrant.CollectionInfo{Name: name, Status: "green", PointsCount: int64(len(points))}, nil
}

func (s *fakeStore) CountPoints(ctx context.Context, collection string, filter map[string]interface{}) (int64, error) {
	points, ok := s.collections[collection]
	if !ok {
		return 0, qdrant.ErrNotFound
	}
	var count int64
	for _, p := range points {
		if matchesFilter(p, filter) {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) Scroll(ctx context.Context, collection string, limit int, offset qdrant.Cursor, filter map[string]interface{}) ([]qdrant.Point, qdrant.Cursor, error) {
	s.scrollCalls++
	points, ok := s.collections[collection]
	if !ok {
		return nil, nil, qdrant.ErrNotFound
	}
	var matched []qdrant.Point
	for _, p := range points {
		if matchesFilter(p, filter) {
			matched = append(matched, p)
		}
	}

	start := 0
	if offset != nil {
		var idx int
		if err := json.Unmarshal(offset, &idx); err != nil {
			return nil, nil, fmt.Errorf("bad cursor: %w", err)
		}
		start = idx
	}
	if start >= len(matched) {
		return nil, nil, nil
	}
	end := start + limit
	if end >= len(matched) {
		return matched[start:], nil, nil
	}
	next := qdrant.Cursor(strconv.Itoa(end))
	return matched[start:end], next, nil
}

func matchesFilter(p qdrant.Point, filter map[string]interface{}) bool {
	if filter == nil {
		return true
	}
	must, _ := filter["must"].([]interface{})
	for _, raw := range must {
		cond, _ := raw.(map[string]interface{})
		key, _ := cond["key"].(string)
		match, _ := cond["match"].(map[string]interface{})
		if want, ok := match["value"]; ok {
			if p.Payload[key] != want {
				return false
			}
		}
	}
	return true
}

func point(id string, payload map[string]interface{}) qdrant.Point {
	return qdrant.Point{ID: id, Payload: payload}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func artVocab() config.DatabaseConfig {
	return config.DatabaseConfig{EntityField: "name", EntityType: "artist", ItemType: "artwork"}
}

func newTestEngine(t *testing.T, store *fakeStore) *Engine {
	t.Helper()
	return New(store, llm.NewRegistry(quietLogger()), artVocab(), quietLogger())
}

func TestProcessValidation(t *testing.T) {
	e := newTestEngine(t, newFakeStore())

	t.Run("empty question", func(t *testing.T) {
		_, err := e.Process(context.Background(), "   ", "", "", "", nil)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("overlong question", func(t *testing.T) {
		long := make([]byte, maxQuestionLen+1)
		for i := range long {
			long[i] = 'a'
		}
		_, err := e.Process(context.Background(), string(long), "", "", "", nil)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("length is counted in runes", func(t *testing.T) {
		store := newFakeStore()
		store.addCollection("gallery", point("1", map[string]interface{}{"name": "Alice"}))
		eng := newTestEngine(t, store)

		// Well over maxQuestionLen bytes but under it in runes.
		question := strings.Repeat("画", maxQuestionLen-10) + " describe"
		_, err := eng.Process(context.Background(), question, "", "", "", nil)
		require.NoError(t, err)

		_, err = eng.Process(context.Background(), strings.Repeat("画", maxQuestionLen+1), "", "", "", nil)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestProcessCountEntitiesAcrossDatabase(t *testing.T) {
	store := newFakeStore()
	var first, second []qdrant.Point
	for i := 0; i < 10; i++ {
		first = append(first, point(fmt.Sprintf("a%d", i), map[string]interface{}{"name": fmt.Sprintf("artist-%d", i%4)}))
	}
	for i := 0; i < 20; i++ {
		second = append(second, point(fmt.Sprintf("b%d", i), map[string]interface{}{"name": fmt.Sprintf("artist-%d", i%6)}))
	}
	store.addCollection("paintings", first...)
	store.addCollection("sketches", second...)
	e := newTestEngine(t, store)

	resp, err := e.Process(context.Background(), "How many artists are there?", "", "", "", models.NewConversationContext())
	require.NoError(t, err)
	require.Equal(t, models.QueryCount, resp.QueryType)

	result, ok := resp.Data.(*models.CountResult)
	require.True(t, ok, "expected a count result, got %T", resp.Data)
	// artist-0..artist-5 across both collections
	assert.Equal(t, int64(6), result.Count)
	assert.Equal(t, "entities", result.Target)
	assert.False(t, result.Truncated)
}

func TestProcessRankingTie(t *testing.T) {
	store := newFakeStore()
	var points []qdrant.Point
	for i := 0; i < 5; i++ {
		points = append(points, point(fmt.Sprintf("a%d", i), map[string]interface{}{"name": "Alice"}))
		points = append(points, point(fmt.Sprintf("b%d", i), map[string]interface{}{"name": "Bob"}))
	}
	points = append(points, point("c0", map[string]interface{}{"name": "Carol"}))
	store.addCollection("gallery", points...)
	e := newTestEngine(t, store)

	resp, err := e.Process(context.Background(), "Which artist has the most artworks?", "gallery", "", "", nil)
	require.NoError(t, err)

	result, ok := resp.Data.(*models.RankingResult)
	require.True(t, ok, "expected a ranking result, got %T", resp.Data)
	assert.True(t, result.HasTie)
	assert.Equal(t, 2, result.TieCount)
	assert.Equal(t, int64(5), result.MaxCount)
	assert.Equal(t, []string{"Alice", "Bob"}, result.TiedEntities)
	assert.Equal(t, "Alice and Bob are tied for the most artworks with 5 each.", resp.Answer)
}

func TestProcessEntityCountViaPronoun(t *testing.T) {
	store := newFakeStore()
	store.addCollection("gallery",
		point("1", map[string]interface{}{"name": "Chris Dyer"}),
		point("2", map[string]interface{}{"name": "Chris Dyer"}),
		point("3", map[string]interface{}{"name": "Someone Else"}),
	)
	e := newTestEngine(t, store)

	conv := &models.ConversationContext{LastEntity: "Chris Dyer", LastCollection: "gallery"}
	resp, err := e.Process(context.Background(), "How many items do they have?", "", "", "", conv)
	require.NoError(t, err)

	result, ok := resp.Data.(*models.EntityCountResult)
	require.True(t, ok, "expected an entity count result, got %T", resp.Data)
	assert.Equal(t, "Chris Dyer", result.Entity)
	assert.Equal(t, int64(2), result.Total)
}

func TestProcessDatabaseAggregateUnsupported(t *testing.T) {
	store := newFakeStore()
	store.addCollection("gallery", point("1", map[string]interface{}{"price": 10.0}))
	e := newTestEngine(t, store)

	intent := &models.QueryIntent{
		Type:           models.QueryAggregate,
		Scope:          models.ScopeDatabase,
		AggregateFunc:  models.AggregateAverage,
		AggregateField: "price",
	}
	result, err := e.execute(context.Background(), intent, "", store.order)
	require.NoError(t, err)

	agg, ok := result.(*models.AggregationResult)
	require.True(t, ok)
	assert.Nil(t, agg.Result)
	assert.NotEmpty(t, agg.Message)
}

func TestProcessCollectionNotFound(t *testing.T) {
	store := newFakeStore()
	store.addCollection("gallery")
	e := newTestEngine(t, store)

	intent := &models.QueryIntent{Type: models.QueryCount, Scope: models.ScopeCollection, ExtractedCollection: "missing"}
	_, err := e.execute(context.Background(), intent, "", store.order)
	var nf *models.CollectionNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.Collection)
}

func TestProcessCollectionScopeRequiresName(t *testing.T) {
	e := newTestEngine(t, newFakeStore())
	intent := &models.QueryIntent{Type: models.QueryCount, Scope: models.ScopeCollection}
	_, err := e.execute(context.Background(), intent, "", nil)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestProcessReturnsNewContext(t *testing.T) {
	store := newFakeStore()
	store.addCollection("gallery", point("1", map[string]interface{}{"name": "Alice"}))
	e := newTestEngine(t, store)

	conv := models.NewConversationContext()
	resp, err := e.Process(context.Background(), "How many artworks are in the gallery collection?", "gallery", "", "", conv)
	require.NoError(t, err)
	require.NotNil(t, resp.Context)
	assert.Len(t, resp.Context.History, 1)
	assert.Empty(t, conv.History, "input context must not be mutated")
	assert.Equal(t, "gallery", resp.Context.LastCollection)
}
