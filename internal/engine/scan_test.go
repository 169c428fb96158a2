package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.helix.vectorquery/internal/vectordb/qdrant"
)

func filledStore(name string, n int) *fakeStore {
	store := newFakeStore()
	points := make([]qdrant.Point, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, point(fmt.Sprintf("p%d", i), map[string]interface{}{"name": fmt.Sprintf("artist-%d", i)}))
	}
	store.addCollection(name, points...)
	return store
}

func TestScanCollection(t *testing.T) {
	t.Run("scans every record when under the cap", func(t *testing.T) {
		store := filledStore("gallery", 250)
		e := newTestEngine(t, store)

		var visited int
		scanned, capped, err := e.scanCollection(context.Background(), "gallery", nil, 10000, func(p qdrant.Point) bool {
			visited++
			return true
		})
		require.NoError(t, err)
		assert.False(t, capped)
		assert.Equal(t, 250, scanned)
		assert.Equal(t, 250, visited)
		// 100 + 100 + 50
		assert.Equal(t, 3, store.scrollCalls)
	})

	t.Run("record cap stops the scan and keeps partial results", func(t *testing.T) {
		store := filledStore("gallery", 500)
		e := newTestEngine(t, store)

		var visited int
		scanned, capped, err := e.scanCollection(context.Background(), "gallery", nil, 300, func(p qdrant.Point) bool {
			visited++
			return true
		})
		require.NoError(t, err)
		assert.True(t, capped)
		assert.Equal(t, 300, scanned)
		assert.Equal(t, 300, visited)
	})

	t.Run("visitor can stop early", func(t *testing.T) {
		store := filledStore("gallery", 500)
		e := newTestEngine(t, store)

		var visited int
		scanned, capped, err := e.scanCollection(context.Background(), "gallery", nil, 10000, func(p qdrant.Point) bool {
			visited++
			return visited < 42
		})
		require.NoError(t, err)
		assert.True(t, capped)
		assert.Equal(t, 42, scanned)
	})

	t.Run("exactly the distinct cap is not truncated", func(t *testing.T) {
		store := filledStore("gallery", maxUniqueEntities)
		e := newTestEngine(t, store)

		result, err := e.countUniqueEntities(context.Background(), "gallery", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(maxUniqueEntities), result.Count)
		assert.False(t, result.Truncated)
	})

	t.Run("one past the distinct cap is truncated", func(t *testing.T) {
		store := filledStore("gallery", maxUniqueEntities+1)
		e := newTestEngine(t, store)

		result, err := e.countUniqueEntities(context.Background(), "gallery", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(maxUniqueEntities), result.Count)
		assert.True(t, result.Truncated)
	})

	t.Run("repeats past the distinct cap still tally", func(t *testing.T) {
		entities := map[string]struct{}{}
		for i := 0; i < maxUniqueEntities; i++ {
			require.True(t, admitEntity(entities, fmt.Sprintf("artist-%d", i)))
		}
		assert.True(t, admitEntity(entities, "artist-0"))
		assert.False(t, admitEntity(entities, "newcomer"))

		counts := map[string]int64{"artist-0": 1}
		for i := 1; i < maxUniqueEntities; i++ {
			require.True(t, admitEntityCount(counts, fmt.Sprintf("artist-%d", i)))
		}
		assert.True(t, admitEntityCount(counts, "artist-0"))
		assert.Equal(t, int64(2), counts["artist-0"])
		assert.False(t, admitEntityCount(counts, "newcomer"))
	})

	t.Run("store errors propagate", func(t *testing.T) {
		store := newFakeStore()
		e := newTestEngine(t, store)

		_, _, err := e.scanCollection(context.Background(), "missing", nil, 100, func(p qdrant.Point) bool {
			return true
		})
		require.Error(t, err)
	})
}
