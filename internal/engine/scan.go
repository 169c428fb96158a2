package engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"dev.helix.vectorquery/internal/vectordb/qdrant"
)

// Safety bounds for chunked scans. A tripped bound means a partial
// answer, never an error.
const (
	scanPageSize      = 100
	maxUniqueEntities = 1000
	maxScanEntities   = 10000
	maxScanRanking    = 10000
	maxScanAggregate  = 5000
)

// scanCollection pages through a collection, invoking visit for every
// point. A visit returning false stops the scan early, as does reaching
// maxRecords scanned. Either way the outcome is reported as capped and
// whatever the visitor accumulated stands.
func (e *Engine) scanCollection(ctx context.Context, collection string, filter map[string]interface{}, maxRecords int, visit func(qdrant.Point) bool) (scanned int, capped bool, err error) {
	var cursor qdrant.Cursor
	for {
		pageLimit := scanPageSize
		if remaining := maxRecords - scanned; remaining < pageLimit {
			pageLimit = remaining
		}
		if pageLimit <= 0 {
			break
		}

		points, next, err := e.store.Scroll(ctx, collection, pageLimit, cursor, filter)
		if err != nil {
			return scanned, false, err
		}
		for _, p := range points {
			scanned++
			if !visit(p) {
				e.warnCapped(collection, scanned, "accumulator limit reached")
				return scanned, true, nil
			}
		}
		if next == nil || len(points) == 0 {
			return scanned, false, nil
		}
		if scanned >= maxRecords {
			break
		}
		cursor = next
	}
	e.warnCapped(collection, scanned, "record cap reached")
	return scanned, true, nil
}

// admitEntity records a distinct entity value, refusing only when a new
// value arrives after the distinct cap is already full. A collection with
// exactly maxUniqueEntities entities therefore completes uncapped.
func admitEntity(entities map[string]struct{}, v string) bool {
	if _, seen := entities[v]; seen {
		return true
	}
	if len(entities) >= maxUniqueEntities {
		return false
	}
	entities[v] = struct{}{}
	return true
}

// admitEntityCount tallies an occurrence under the same distinct cap
// rule as admitEntity. Repeats of known entities always count.
func admitEntityCount(counts map[string]int64, v string) bool {
	if _, seen := counts[v]; !seen && len(counts) >= maxUniqueEntities {
		return false
	}
	counts[v]++
	return true
}

func (e *Engine) warnCapped(collection string, scanned int, reason string) {
	e.metrics.ScanCapTrips.Inc()
	e.logger.WithFields(logrus.Fields{
		"collection": collection,
		"scanned":    scanned,
		"reason":     reason,
	}).Warn("Scan stopped early, returning partial results")
}
