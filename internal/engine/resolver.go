package engine

import (
	"fmt"
	"regexp"
	"strings"

	"dev.helix.vectorquery/internal/models"
)

// Resolution is the outcome of context resolution: the enriched
// question and the collection the question targets, if any.
type Resolution struct {
	Question   string
	Collection string
}

var (
	possessivePronounRe = regexp.MustCompile(`(?i)\b(their|his|her|its)\b`)
	barePronounRe       = regexp.MustCompile(`(?i)\b(he|him|they|them)\b`)
	alsoRe              = regexp.MustCompile(`(?i)\balso\b`)
	bareItRe            = regexp.MustCompile(`(?i)\bit\b`)
	continuationRe      = regexp.MustCompile(`^(?i:what about|how about|and)\s+([A-Z][\w'-]*(?:\s+[A-Z][\w'-]*)*)\s*\??$`)
	collectionPhraseRe  = regexp.MustCompile(`(?i)\b(this|that|same|the)\s+collection\b`)
	databasePhraseRe    = regexp.MustCompile(`(?i)all\s+collections|database|across\s+collections`)
)

// resolveContext rewrites the question using the prior conversation and
// resolves an implicit target collection. The input context is never
// modified.
func (e *Engine) resolveContext(question, explicitCollection string, conv *models.ConversationContext) Resolution {
	enriched := question

	if conv != nil {
		// A continuation phrase replaces the whole question with a
		// restatement of the previous one against the new name.
		if m := continuationRe.FindStringSubmatch(enriched); m != nil && conv.LastQueryType != "" && conv.LastTarget != "" {
			enriched = fmt.Sprintf("%s %s by %s", conv.LastQueryType, conv.LastTarget, m[1])
		} else {
			// Entity names go in literally; "$" in a name must not be
			// read as a capture reference.
			if conv.LastEntity != "" {
				enriched = possessivePronounRe.ReplaceAllLiteralString(enriched, conv.LastEntity+"'s")
				enriched = barePronounRe.ReplaceAllLiteralString(enriched, conv.LastEntity)
				if alsoRe.MatchString(enriched) && !strings.Contains(strings.ToLower(enriched), strings.ToLower(conv.LastEntity)) {
					enriched = alsoRe.ReplaceAllLiteralString(enriched, "also for "+conv.LastEntity)
				}
			}
			if conv.LastCollection != "" {
				enriched = bareItRe.ReplaceAllLiteralString(enriched, conv.LastCollection)
			}
		}
	}

	collection := explicitCollection
	if collection == "" && conv != nil && conv.LastCollection != "" {
		if collectionPhraseRe.MatchString(enriched) || !databasePhraseRe.MatchString(strings.ToLower(enriched)) {
			collection = conv.LastCollection
		}
	}
	if collection == "" && conv != nil {
		if turn := conv.LastTurn(); turn != nil {
			collection = singlePositiveCollection(turn.Result)
		}
	}

	return Resolution{Question: enriched, Collection: collection}
}

// singlePositiveCollection returns the collection name when the result
// carries a per-collection breakdown with exactly one non-zero entry.
func singlePositiveCollection(result models.QueryResult) string {
	carrier, ok := result.(models.BreakdownCarrier)
	if !ok {
		return ""
	}
	name := ""
	for _, cc := range carrier.CollectionBreakdown() {
		if cc.Count > 0 {
			if name != "" {
				return ""
			}
			name = cc.Collection
		}
	}
	return name
}
