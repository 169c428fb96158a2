package engine

import (
	"regexp"
	"strconv"
	"strings"

	"dev.helix.vectorquery/internal/config"
	"dev.helix.vectorquery/internal/models"
)

// ruleInput is the shared view of a question handed to every fallback
// rule: the raw and lowercased text plus the collection name and entity
// name detected in it, if any.
type ruleInput struct {
	question   string
	lower      string
	collection string
	entity     string
	vocab      config.DatabaseConfig
}

// fallbackRule is one entry of the priority-ordered decision list.
type fallbackRule struct {
	name  string
	match func(in *ruleInput) bool
	build func(in *ruleInput) *models.QueryIntent
}

var (
	entityByRe   = regexp.MustCompile(`(?:done by|created by|made by|by|from|of)\s+([A-Z][\w'-]*(?:\s+[A-Z][\w'-]*)*)`)
	entityDoRe   = regexp.MustCompile(`(?:do|does|did|has|have)\s+([A-Z][\w'-]*(?:\s+[A-Z][\w'-]*)*)`)
	entityWorkRe = regexp.MustCompile(`([A-Z][\w'-]*(?:\s+[A-Z][\w'-]*)*?)(?:'s)?\s+(?:work|works|items?|art|artworks?|pieces?|paintings?|images?|records?)\b`)
	topNRe       = regexp.MustCompile(`(?i)top\s+(\d+)`)
)

// genericTerms disqualify a capitalized match from being an entity name.
var genericTerms = map[string]bool{
	"collections": true,
	"collection":  true,
	"database":    true,
	"many":        true,
	"total":       true,
	"how":         true,
	"what":        true,
	"where":       true,
	"when":        true,
}

// fallbackIntent derives an intent without an LLM. It never fails: the
// final rule matches anything.
func (e *Engine) fallbackIntent(question string, collections []string) *models.QueryIntent {
	in := newRuleInput(question, collections, e.vocab)
	for _, rule := range fallbackRules {
		if rule.match(in) {
			e.logger.WithField("rule", rule.name).Debug("Fallback rule matched")
			intent := rule.build(in)
			intent.Normalize()
			return intent
		}
	}
	// Unreachable: the catch-all rule always matches.
	intent := &models.QueryIntent{Type: models.QueryDescribe}
	intent.Normalize()
	return intent
}

func newRuleInput(question string, collections []string, vocab config.DatabaseConfig) *ruleInput {
	in := &ruleInput{
		question: question,
		lower:    strings.ToLower(question),
		vocab:    vocab,
	}
	for _, name := range collections {
		if strings.Contains(in.lower, strings.ToLower(name)) {
			in.collection = name
			break
		}
	}
	candidate := extractEntityName(question)
	if candidate != "" {
		// A name matching a known collection is a collection reference,
		// not an entity.
		matched := false
		for _, name := range collections {
			if strings.EqualFold(candidate, name) {
				in.collection = name
				matched = true
				break
			}
		}
		if !matched {
			in.entity = candidate
		}
	}
	return in
}

func extractEntityName(question string) string {
	for _, re := range []*regexp.Regexp{entityByRe, entityDoRe, entityWorkRe} {
		m := re.FindStringSubmatch(question)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if candidate != "" && !containsGenericTerm(candidate) {
			return candidate
		}
	}
	return ""
}

func containsGenericTerm(candidate string) bool {
	for _, word := range strings.Fields(strings.ToLower(candidate)) {
		if genericTerms[strings.Trim(word, "?.,!")] {
			return true
		}
	}
	return false
}

func (in *ruleInput) mentionsScopeWord() bool {
	return strings.Contains(in.lower, "collections") || strings.Contains(in.lower, "database")
}

func (in *ruleInput) mentionsCount() bool {
	return strings.Contains(in.lower, "how many") || strings.Contains(in.lower, "count")
}

func (in *ruleInput) containsAny(words ...string) bool {
	for _, w := range words {
		if strings.Contains(in.lower, w) {
			return true
		}
	}
	return false
}

// scoped fills scope and extractedCollection from what was detected in
// the question text.
func (in *ruleInput) scoped(intent *models.QueryIntent) *models.QueryIntent {
	if in.collection != "" {
		intent.Scope = models.ScopeCollection
		intent.ExtractedCollection = in.collection
	} else {
		intent.Scope = models.ScopeDatabase
	}
	return intent
}

func (in *ruleInput) entityFilter() *models.FilterExpr {
	return models.NewEqualsFilter(in.vocab.EntityField, in.entity)
}

// fallbackRules is evaluated in order; the first match wins.
var fallbackRules = []fallbackRule{
	{
		name: "database-count",
		match: func(in *ruleInput) bool {
			return in.mentionsScopeWord() && in.mentionsCount()
		},
		build: func(in *ruleInput) *models.QueryIntent {
			target := "collections"
			if in.containsAny("vector", "item", "record", "total") {
				target = "total"
			}
			return &models.QueryIntent{Type: models.QueryCount, Target: target, Scope: models.ScopeDatabase}
		},
	},
	{
		name: "database-list",
		match: func(in *ruleInput) bool {
			return in.mentionsScopeWord() && in.containsAny("list", "what", "show", "exist")
		},
		build: func(in *ruleInput) *models.QueryIntent {
			return &models.QueryIntent{Type: models.QueryCollections, Target: "list", Scope: models.ScopeDatabase}
		},
	},
	{
		name: "database-describe",
		match: func(in *ruleInput) bool {
			return in.mentionsScopeWord() && in.containsAny("describe")
		},
		build: func(in *ruleInput) *models.QueryIntent {
			return &models.QueryIntent{Type: models.QueryDatabase, Target: "overview", Scope: models.ScopeDatabase}
		},
	},
	{
		name: "ranking",
		match: func(in *ruleInput) bool {
			return in.containsAny("which", "who") && in.containsAny("most", "top", "best", "highest")
		},
		build: func(in *ruleInput) *models.QueryIntent {
			return in.scoped(&models.QueryIntent{
				Type:      models.QueryRanking,
				Target:    "entities",
				Limit:     1,
				SortBy:    "item_count",
				SortOrder: models.SortDesc,
			})
		},
	},
	{
		name: "top-n",
		match: func(in *ruleInput) bool {
			return topNRe.MatchString(in.question)
		},
		build: func(in *ruleInput) *models.QueryIntent {
			limit := 10
			if m := topNRe.FindStringSubmatch(in.question); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
					limit = n
				}
			}
			return in.scoped(&models.QueryIntent{
				Type:      models.QueryTop,
				Target:    "entities",
				Limit:     limit,
				SortBy:    "item_count",
				SortOrder: models.SortDesc,
			})
		},
	},
	{
		name: "entity-summarize",
		match: func(in *ruleInput) bool {
			return in.entity != "" && in.containsAny("summarize", "summarise", "summary")
		},
		build: func(in *ruleInput) *models.QueryIntent {
			return in.scoped(&models.QueryIntent{Type: models.QuerySummarize, Target: "items", Filter: in.entityFilter()})
		},
	},
	{
		name: "entity-count",
		match: func(in *ruleInput) bool {
			return in.entity != "" && in.mentionsCount()
		},
		build: func(in *ruleInput) *models.QueryIntent {
			return in.scoped(&models.QueryIntent{Type: models.QueryCount, Target: "items", Filter: in.entityFilter()})
		},
	},
	{
		name: "entity-search",
		match: func(in *ruleInput) bool {
			return in.entity != "" && in.containsAny("find", "search", "show")
		},
		build: func(in *ruleInput) *models.QueryIntent {
			return in.scoped(&models.QueryIntent{Type: models.QuerySearch, Target: "items", Filter: in.entityFilter()})
		},
	},
	{
		name: "entity-analyze",
		match: func(in *ruleInput) bool {
			return in.entity != "" && in.containsAny("analyze", "analysis", "analyse")
		},
		build: func(in *ruleInput) *models.QueryIntent {
			return in.scoped(&models.QueryIntent{Type: models.QueryAnalyze, Target: "items", Filter: in.entityFilter()})
		},
	},
	{
		name: "collection-describe",
		match: func(in *ruleInput) bool {
			return in.collection != "" && in.entity == "" &&
				in.containsAny("summarize", "summarise", "summary", "describe")
		},
		build: func(in *ruleInput) *models.QueryIntent {
			return in.scoped(&models.QueryIntent{Type: models.QueryDescribe, Target: "collection"})
		},
	},
	{
		name: "generic-count",
		match: func(in *ruleInput) bool {
			return in.mentionsCount()
		},
		build: func(in *ruleInput) *models.QueryIntent {
			target := "items"
			if strings.Contains(in.lower, strings.ToLower(in.vocab.EntityType)) {
				target = "entities"
			}
			return in.scoped(&models.QueryIntent{Type: models.QueryCount, Target: target})
		},
	},
	{
		name: "generic-search",
		match: func(in *ruleInput) bool {
			return in.containsAny("find", "search")
		},
		build: func(in *ruleInput) *models.QueryIntent {
			return in.scoped(&models.QueryIntent{Type: models.QuerySearch, Target: "items"})
		},
	},
	{
		name: "generic-list",
		match: func(in *ruleInput) bool {
			return in.containsAny("list", "show")
		},
		build: func(in *ruleInput) *models.QueryIntent {
			return in.scoped(&models.QueryIntent{Type: models.QueryList, Target: "items"})
		},
	},
	{
		name: "generic-describe",
		match: func(in *ruleInput) bool {
			return in.containsAny("describe")
		},
		build: func(in *ruleInput) *models.QueryIntent {
			return in.scoped(&models.QueryIntent{Type: models.QueryDescribe, Target: "collection"})
		},
	},
	{
		name: "catch-all",
		match: func(in *ruleInput) bool {
			return true
		},
		build: func(in *ruleInput) *models.QueryIntent {
			return in.scoped(&models.QueryIntent{Type: models.QueryDescribe, Target: "collection"})
		},
	},
}
