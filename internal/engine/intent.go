package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dev.helix.vectorquery/internal/llm"
	"dev.helix.vectorquery/internal/models"
)

const intentSystemPrompt = `You translate user questions about a vector database into a single JSON object describing the query to run. Respond with exactly one JSON object and nothing else. The object has these fields:
- "type": one of count, search, list, filter, describe, collections, database, summarize, analyze, top, ranking, aggregate
- "target": what is being counted or listed, e.g. "items", "entities", "collections", "total"
- "filter": optional; a mapping of payload field to value, or to an operator object using contains, gt, gte, lt, lte, in, or not; an array of such mappings means AND
- "limit": optional integer
- "scope": "collection" or "database"
- "extractedCollection": optional; a collection name mentioned in the question
- "sortBy", "sortOrder": optional; sortOrder is "asc" or "desc"
- "aggregationFunction", "aggregationField": required for type aggregate; function is sum, average, min, or max`

// parseIntent turns the enriched question into a QueryIntent. It never
// fails: any LLM or parsing problem falls through to the deterministic
// rule list.
func (e *Engine) parseIntent(ctx context.Context, question, model string, chain *llm.Chain, conv *models.ConversationContext, collections []string) *models.QueryIntent {
	if !chain.Empty() {
		text, err := chain.Generate(ctx, intentSystemPrompt, e.buildIntentPrompt(question, conv, collections), model)
		if err != nil {
			e.metrics.ProviderFailures.Inc()
			e.logger.WithError(err).Warn("Intent generation failed, using rule-based parser")
		} else {
			intent, perr := parseIntentJSON(text)
			if perr == nil {
				intent.Normalize()
				return intent
			}
			e.logger.WithError(perr).Warn("Could not parse intent from model output, using rule-based parser")
		}
	}
	e.metrics.IntentFallbacks.Inc()
	return e.fallbackIntent(question, collections)
}

func (e *Engine) buildIntentPrompt(question string, conv *models.ConversationContext, collections []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Domain vocabulary: the payload field %q holds the %s name; individual records are %ss.\n",
		e.vocab.EntityField, e.vocab.EntityType, e.vocab.ItemType)
	if len(collections) > 0 {
		fmt.Fprintf(&b, "Known collections: %s\n", strings.Join(collections, ", "))
	}

	if conv != nil && len(conv.History) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range conv.RecentTurns(3) {
			fmt.Fprintf(&b, "- Q: %s (interpreted as type=%s target=%s)\n", turn.Question, turn.Intent.Type, turn.Intent.Target)
		}
	}

	fmt.Fprintf(&b, `Examples:
Q: How many %ss are there?
{"type":"count","target":"entities","scope":"database"}
Q: Show me everything by Jane Doe
{"type":"search","target":"items","filter":{%q:"Jane Doe"},"scope":"database"}
Q: Which %s has the most %ss?
{"type":"ranking","target":"entities","limit":1,"sortBy":"item_count","sortOrder":"desc","scope":"database"}
Q: What is the average price?
{"type":"aggregate","aggregationFunction":"average","aggregationField":"price","scope":"collection"}

Question: %s
`, e.vocab.EntityType, e.vocab.EntityField, e.vocab.EntityType, e.vocab.ItemType, question)

	return b.String()
}

// parseIntentJSON extracts the first balanced {...} block from the model
// output and decodes it.
func parseIntentJSON(text string) (*models.QueryIntent, error) {
	raw, err := firstJSONObject(text)
	if err != nil {
		return nil, err
	}
	var intent models.QueryIntent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		return nil, fmt.Errorf("malformed intent JSON: %w", err)
	}
	return &intent, nil
}

func firstJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", errors.New("no JSON object in model output")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", errors.New("unterminated JSON object in model output")
}
