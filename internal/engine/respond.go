package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dev.helix.vectorquery/internal/llm"
	"dev.helix.vectorquery/internal/models"
)

const answerSystemPrompt = `You answer questions about a vector database. You are given the user's question and the structured result of the query that was run. Answer in one or two plain sentences using only the numbers and names in the result. Do not invent data, do not mention JSON or internal field names.`

// generateAnswer phrases the result. LLM first, deterministic templates
// on any failure; phrasing never fails the request.
func (e *Engine) generateAnswer(ctx context.Context, question, model string, chain *llm.Chain, result models.QueryResult) string {
	if !chain.Empty() {
		prompt, err := e.buildAnswerPrompt(question, result)
		if err == nil {
			text, err := chain.Generate(ctx, answerSystemPrompt, prompt, model)
			if err == nil && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text)
			}
			if err != nil {
				e.metrics.ProviderFailures.Inc()
				e.logger.WithError(err).Warn("Answer generation failed, using template")
			}
		}
	}
	e.metrics.ResponseFallbacks.Inc()
	return e.templateAnswer(result)
}

func (e *Engine) buildAnswerPrompt(question string, result models.QueryResult) (string, error) {
	encoded, err := json.Marshal(result)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\nResult (%s): %s\n", question, result.Kind(), encoded)

	switch result.(type) {
	case *models.DatabaseCountResult:
		b.WriteString("Guidance: state the grand total first, then the per-collection breakdown in one sentence.\n")
	case *models.ItemsResult:
		b.WriteString("Guidance: distinguish the total number of matches from the number shown.\n")
	case *models.RankingResult:
		b.WriteString("Guidance: if has_tie is true, name every tied entity; otherwise name only the top one.\n")
	case *models.AggregationResult:
		b.WriteString("Guidance: if result is null, relay the message; otherwise state the value and how many records carried a numeric field.\n")
	case *models.CollectionsListResult, *models.DatabaseOverview:
		b.WriteString("Guidance: mention each collection's item-type hint when present.\n")
	}
	fmt.Fprintf(&b, "Vocabulary: records are %ss, creators are %ss.\n", e.vocab.ItemType, e.vocab.EntityType)
	return b.String(), nil
}

// pluralize returns the suffix for a count: empty for exactly one,
// "s" otherwise.
func pluralize(n int64) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// joinWithAnd renders ["a"], ["a","b"], ["a","b","c"] as "a",
// "a and b", "a, b, and c".
func joinWithAnd(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
}

func (e *Engine) templateAnswer(result models.QueryResult) string {
	switch r := result.(type) {
	case *models.CountResult:
		return e.countAnswer(r)
	case *models.ItemsResult:
		return fmt.Sprintf("Found %d %s%s in %s, showing %d.",
			r.Total, e.vocab.ItemType, pluralize(r.Total), r.Collection, r.Displayed)
	case *models.EntityListResult:
		return e.entityListAnswer(r)
	case *models.AggregationResult:
		return e.aggregationAnswer(r)
	case *models.DatabaseCountResult:
		return e.databaseCountAnswer(r)
	case *models.EntityCountResult:
		return e.entityCountAnswer(r)
	case *models.SummaryResult:
		return e.summaryAnswer(r)
	case *models.AnalysisResult:
		return e.analysisAnswer(r)
	case *models.RankingResult:
		return e.rankingAnswer(r)
	case *models.CollectionDescription:
		return e.collectionAnswer(r)
	case *models.CollectionsListResult:
		return e.collectionsListAnswer(r)
	case *models.DatabaseOverview:
		return e.overviewAnswer(r)
	case *models.CrossSearchResult:
		return e.crossSearchAnswer(r)
	}
	return "The query completed."
}

func (e *Engine) countAnswer(r *models.CountResult) string {
	noun := e.vocab.ItemType
	if r.Target == "entities" {
		noun = e.vocab.EntityType
	} else if r.Target == "collections" {
		noun = "collection"
	}
	where := "in the database"
	if r.Collection != "" {
		where = "in " + r.Collection
	}
	answer := fmt.Sprintf("There are %d %s%s %s.", r.Count, noun, pluralize(r.Count), where)
	if r.Truncated {
		answer += " The scan was capped, so the real number may be higher."
	}
	return answer
}

func (e *Engine) entityListAnswer(r *models.EntityListResult) string {
	where := "in the database"
	if r.Collection != "" {
		where = "in " + r.Collection
	}
	if r.Count == 0 {
		return fmt.Sprintf("No %ss found %s.", e.vocab.EntityType, where)
	}
	shown := r.Entities
	if len(shown) > 10 {
		shown = shown[:10]
	}
	answer := fmt.Sprintf("Found %d %s%s %s: %s", r.Count, e.vocab.EntityType, pluralize(int64(r.Count)), where, strings.Join(shown, ", "))
	if len(shown) < r.Count {
		answer += fmt.Sprintf(" and %d more", r.Count-len(shown))
	}
	return answer + "."
}

func (e *Engine) aggregationAnswer(r *models.AggregationResult) string {
	if r.Result == nil {
		if r.Message != "" {
			return r.Message
		}
		return "The aggregation could not be computed."
	}
	return fmt.Sprintf("The %s of %s in %s is %.2f, based on %d of %d scanned record%s.",
		r.Function, r.Field, r.Collection, *r.Result, r.ItemCountConsidered, r.TotalItemsScanned, pluralize(int64(r.TotalItemsScanned)))
}

func (e *Engine) databaseCountAnswer(r *models.DatabaseCountResult) string {
	noun := e.vocab.ItemType
	parts := make([]string, 0, len(r.ByCollection))
	for _, cc := range r.ByCollection {
		parts = append(parts, fmt.Sprintf("%s (%d)", cc.Collection, cc.Count))
	}
	answer := fmt.Sprintf("The database holds %d %s%s across %d collection%s.",
		r.Total, noun, pluralize(r.Total), len(r.ByCollection), pluralize(int64(len(r.ByCollection))))
	if len(parts) > 0 {
		answer += " Breakdown: " + strings.Join(parts, ", ") + "."
	}
	return answer
}

func (e *Engine) entityCountAnswer(r *models.EntityCountResult) string {
	answer := fmt.Sprintf("%s has %d %s%s.", r.Entity, r.Total, e.vocab.ItemType, pluralize(r.Total))
	var present []string
	for _, cc := range r.ByCollection {
		if cc.Count > 0 {
			present = append(present, fmt.Sprintf("%s (%d)", cc.Collection, cc.Count))
		}
	}
	if len(present) > 1 {
		answer += " Found in: " + strings.Join(present, ", ") + "."
	}
	return answer
}

func (e *Engine) summaryAnswer(r *models.SummaryResult) string {
	if r.Total == 0 {
		return fmt.Sprintf("No %ss by %s were found.", e.vocab.ItemType, r.Entity)
	}
	where := "across the database"
	if r.Collection != "" {
		where = "in " + r.Collection
	}
	return fmt.Sprintf("%s has %d %s%s %s.", r.Entity, r.Total, e.vocab.ItemType, pluralize(r.Total), where)
}

func (e *Engine) analysisAnswer(r *models.AnalysisResult) string {
	if r.Entity != "" {
		return fmt.Sprintf("%s accounts for %d %s%s.", r.Entity, r.TotalItems, e.vocab.ItemType, pluralize(r.TotalItems))
	}
	where := "The database"
	if r.Collection != "" {
		where = r.Collection
	}
	answer := fmt.Sprintf("%s holds %d %s%s from %d %s%s",
		where, r.TotalItems, e.vocab.ItemType, pluralize(r.TotalItems),
		r.UniqueEntities, e.vocab.EntityType, pluralize(int64(r.UniqueEntities)))
	if r.TopEntity != "" {
		answer += fmt.Sprintf("; %s leads with %d", r.TopEntity, r.TopEntityCount)
	}
	return answer + "."
}

func (e *Engine) rankingAnswer(r *models.RankingResult) string {
	if r.TotalEntities == 0 {
		return fmt.Sprintf("No %ss found to rank.", e.vocab.EntityType)
	}
	noun := e.vocab.ItemType
	if r.HasTie {
		return fmt.Sprintf("%s are tied for the most %ss with %d each.",
			joinWithAnd(r.TiedEntities), noun, r.MaxCount)
	}
	return fmt.Sprintf("%s has the most %ss with %d.", r.TiedEntities[0], noun, r.MaxCount)
}

func (e *Engine) collectionAnswer(r *models.CollectionDescription) string {
	answer := fmt.Sprintf("Collection %s holds %d %s%s", r.Name, r.PointsCount, e.vocab.ItemType, pluralize(r.PointsCount))
	if r.ItemTypeHint != "" {
		answer += fmt.Sprintf(" (%s content)", r.ItemTypeHint)
	}
	return answer + "."
}

func (e *Engine) collectionsListAnswer(r *models.CollectionsListResult) string {
	if r.Count == 0 {
		return "The database has no collections."
	}
	parts := make([]string, 0, r.Count)
	for _, c := range r.Collections {
		part := fmt.Sprintf("%s (%d", c.Name, c.PointsCount)
		if c.ItemTypeHint != "" {
			part += ", " + c.ItemTypeHint
		}
		parts = append(parts, part+")")
	}
	return fmt.Sprintf("The database has %d collection%s: %s.", r.Count, pluralize(int64(r.Count)), strings.Join(parts, ", "))
}

func (e *Engine) overviewAnswer(r *models.DatabaseOverview) string {
	names := make([]string, 0, len(r.Collections))
	for _, c := range r.Collections {
		names = append(names, c.Name)
	}
	return fmt.Sprintf("The database holds %d vector%s across %d collection%s: %s.",
		r.TotalVectors, pluralize(r.TotalVectors), r.CollectionCount, pluralize(int64(r.CollectionCount)), joinWithAnd(names))
}

func (e *Engine) crossSearchAnswer(r *models.CrossSearchResult) string {
	if r.Total == 0 {
		return "No matches found in any collection."
	}
	var present []string
	for _, m := range r.ByCollection {
		if m.Count > 0 {
			present = append(present, fmt.Sprintf("%s (%d)", m.Collection, m.Count))
		}
	}
	return fmt.Sprintf("Found %d match%s: %s.", r.Total, matchPlural(r.Total), strings.Join(present, ", "))
}

func matchPlural(n int64) string {
	if n == 1 {
		return ""
	}
	return "es"
}
