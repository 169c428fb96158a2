package engine

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"dev.helix.vectorquery/internal/config"
	"dev.helix.vectorquery/internal/llm"
	"dev.helix.vectorquery/internal/models"
	"dev.helix.vectorquery/internal/vectordb/qdrant"
)

// maxQuestionLen bounds the accepted question length in characters.
const maxQuestionLen = 1000

// VectorStore is the slice of the vector database the engine consumes.
// *qdrant.Client satisfies it.
type VectorStore interface {
	ListCollections(ctx context.Context) ([]string, error)
	CollectionExists(ctx context.Context, name string) (bool, error)
	GetCollectionInfo(ctx context.Context, name string) (*qdrant.CollectionInfo, error)
	CountPoints(ctx context.Context, collection string, filter map[string]interface{}) (int64, error)
	Scroll(ctx context.Context, collection string, limit int, offset qdrant.Cursor, filter map[string]interface{}) ([]qdrant.Point, qdrant.Cursor, error)
}

// Response is the engine's answer to a single question.
type Response struct {
	Answer          string                      `json:"answer"`
	QueryType       models.QueryType            `json:"query_type"`
	Data            models.QueryResult          `json:"data,omitempty"`
	ExecutionTimeMS int64                       `json:"execution_time_ms"`
	Context         *models.ConversationContext `json:"context"`
}

// Engine turns natural-language questions into vector store queries and
// phrases the results.
type Engine struct {
	store     VectorStore
	providers *llm.Registry
	vocab     config.DatabaseConfig
	logger    *logrus.Logger
	metrics   *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics registers the engine counters with reg instead of a
// private registry.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.metrics = NewMetrics(reg)
	}
}

// New creates an engine over the given store and provider registry.
func New(store VectorStore, providers *llm.Registry, vocab config.DatabaseConfig, logger *logrus.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	if providers == nil {
		providers = llm.NewRegistry(logger)
	}
	if vocab.EntityField == "" {
		vocab.EntityField = "artist"
	}
	if vocab.EntityType == "" {
		vocab.EntityType = "artist"
	}
	if vocab.ItemType == "" {
		vocab.ItemType = "artwork"
	}
	e := &Engine{
		store:     store,
		providers: providers,
		vocab:     vocab,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return e
}

// Process answers one question. collection is the caller-selected
// collection ("" when none), provider/model select the LLM chain, and
// conv carries the conversation so far (nil for a fresh conversation).
// The returned Response carries the successor context; conv itself is
// never mutated.
func (e *Engine) Process(ctx context.Context, question, collection, provider, model string, conv *models.ConversationContext) (*Response, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, models.NewValidationError("question must not be empty")
	}
	if utf8.RuneCountInString(question) > maxQuestionLen {
		return nil, models.NewValidationError("question exceeds maximum length")
	}
	e.metrics.QueriesProcessed.Inc()

	// Collection names feed both context resolution and the fallback
	// parser. A store outage here is not fatal to parsing; execution
	// reports its own errors.
	collections, err := e.store.ListCollections(ctx)
	if err != nil {
		e.logger.WithError(err).Warn("Could not list collections, parsing without them")
		collections = nil
	}

	res := e.resolveContext(question, collection, conv)
	e.logger.WithFields(logrus.Fields{
		"question":   res.Question,
		"collection": res.Collection,
	}).Debug("Resolved question")

	chain := e.providers.ChainFor(provider)
	intent := e.parseIntent(ctx, res.Question, model, chain, conv, collections)
	if intent.ExtractedCollection == "" && res.Collection != "" {
		intent.ExtractedCollection = res.Collection
	}

	result, err := e.execute(ctx, intent, res.Collection, collections)
	if err != nil {
		return nil, err
	}

	answer := e.generateAnswer(ctx, res.Question, model, chain, result)
	next := e.updateContext(conv, question, intent, result)

	return &Response{
		Answer:          answer,
		QueryType:       intent.Type,
		Data:            result,
		ExecutionTimeMS: time.Since(start).Milliseconds(),
		Context:         next,
	}, nil
}
