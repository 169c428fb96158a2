package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"dev.helix.vectorquery/internal/config"
	"dev.helix.vectorquery/internal/engine"
	"dev.helix.vectorquery/internal/llm"
	"dev.helix.vectorquery/internal/models"
	"dev.helix.vectorquery/internal/vectordb/qdrant"
)

const versionString = "vectorquery 0.1.0"

var (
	collectionFlag = flag.String("collection", "", "Collection to query (default: inferred per question)")
	providerFlag   = flag.String("provider", "", "Preferred LLM provider (ollama or openai)")
	modelFlag      = flag.String("model", "", "Model id passed to the provider")
	questionFlag   = flag.String("question", "", "Ask a single question and exit")
	seedFlag       = flag.String("seed", "", "Path to a JSON seed file to load into the store before starting")
	resetFlag      = flag.Bool("reset", false, "Drop seed collections before loading them (with -seed)")
	metricsAddr    = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9102)")
	jsonOutput     = flag.Bool("json", false, "Print structured results as JSON alongside answers")
	showVersion    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(versionString)
		return
	}

	// Missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if *providerFlag == "" {
		*providerFlag = cfg.LLM.DefaultProvider
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := qdrant.NewClient(storeConfig(cfg), logger)
	if err != nil {
		logger.WithError(err).Fatal("Invalid vector store configuration")
	}
	if err := store.Connect(ctx); err != nil {
		logger.WithError(err).Fatal("Could not reach the vector store")
	}
	defer store.Close()

	if *seedFlag != "" {
		if err := seedStore(ctx, store, *seedFlag, *resetFlag, logger); err != nil {
			logger.WithError(err).Fatal("Seeding failed")
		}
	}

	providers := buildProviders(cfg)
	if len(providers) == 0 {
		logger.Warn("No LLM provider configured, running with rule-based parsing only")
	} else {
		probeProviders(ctx, providers, logger)
	}
	registry := llm.NewRegistry(logger, providers...)

	reg := prometheus.NewRegistry()
	eng := engine.New(store, registry, cfg.Database, logger, engine.WithMetrics(reg))
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, reg, logger)
	}

	if *questionFlag != "" {
		conv := models.NewConversationContext()
		if err := ask(ctx, eng, *questionFlag, conv); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	runREPL(ctx, eng)
}

func storeConfig(cfg *config.Config) *qdrant.Config {
	sc := qdrant.DefaultConfig()
	sc.Host = cfg.Qdrant.Host
	sc.HTTPPort = cfg.Qdrant.Port
	sc.APIKey = cfg.Qdrant.APIKey
	if cfg.Qdrant.Timeout > 0 {
		sc.Timeout = cfg.Qdrant.Timeout
	}
	return sc
}

func buildProviders(cfg *config.Config) []llm.Provider {
	var providers []llm.Provider
	if cfg.HasProvider("ollama") {
		providers = append(providers, llm.NewOllamaProvider(cfg.LLM.Ollama.URL, cfg.LLM.Ollama.Model))
	}
	if cfg.HasProvider("openai") {
		providers = append(providers, llm.NewOpenAIProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.BaseURL, cfg.LLM.OpenAI.Model))
	}
	return providers
}

// probeProviders reports which providers answer; an unreachable provider
// is only a warning since the chain falls back at query time.
func probeProviders(ctx context.Context, providers []llm.Provider, logger *logrus.Logger) {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, p := range providers {
		if err := p.HealthCheck(probeCtx); err != nil {
			logger.WithField("provider", p.Name()).WithError(err).Warn("Provider unreachable")
			continue
		}
		logger.WithField("provider", p.Name()).Info("Provider ready")
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.WithField("addr", addr).Info("Serving metrics")
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("Metrics server stopped")
	}
}

func runREPL(ctx context.Context, eng *engine.Engine) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Println("vectorquery — ask questions about your vector database. Type 'exit' to quit.")

	conv := models.NewConversationContext()
	scanner := bufio.NewScanner(os.Stdin)
	prompt := color.New(color.FgGreen)

	for {
		prompt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return
		case "reset":
			conv = models.NewConversationContext()
			fmt.Println("Conversation cleared.")
			continue
		}
		if err := ask(ctx, eng, line, conv); err != nil {
			color.Red("%v", err)
			continue
		}
	}
}

// ask runs one question and prints the answer. The conversation context
// is advanced in place for the next turn.
func ask(ctx context.Context, eng *engine.Engine, question string, conv *models.ConversationContext) error {
	resp, err := eng.Process(ctx, question, *collectionFlag, *providerFlag, *modelFlag, conv)
	if err != nil {
		return err
	}
	fmt.Println(resp.Answer)
	if *jsonOutput && resp.Data != nil {
		encoded, err := json.MarshalIndent(resp.Data, "", "  ")
		if err == nil {
			fmt.Println(string(encoded))
		}
	}
	if resp.Context != nil {
		*conv = *resp.Context
	}
	return nil
}

// seedFile is the on-disk shape accepted by -seed: named collections of
// payload-bearing points with optional vectors.
type seedFile struct {
	Collections []struct {
		Name       string         `json:"name"`
		VectorSize int            `json:"vector_size"`
		Points     []qdrant.Point `json:"points"`
	} `json:"collections"`
}

func seedStore(ctx context.Context, store *qdrant.Client, path string, reset bool, logger *logrus.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, c := range seed.Collections {
		exists, err := store.CollectionExists(ctx, c.Name)
		if err != nil {
			return err
		}
		if exists && reset {
			if err := store.DeleteCollection(ctx, c.Name); err != nil {
				return err
			}
			exists = false
		}
		if !exists {
			size := c.VectorSize
			if size <= 0 {
				size = 4
			}
			if err := store.CreateCollection(ctx, qdrant.DefaultCollectionConfig(c.Name, size)); err != nil {
				return err
			}
			if err := store.WaitForCollection(ctx, c.Name, 30*time.Second); err != nil {
				return err
			}
		}
		if len(c.Points) > 0 {
			if err := store.UpsertPoints(ctx, c.Name, c.Points); err != nil {
				return err
			}
		}
		logger.WithFields(logrus.Fields{
			"collection": c.Name,
			"points":     len(c.Points),
		}).Info("Seeded collection")
	}
	return nil
}
