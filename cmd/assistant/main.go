package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shopipet/chatkit/internal/assistant"
	"github.com/shopipet/chatkit/internal/auth"
	"github.com/shopipet/chatkit/internal/catalog"
	"github.com/shopipet/chatkit/internal/core"
	"github.com/shopipet/chatkit/internal/embed"
	"github.com/shopipet/chatkit/internal/llm"
	"github.com/shopipet/chatkit/internal/logger"
	"github.com/shopipet/chatkit/internal/search"
	"github.com/shopipet/chatkit/internal/store"
	"github.com/shopipet/chatkit/internal/telegram"
)

// Config represents the application configuration.
type Config struct {
	TelegramToken    string
	OpenAIAPIKey     string
	EmbeddingModel   string
	OpenRouterAPIKey string
	OpenRouterModel  string
	RedisURL         string
	ProductSource    string
	SheetID          string
	SheetRange       string
	SheetsAPIKey     string
	WooBaseURL       string
	WooConsumerKey   string
	WooSecret        string
	SnapshotKey      string
	SearchThreshold  float64
	SearchLimit      int
	LexiconFile      string
	AdminUserIDs     string
	AllowedUserIDs   string
}

// loadConfig loads configuration from environment variables.
func loadConfig() *Config {
	threshold := search.DefaultThreshold
	if v := os.Getenv("SEARCH_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			threshold = f
		}
	}
	limit := search.DefaultLimit
	if v := os.Getenv("SEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	return &Config{
		TelegramToken:    os.Getenv("TG_BOT_TOKEN"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		EmbeddingModel:   getEnvWithDefault("EMBEDDING_MODEL", embed.DefaultModel),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:  getEnvWithDefault("OPENROUTER_MODEL", llm.DefaultModel),
		RedisURL:         os.Getenv("REDIS_URL"),
		ProductSource:    getEnvWithDefault("PRODUCT_SOURCE", "sheets"),
		SheetID:          os.Getenv("GOOGLE_SHEET_ID"),
		SheetRange:       os.Getenv("GOOGLE_SHEET_RANGE"),
		SheetsAPIKey:     os.Getenv("GOOGLE_SHEETS_API_KEY"),
		WooBaseURL:       os.Getenv("WC_BASE_URL"),
		WooConsumerKey:   os.Getenv("WC_CONSUMER_KEY"),
		WooSecret:        os.Getenv("WC_CONSUMER_SECRET"),
		SnapshotKey:      getEnvWithDefault("CATALOG_KEY", search.DefaultSnapshotKey),
		SearchThreshold:  threshold,
		SearchLimit:      limit,
		LexiconFile:      os.Getenv("LEXICON_FILE"),
		AdminUserIDs:     os.Getenv("ADMIN_USER_IDS"),
		AllowedUserIDs:   os.Getenv("ALLOWED_USER_IDS"),
	}
}

// getEnvWithDefault gets an environment variable or returns a default value.
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// buildStore selects the snapshot store: Redis when configured, otherwise an
// in-process store that loses the catalog on restart.
func buildStore(config *Config) core.CatalogStore {
	if config.RedisURL == "" {
		logger.Warn("REDIS_URL not set, using in-memory catalog store (snapshots are lost on restart)")
		return store.NewMemoryStore()
	}
	s, err := store.NewRedisStoreFromURL(config.RedisURL, "")
	if err != nil {
		logger.Error("Failed to create Redis store: %v", err)
		os.Exit(1)
	}
	return s
}

// buildSource selects the product source from configuration.
func buildSource(config *Config) core.ProductSource {
	switch config.ProductSource {
	case "woocommerce":
		src, err := catalog.NewWooSource(catalog.WooConfig{
			BaseURL:        config.WooBaseURL,
			ConsumerKey:    config.WooConsumerKey,
			ConsumerSecret: config.WooSecret,
		})
		if err != nil {
			logger.Error("Failed to configure WooCommerce source: %v", err)
			os.Exit(1)
		}
		return src
	case "sheets":
		src, err := catalog.NewSheetsSource(catalog.SheetsConfig{
			SpreadsheetID: config.SheetID,
			Range:         config.SheetRange,
			APIKey:        config.SheetsAPIKey,
		})
		if err != nil {
			logger.Error("Failed to configure Sheets source: %v", err)
			os.Exit(1)
		}
		return src
	default:
		logger.Error("Unknown PRODUCT_SOURCE %q (expected \"sheets\" or \"woocommerce\")", config.ProductSource)
		os.Exit(1)
		return nil
	}
}

func main() {
	// Parse command line flags
	debug := flag.Bool("debug", false, "Enable debug logging")
	syncOnly := flag.Bool("sync", false, "Run one catalog sync and exit")
	lexiconFile := flag.String("lexicon", "", "Path to a YAML synonym lexicon file")
	flag.Parse()

	// Initialize logger
	logger.Init(*debug)

	logger.Info("Starting shop assistant...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Info("Warning: No .env file found or error loading it")
	}

	config := loadConfig()
	if *lexiconFile != "" {
		config.LexiconFile = *lexiconFile
	}

	if logger.IsDebugEnabled() {
		logger.Debug("Configuration loaded: TelegramToken=%v, Source=%s, Redis=%v, Model=%s, Threshold=%.2f",
			config.TelegramToken != "", config.ProductSource, config.RedisURL != "", config.OpenRouterModel, config.SearchThreshold)
	}

	// Validate required settings
	if config.OpenAIAPIKey == "" {
		logger.Error("OPENAI_API_KEY environment variable is required")
		os.Exit(1)
	}
	if !*syncOnly && config.TelegramToken == "" {
		logger.Error("TG_BOT_TOKEN environment variable is required")
		os.Exit(1)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Initializing services...")

	policyService := auth.NewPolicyService(config.AdminUserIDs, config.AllowedUserIDs)

	catalogStore := buildStore(config)
	productSource := buildSource(config)

	embedService, err := embed.NewOpenAIEmbedder(embed.Config{
		APIKey: config.OpenAIAPIKey,
		Model:  config.EmbeddingModel,
	})
	if err != nil {
		logger.Error("Failed to initialize embeddings client: %v", err)
		os.Exit(1)
	}

	lexicon := search.DefaultLexicon()
	if config.LexiconFile != "" {
		lexicon, err = search.LoadLexicon(config.LexiconFile)
		if err != nil {
			logger.Error("Failed to load lexicon from %s: %v", config.LexiconFile, err)
			os.Exit(1)
		}
		logger.Info("Lexicon loaded from %s", config.LexiconFile)
	}

	engine := search.NewEngine(catalogStore, embedService, lexicon, config.SnapshotKey, config.SearchThreshold)
	indexer := catalog.NewIndexer(productSource, embedService, catalogStore, config.SnapshotKey)

	var generator core.TextGenerator
	if config.OpenRouterAPIKey != "" {
		generator = llm.NewOpenRouterService(config.OpenRouterAPIKey, config.OpenRouterModel)
	} else {
		logger.Warn("OPENROUTER_API_KEY not set, replies will use deterministic fallbacks")
	}

	asst := assistant.NewAssistant(engine, indexer, assistant.NewComposer(generator), config.SearchLimit)

	if *syncOnly {
		res := asst.Sync(ctx)
		logger.Info("Sync finished: status=%s message=%q items=%d", res.Status, res.Message, res.ItemsCount)
		if res.Status == core.SyncStatusError {
			os.Exit(1)
		}
		return
	}

	// Warm the index so the first question doesn't pay the load cost.
	if err := engine.Reload(ctx); err != nil {
		logger.Warn("Catalog not loaded yet (%v); it will be loaded lazily or after /sync", err)
	} else {
		logger.Info("Catalog loaded: %d products", engine.ItemCount())
	}

	bot, err := telegram.NewBot(config.TelegramToken, asst, policyService)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot: %v", err)
		os.Exit(1)
	}

	logger.Info("Starting bot...")
	go bot.Start(ctx)

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("Shutting down...")
	cancel()

	logger.Info("Bot has been shut down")
}
