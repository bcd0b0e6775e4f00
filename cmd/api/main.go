package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/api/router"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/channels/telegram"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/channels/whatsapp"
	appconfig "github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/config"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/conversation"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/knowledge"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/leads"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/observability/metrics"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/tenancy"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting sales-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// The conversation store falls back to an in-process map when Redis
	// is unreachable at startup. Fine for a single instance; threads do
	// not survive a restart.
	store := buildConversationStore(ctx, cfg, logger)

	var chatClient *openai.Client
	if cfg.OpenAIAPIKey != "" {
		chatClient = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		logger.Error("OPEN_AI_API_KEY not set; completion and embedding calls will fail fast with a configuration error")
	}

	pipelineMetrics := metrics.NewPipelineMetrics(nil)

	knowledgeRepo := knowledge.NewRepository(pool)
	retrievalRouter := knowledge.NewRouter(knowledgeRepo, cfg.RetrievalTopK, logger)

	leadsRepo := leads.NewPostgresRepository(pool)
	orderSink := leads.NewOrderSink(leadsRepo, cfg.OrderDedupWindow, logger)

	var classifier *conversation.Classifier
	var generator *conversation.Generator
	var embedderClient *knowledge.Embedder
	var extractor *leads.Extractor
	if chatClient != nil {
		classifier = conversation.NewClassifier(chatClient, cfg.ChatModel, cfg.LLMTimeout, logger)
		generator = conversation.NewGenerator(chatClient, cfg.ChatModel, cfg.LLMTimeout, logger)
		embedderClient = knowledge.NewEmbedder(chatClient, cfg.EmbeddingModel, cfg.LLMTimeout, logger)
		extractor = leads.NewExtractor(chatClient, cfg.ChatModel, cfg.LLMTimeout, logger)
	} else {
		classifier = conversation.NewClassifier(nil, cfg.ChatModel, cfg.LLMTimeout, logger)
		generator = conversation.NewGenerator(nil, cfg.ChatModel, cfg.LLMTimeout, logger)
		embedderClient = knowledge.NewEmbedder(nil, cfg.EmbeddingModel, cfg.LLMTimeout, logger)
		extractor = leads.NewExtractor(nil, cfg.ChatModel, cfg.LLMTimeout, logger)
	}

	pipeline := conversation.NewPipeline(conversation.PipelineConfig{
		Store:      store,
		Classifier: classifier,
		Embedder:   embedderClient,
		Retriever:  retrievalRouter,
		Generator:  generator,
		Extractor:  extractor,
		Sink:       orderSink,
		Logger:     logger,
		Metrics:    pipelineMetrics,
	})

	tenants := tenancy.NewResolver(pool)
	whatsappHandler := whatsapp.NewHandler(
		cfg.WhatsAppVerifyToken,
		tenants,
		pipeline,
		whatsapp.NewClient(nil, ""),
		logger,
	)
	telegramHandler := telegram.NewHandler(
		tenants,
		pipeline,
		telegram.NewClient(nil, "", cfg.TelegramBotToken),
		logger,
	)

	r := router.New(&router.Config{
		Logger:          logger,
		WhatsAppWebhook: whatsappHandler,
		TelegramWebhook: telegramHandler,
		MetricsHandler:  promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// Let in-flight lead extraction and order creation drain before exit.
	pipeline.Wait()
	logger.Info("server stopped")
}

func buildConversationStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) conversation.Store {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, falling back to in-process conversation store",
			"addr", cfg.RedisAddr,
			"error", err,
		)
		return conversation.NewMemoryStore(cfg.ConversationMaxLength, cfg.ConversationExpiry)
	}

	return conversation.NewRedisStore(client, cfg.RedisKeyPrefix, cfg.ConversationMaxLength, cfg.ConversationExpiry, logger)
}
