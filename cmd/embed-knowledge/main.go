// Command embed-knowledge backfills pgvector embeddings for the knowledge
// corpora. Run it after seeding products, services, or tenant profiles, or
// with -all after switching embedding models.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	appconfig "github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/config"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/knowledge"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

func main() {
	all := flag.Bool("all", false, "re-embed every row, not just rows missing an embedding")
	flag.Parse()

	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPEN_AI_API_KEY is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("create pgx pool: %v", err)
	}
	defer pool.Close()

	repo := knowledge.NewRepository(pool)
	embedder := knowledge.NewEmbedder(openai.NewClient(cfg.OpenAIAPIKey), cfg.EmbeddingModel, cfg.LLMTimeout, logger)

	rows, err := repo.ListMissingEmbeddings(ctx, *all)
	if err != nil {
		log.Fatalf("list rows: %v", err)
	}
	if len(rows) == 0 {
		logger.Info("nothing to embed")
		return
	}
	logger.Info("embedding rows", "count", len(rows), "all", *all)

	failed := 0
	for _, row := range rows {
		vec, err := embedder.Embed(ctx, row.Text)
		if err != nil {
			logger.Error("embedding failed", "table", row.Table, "id", row.ID, "error", err)
			failed++
			continue
		}
		if err := repo.UpdateEmbedding(ctx, row.Table, row.ID, vec); err != nil {
			logger.Error("update failed", "table", row.Table, "id", row.ID, "error", err)
			failed++
			continue
		}
		// Stay under the embeddings rate limit on large backfills.
		time.Sleep(100 * time.Millisecond)
	}

	logger.Info("embedding backfill done", "total", len(rows), "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
