package knowledge

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, request openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Embedder converts text into the fixed-dimension vector used for
// similarity search.
type Embedder struct {
	client  embeddingClient
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// NewEmbedder returns an embedding call wrapper. A nil client marks the
// credential as missing and every call fails fast.
func NewEmbedder(client embeddingClient, model string, timeout time.Duration, logger *logging.Logger) *Embedder {
	if model == "" {
		model = "text-embedding-ada-002"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Embedder{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// Embed returns the vector for one text, or an error the caller treats as
// "retrieval unavailable" rather than fatal.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.client == nil {
		return nil, fmt.Errorf("knowledge: embedding API key not configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(callCtx, &openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge: embedding call failed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("knowledge: embedding response carried no vector")
	}
	return resp.Data[0].Embedding, nil
}
