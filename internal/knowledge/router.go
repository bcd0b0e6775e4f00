package knowledge

import (
	"context"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

// searcher is the corpus query surface the router dispatches over.
type searcher interface {
	SearchProducts(ctx context.Context, tenantID int64, embedding []float32, topK int) ([]Item, error)
	SearchServices(ctx context.Context, tenantID int64, embedding []float32, topK int) ([]Item, error)
	SearchTenantProfiles(ctx context.Context, tenantID int64, embedding []float32, topK int) ([]Item, error)
}

// Router selects the corpus for an intent label and returns ranked
// matches. Retrieval is best-effort: a missing embedding, an absent
// tenant, or an unrecognized label yields an empty result, never an error
// that would stall generation.
type Router struct {
	repo   searcher
	topK   int
	logger *logging.Logger
}

// NewRouter creates a retrieval router over the given corpus repository.
func NewRouter(repo searcher, topK int, logger *logging.Logger) *Router {
	if repo == nil {
		panic("knowledge: corpus repository required")
	}
	if topK <= 0 {
		topK = 3
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Router{repo: repo, topK: topK, logger: logger}
}

// Route dispatches on the intent label: product and service hit their own
// corpora, general hits the tenant profile, anything else returns empty.
func (r *Router) Route(ctx context.Context, intent string, embedding []float32, tenantID int64) ([]Item, error) {
	if len(embedding) == 0 || tenantID == 0 {
		return nil, nil
	}

	switch intent {
	case "product":
		return r.repo.SearchProducts(ctx, tenantID, embedding, r.topK)
	case "service":
		return r.repo.SearchServices(ctx, tenantID, embedding, r.topK)
	case "general":
		return r.repo.SearchTenantProfiles(ctx, tenantID, embedding, r.topK)
	default:
		return nil, nil
	}
}
