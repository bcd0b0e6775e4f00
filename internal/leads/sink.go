package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

// OrderSink turns a complete draft into a persisted order, at most once.
// Two concurrent complete drafts for the same client and pack cannot both
// materialize: a second commit inside the dedup window returns the row the
// first one created.
type OrderSink struct {
	repo        Repository
	dedupWindow time.Duration
	logger      *logging.Logger
	now         func() time.Time
}

// NewOrderSink creates an order sink over the given repository.
func NewOrderSink(repo Repository, dedupWindow time.Duration, logger *logging.Logger) *OrderSink {
	if repo == nil {
		panic("leads: repository required")
	}
	if dedupWindow <= 0 {
		dedupWindow = 24 * time.Hour
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OrderSink{
		repo:        repo,
		dedupWindow: dedupWindow,
		logger:      logger,
		now:         time.Now,
	}
}

// Commit persists the draft as an order. Preconditions: the draft carries
// all three extracted fields and the phone resolves to a known client.
// Failures are reported to the caller and never reach the reply path —
// the reply has already been sent by the time extraction runs.
func (s *OrderSink) Commit(ctx context.Context, draft Draft) (*Order, error) {
	if !draft.Complete() {
		return nil, ErrIncompleteDraft
	}

	clientID := draft.ClientID
	if clientID == 0 {
		resolved, err := s.repo.ResolveClientID(ctx, draft.TenantID, draft.ClientPhone)
		if err != nil {
			return nil, fmt.Errorf("leads: cannot resolve client for draft: %w", err)
		}
		clientID = resolved
	}

	existing, err := s.repo.FindRecentOrder(ctx, clientID, *draft.PackName, s.now().Add(-s.dedupWindow))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("duplicate order suppressed",
			"client_id", clientID,
			"pack_name", *draft.PackName,
			"order_id", existing.ID,
		)
		return existing, nil
	}

	order := &Order{
		PackName:    *draft.PackName,
		ClientName:  *draft.ClientName,
		ClientEmail: *draft.ClientEmail,
		ClientPhone: draft.ClientPhone,
		ClientID:    clientID,
		TenantID:    draft.TenantID,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order created from lead extraction",
		"order_id", order.ID,
		"tenant_id", order.TenantID,
		"client_id", order.ClientID,
		"pack_name", order.PackName,
	)
	return order, nil
}
