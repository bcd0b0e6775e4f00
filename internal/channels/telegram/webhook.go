package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/conversation"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/tenancy"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

type processor interface {
	ProcessMessage(ctx context.Context, req conversation.InboundRequest) (*conversation.Reply, error)
}

type tenantResolver interface {
	ResolveByID(ctx context.Context, id int64) (*tenancy.Tenant, error)
}

type sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Handler terminates the Telegram bot webhook. The tenant rides in the
// route path since Telegram carries no per-business identifier of its own;
// the ID is checked against the tenants table before any processing.
type Handler struct {
	tenants  tenantResolver
	pipeline processor
	sender   sender
	logger   *logging.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(tenants tenantResolver, pipeline processor, sender sender, logger *logging.Logger) *Handler {
	if tenants == nil {
		panic("telegram: tenant resolver required")
	}
	if pipeline == nil {
		panic("telegram: pipeline required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{tenants: tenants, pipeline: pipeline, sender: sender, logger: logger}
}

// update mirrors the slice of the Bot API update shape we consume.
type update struct {
	Message struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Text string `json:"text"`
	} `json:"message"`
}

// Receive handles one update for the tenant named in the route.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil || tenantID <= 0 {
		http.Error(w, "invalid tenant", http.StatusBadRequest)
		return
	}
	tenant, err := h.tenants.ResolveByID(r.Context(), tenantID)
	if err != nil {
		h.logger.Warn("rejecting update for unknown tenant", "tenant_id", tenantID, "error", err)
		http.Error(w, "unknown tenant", http.StatusNotFound)
		return
	}

	var upd update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.logger.Warn("rejecting malformed telegram update", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if upd.Message.Chat.ID == 0 || strings.TrimSpace(upd.Message.Text) == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	reply, err := h.pipeline.ProcessMessage(r.Context(), conversation.InboundRequest{
		TenantID:    tenant.ID,
		ClientPhone: strconv.FormatInt(upd.Message.Chat.ID, 10),
		Text:        upd.Message.Text,
	})
	if err != nil {
		http.Error(w, "processing failed", http.StatusBadGateway)
		return
	}

	if h.sender != nil {
		if err := h.sender.SendMessage(r.Context(), upd.Message.Chat.ID, reply.Text); err != nil {
			h.logger.Error("outbound telegram delivery failed",
				"tenant_id", tenantID,
				"chat_id", upd.Message.Chat.ID,
				"error", err,
			)
			http.Error(w, "delivery failed", http.StatusBadGateway)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
