package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/conversation"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/tenancy"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

// processor is the core pipeline boundary: the webhook layer hands it a
// well-formed (tenant, client, text) triple and delivers the reply.
type processor interface {
	ProcessMessage(ctx context.Context, req conversation.InboundRequest) (*conversation.Reply, error)
}

type tenantResolver interface {
	ResolveByPhoneNumberID(ctx context.Context, phoneNumberID string) (*tenancy.Tenant, error)
}

type sender interface {
	SendText(ctx context.Context, token, phoneNumberID, to, body string) error
}

// Handler terminates the WhatsApp Cloud API webhook: the GET verification
// handshake and the nested POST notification payload, parsed once into a
// typed message before the core ever sees it.
type Handler struct {
	verifyToken string
	tenants     tenantResolver
	pipeline    processor
	sender      sender
	logger      *logging.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(verifyToken string, tenants tenantResolver, pipeline processor, sender sender, logger *logging.Logger) *Handler {
	if tenants == nil {
		panic("whatsapp: tenant resolver required")
	}
	if pipeline == nil {
		panic("whatsapp: pipeline required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		verifyToken: verifyToken,
		tenants:     tenants,
		pipeline:    pipeline,
		sender:      sender,
		logger:      logger,
	}
}

// Verify answers the hub challenge Meta sends when the webhook is
// registered.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" || token != h.verifyToken {
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// webhookPayload mirrors the slice of the Cloud API notification shape we
// consume. Everything else in the payload is ignored.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// InboundMessage is the typed, validated representation handed to the
// pipeline.
type InboundMessage struct {
	PhoneNumberID string
	From          string
	Text          string
}

// parseInbound flattens the nested notification into text messages. Status
// updates and media arrive on the same hook and are skipped.
func parseInbound(payload webhookPayload) []InboundMessage {
	var out []InboundMessage
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			phoneNumberID := change.Value.Metadata.PhoneNumberID
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || strings.TrimSpace(msg.Text.Body) == "" {
					continue
				}
				out = append(out, InboundMessage{
					PhoneNumberID: phoneNumberID,
					From:          msg.From,
					Text:          msg.Text.Body,
				})
			}
		}
	}
	return out
}

// Receive handles a webhook notification. A generation failure yields a
// 502 so the provider's own retry policy can take over; every failure
// before the reply results in silence toward the end user, never an error
// echoed to them.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Warn("rejecting malformed webhook body", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "invalid payload"})
		return
	}

	messages := parseInbound(payload)
	if len(messages) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	for _, msg := range messages {
		if err := h.handleMessage(r.Context(), msg); err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"status": "failed"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) handleMessage(ctx context.Context, msg InboundMessage) error {
	tenant, err := h.tenants.ResolveByPhoneNumberID(ctx, msg.PhoneNumberID)
	if err != nil {
		h.logger.Error("cannot resolve tenant for inbound message",
			"phone_number_id", msg.PhoneNumberID,
			"error", err,
		)
		return err
	}

	reply, err := h.pipeline.ProcessMessage(ctx, conversation.InboundRequest{
		TenantID:    tenant.ID,
		ClientPhone: msg.From,
		Text:        msg.Text,
	})
	if err != nil {
		return err
	}

	if h.sender == nil {
		return nil
	}
	if err := h.sender.SendText(ctx, tenant.WhatsAppToken, tenant.PhoneNumberID, msg.From, reply.Text); err != nil {
		h.logger.Error("outbound delivery failed",
			"tenant_id", tenant.ID,
			"client", logging.MaskPhone(msg.From),
			"error", err,
		)
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
