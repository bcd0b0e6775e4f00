package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/channels/telegram"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/channels/whatsapp"
	httpmiddleware "github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/http/middleware"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	WhatsAppWebhook *whatsapp.Handler
	TelegramWebhook *telegram.Handler
	MetricsHandler  http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	if cfg.WhatsAppWebhook != nil {
		r.Get("/webhook", cfg.WhatsAppWebhook.Verify)
		r.Post("/webhook", cfg.WhatsAppWebhook.Receive)
	}
	if cfg.TelegramWebhook != nil {
		r.Post("/telegram-webhook/{tenantID}", cfg.TelegramWebhook.Receive)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
