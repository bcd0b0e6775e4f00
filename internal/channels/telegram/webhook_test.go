package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/conversation"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/tenancy"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

type fakeResolver struct {
	tenant *tenancy.Tenant
	err    error
}

func (f *fakeResolver) ResolveByID(_ context.Context, id int64) (*tenancy.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.tenant != nil {
		return f.tenant, nil
	}
	return &tenancy.Tenant{ID: id}, nil
}

type fakeProcessor struct {
	reply    *conversation.Reply
	err      error
	requests []conversation.InboundRequest
}

func (f *fakeProcessor) ProcessMessage(_ context.Context, req conversation.InboundRequest) (*conversation.Reply, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

type fakeSender struct {
	sends []string
	err   error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string) error {
	f.sends = append(f.sends, text)
	return f.err
}

func serveUpdate(h *Handler, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Post("/telegram-webhook/{tenantID}", h.Receive)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ReceiveProcessesUpdate(t *testing.T) {
	processor := &fakeProcessor{reply: &conversation.Reply{Text: "We have the Gold Pack."}}
	snd := &fakeSender{}
	h := NewHandler(&fakeResolver{}, processor, snd, logging.Default())

	body := `{"message": {"chat": {"id": 987654}, "from": {"id": 987654}, "text": "do you have packs?"}}`
	rec := serveUpdate(h, "/telegram-webhook/7", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(processor.requests) != 1 {
		t.Fatalf("expected 1 pipeline call, got %d", len(processor.requests))
	}
	got := processor.requests[0]
	if got.TenantID != 7 || got.ClientPhone != "987654" || got.Text != "do you have packs?" {
		t.Errorf("inbound request = %+v", got)
	}
	if len(snd.sends) != 1 || snd.sends[0] != "We have the Gold Pack." {
		t.Errorf("sends = %v", snd.sends)
	}
}

func TestHandler_ReceiveRejectsBadTenant(t *testing.T) {
	h := NewHandler(&fakeResolver{}, &fakeProcessor{}, nil, logging.Default())
	rec := serveUpdate(h, "/telegram-webhook/abc", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandler_ReceiveRejectsUnknownTenant(t *testing.T) {
	processor := &fakeProcessor{}
	h := NewHandler(&fakeResolver{err: tenancy.ErrTenantNotFound}, processor, nil, logging.Default())

	rec := serveUpdate(h, "/telegram-webhook/999", `{"message": {"chat": {"id": 987654}, "text": "hi"}}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if len(processor.requests) != 0 {
		t.Errorf("pipeline should not run for unknown tenant, got %d", len(processor.requests))
	}
}

func TestHandler_ReceiveIgnoresEmptyText(t *testing.T) {
	processor := &fakeProcessor{}
	h := NewHandler(&fakeResolver{}, processor, nil, logging.Default())

	rec := serveUpdate(h, "/telegram-webhook/7", `{"message": {"chat": {"id": 987654}, "text": "  "}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(processor.requests) != 0 {
		t.Errorf("pipeline should not run for empty text, got %d", len(processor.requests))
	}
}

func TestHandler_GenerationFailureYields502(t *testing.T) {
	processor := &fakeProcessor{err: &conversation.Failure{Kind: conversation.FailureConfig}}
	snd := &fakeSender{}
	h := NewHandler(&fakeResolver{}, processor, snd, logging.Default())

	rec := serveUpdate(h, "/telegram-webhook/7", `{"message": {"chat": {"id": 987654}, "text": "hi"}}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if len(snd.sends) != 0 {
		t.Errorf("nothing should be sent on failure, got %v", snd.sends)
	}
}
