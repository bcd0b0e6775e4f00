package leads

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

type stubChatClient struct {
	content string
	err     error

	lastRequest openai.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.lastRequest = req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

func newTestExtractor(client chatClient) *Extractor {
	return NewExtractor(client, "gpt-3.5-turbo", time.Second, logging.Default())
}

func TestExtractor_CompleteDraft(t *testing.T) {
	client := &stubChatClient{content: `{"client_name": "Sara Alami", "client_email": "sara@example.com", "pack_name": "Gold Pack"}`}
	e := newTestExtractor(client)

	draft, err := e.Extract(context.Background(), "My name is Sara Alami, sara@example.com, I want the Gold Pack")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !draft.Complete() {
		t.Fatalf("expected complete draft, got %+v", draft)
	}
	if *draft.ClientName != "Sara Alami" || *draft.ClientEmail != "sara@example.com" || *draft.PackName != "Gold Pack" {
		t.Errorf("draft = %+v", draft)
	}
	if client.lastRequest.Temperature > math.SmallestNonzeroFloat32 {
		t.Errorf("Temperature = %v, want effectively zero", client.lastRequest.Temperature)
	}
}

func TestExtractor_ZeroTemperatureReachesWire(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"client_name\": null, \"client_email\": null, \"pack_name\": null}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	client := openai.NewClientWithConfig(cfg)

	e := NewExtractor(client, "gpt-3.5-turbo", time.Second, logging.Default())
	if _, err := e.Extract(context.Background(), "hello"); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	raw, ok := body["temperature"]
	if !ok {
		t.Fatal("serialized request carries no temperature field")
	}
	temp, ok := raw.(float64)
	if !ok {
		t.Fatalf("temperature = %T, want number", raw)
	}
	if temp <= 0 || temp > 1e-6 {
		t.Errorf("temperature = %v, want a positive value indistinguishable from zero", temp)
	}
}

func TestExtractor_NullFieldsYieldPartialDraft(t *testing.T) {
	client := &stubChatClient{content: `{"client_name": "Sara", "client_email": null, "pack_name": null}`}
	e := newTestExtractor(client)

	draft, err := e.Extract(context.Background(), "my name is Sara")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if draft.Complete() {
		t.Fatal("draft with nulls must not be complete")
	}
	if draft.ClientName == nil || draft.ClientEmail != nil || draft.PackName != nil {
		t.Errorf("draft = %+v", draft)
	}
}

func TestExtractor_LiteralNullStringsDropped(t *testing.T) {
	client := &stubChatClient{content: `{"client_name": "null", "client_email": "NULL", "pack_name": " "}`}
	e := newTestExtractor(client)

	draft, err := e.Extract(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if draft.ClientName != nil || draft.ClientEmail != nil || draft.PackName != nil {
		t.Errorf("literal null strings must normalize to nil: %+v", draft)
	}
}

func TestExtractor_ProseResponseIsUnparseable(t *testing.T) {
	client := &stubChatClient{content: "Sure! The client's name seems to be Sara."}
	e := newTestExtractor(client)

	_, err := e.Extract(context.Background(), "hello")
	if !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
}

func TestExtractor_UnknownFieldIsUnparseable(t *testing.T) {
	client := &stubChatClient{content: `{"client_name": "Sara", "client_email": null, "pack_name": null, "phone": "123"}`}
	e := newTestExtractor(client)

	_, err := e.Extract(context.Background(), "hello")
	if !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
}

func TestExtractor_TrailingProseIsUnparseable(t *testing.T) {
	client := &stubChatClient{content: `{"client_name": null, "client_email": null, "pack_name": null} hope that helps!`}
	e := newTestExtractor(client)

	_, err := e.Extract(context.Background(), "hello")
	if !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
}

func TestExtractor_UpstreamErrorPropagates(t *testing.T) {
	client := &stubChatClient{err: errors.New("boom")}
	e := newTestExtractor(client)

	_, err := e.Extract(context.Background(), "hello")
	if err == nil || errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestExtractor_NilClient(t *testing.T) {
	e := NewExtractor(nil, "", 0, logging.Default())
	if _, err := e.Extract(context.Background(), "hello"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
