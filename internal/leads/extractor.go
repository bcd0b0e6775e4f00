package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

const extractInstruction = `Extract the following information from the message if present:
1. Client's full name
2. Client's email address
3. Selected pack/service name (this is the specific product or service the client wants to purchase)

the phone number is already provided, so you don't need to ask for it or extract it.

Look for explicit mentions like:
- "My name is [Name]" or "I am [Name]"
- Email addresses that follow standard format
- "I want the [Pack Name]" or "I'd like to purchase [Service]"

Respond ONLY with a JSON object in this exact format:
{"client_name": "extracted name or null", "client_email": "extracted email or null", "pack_name": "extracted pack or null"}

If information is not found, use null for that field. DO NOT explain or add any other text.`

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Extractor runs the schema-constrained completion call that pulls a lead
// draft out of arbitrary conversation text. It is invoked over the user's
// message and the assistant's reply independently; either side may carry
// the offer interest.
type Extractor struct {
	client  chatClient
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// NewExtractor returns a lead extractor. A nil client marks the
// credential as missing and every call fails fast with ErrMissingAPIKey.
func NewExtractor(client chatClient, model string, timeout time.Duration, logger *logging.Logger) *Extractor {
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// Extract returns the draft pulled from text. A response that is not the
// strict three-field object yields an ErrUnparseable-wrapped error; the
// caller logs it and moves on.
func (e *Extractor) Extract(ctx context.Context, text string) (Draft, error) {
	if e.client == nil {
		return Draft{}, ErrMissingAPIKey
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractInstruction},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		// A literal 0 is dropped by the field's omitempty tag and the
		// upstream would run at its default temperature. The smallest
		// positive value survives serialization and rounds to zero.
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return Draft{}, fmt.Errorf("leads: extraction call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Draft{}, fmt.Errorf("%w: upstream returned no choices", ErrUnparseable)
	}

	return parseDraft(resp.Choices[0].Message.Content)
}

// parseDraft decodes the strict response contract: exactly the keys
// client_name, client_email, pack_name, each a string or null, no prose.
func parseDraft(raw string) (Draft, error) {
	raw = strings.TrimSpace(raw)

	var draft Draft
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&draft); err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if dec.More() {
		return Draft{}, fmt.Errorf("%w: trailing content after object", ErrUnparseable)
	}

	// Models occasionally emit the literal string "null" instead of null.
	draft.ClientName = dropLiteralNull(draft.ClientName)
	draft.ClientEmail = dropLiteralNull(draft.ClientEmail)
	draft.PackName = dropLiteralNull(draft.PackName)
	return draft, nil
}

func dropLiteralNull(s *string) *string {
	if s == nil {
		return nil
	}
	if trimmed := strings.TrimSpace(*s); trimmed == "" || strings.EqualFold(trimmed, "null") {
		return nil
	}
	return s
}
