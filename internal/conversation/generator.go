package conversation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

// FailureKind distinguishes how a completion call went wrong. Config
// failures short-circuit before any network round trip and must be
// tellable apart from transient transport errors in logs.
type FailureKind string

const (
	FailureConfig     FailureKind = "config"
	FailureConnection FailureKind = "connection"
	FailureTimeout    FailureKind = "timeout"
	FailureHTTP       FailureKind = "http_error"
	FailureCanceled   FailureKind = "canceled"
	FailureUnexpected FailureKind = "unexpected"
)

// Failure is the typed outcome of an unsuccessful upstream call.
type Failure struct {
	Kind   FailureKind
	Status int
	Code   string
	Err    error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailureConfig:
		return "conversation: completion API key not configured"
	case FailureHTTP:
		return fmt.Sprintf("conversation: upstream returned %d (%s): %v", f.Status, f.Code, f.Err)
	default:
		return fmt.Sprintf("conversation: %s failure: %v", f.Kind, f.Err)
	}
}

func (f *Failure) Unwrap() error { return f.Err }

// AsFailure extracts the typed failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Generator is the stateless wrapper around the completion call. It holds
// no conversation state; callers persist the resulting turn. No retries
// happen at this layer.
type Generator struct {
	client  chatClient
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// NewGenerator returns a completion wrapper. A nil client marks the
// credential as missing and every call fails fast with FailureConfig.
func NewGenerator(client chatClient, model string, timeout time.Duration, logger *logging.Logger) *Generator {
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Generator{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// Complete runs one generation call over the assembled message sequence.
func (g *Generator) Complete(ctx context.Context, messages []ChatMessage) (Completion, error) {
	if g.client == nil {
		return Completion{}, &Failure{Kind: FailureConfig}
	}

	req := openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(callCtx, req)
	if err != nil {
		return Completion{}, classifyFailure(err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, &Failure{Kind: FailureUnexpected, Err: errors.New("upstream returned no choices")}
	}

	return Completion{
		Text:        strings.TrimSpace(resp.Choices[0].Message.Content),
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}

func classifyFailure(err error) *Failure {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if s, ok := apiErr.Code.(string); ok {
			code = s
		}
		return &Failure{Kind: FailureHTTP, Status: apiErr.HTTPStatusCode, Code: code, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: FailureTimeout, Err: err}
	}
	// Caller-side cancellation, checked before the net.Error branches
	// because the transport wraps it in a *url.Error.
	if errors.Is(err, context.Canceled) {
		return &Failure{Kind: FailureCanceled, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Failure{Kind: FailureTimeout, Err: err}
		}
		return &Failure{Kind: FailureConnection, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Failure{Kind: FailureConnection, Err: err}
	}

	return &Failure{Kind: FailureUnexpected, Err: err}
}
