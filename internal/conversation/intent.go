package conversation

import (
	"context"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

// Intent is the coarse category routing retrieval.
type Intent string

const (
	IntentProduct Intent = "product"
	IntentService Intent = "service"
	IntentGeneral Intent = "general"
	IntentUnknown Intent = "unknown"
)

const classifyInstruction = "Classify the intent of the following message strictly into one of the three categories: 'product', 'service', or 'general'. Return only the category name."

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Classifier maps raw message text onto the fixed intent label set with a
// single zero-temperature completion call. Any upstream failure or
// unparseable label degrades to IntentUnknown; callers treat unknown as
// "no retrieval augmentation", never as a hard failure.
type Classifier struct {
	client  chatClient
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// NewClassifier returns an intent classifier. A nil client means the
// completion credential is missing; classification then always reports
// unknown.
func NewClassifier(client chatClient, model string, timeout time.Duration, logger *logging.Logger) *Classifier {
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Classifier{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// Classify returns one of product/service/general, or unknown.
func (c *Classifier) Classify(ctx context.Context, text string) Intent {
	if c.client == nil {
		c.logger.Error("intent classification skipped: completion API key not configured")
		return IntentUnknown
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifyInstruction},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens: 10,
		// A literal 0 is dropped by the field's omitempty tag and the
		// upstream would run at its default temperature. The smallest
		// positive value survives serialization and rounds to zero.
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		c.logger.Warn("intent classification failed", "error", err)
		return IntentUnknown
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("intent classification returned no choices")
		return IntentUnknown
	}
	return parseIntent(resp.Choices[0].Message.Content)
}

func parseIntent(label string) Intent {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.Trim(label, `'".`)
	switch Intent(label) {
	case IntentProduct, IntentService, IntentGeneral:
		return Intent(label)
	default:
		return IntentUnknown
	}
}
