package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/knowledge"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/leads"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/internal/observability/metrics"
	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

var pipelineTracer = otel.Tracer("chatbot.internal.conversation.pipeline")

type intentClassifier interface {
	Classify(ctx context.Context, text string) Intent
}

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type retriever interface {
	Route(ctx context.Context, intent string, embedding []float32, tenantID int64) ([]knowledge.Item, error)
}

type generator interface {
	Complete(ctx context.Context, messages []ChatMessage) (Completion, error)
}

type leadExtractor interface {
	Extract(ctx context.Context, text string) (leads.Draft, error)
}

type orderSink interface {
	Commit(ctx context.Context, draft leads.Draft) (*leads.Order, error)
}

// Pipeline orchestrates one inbound message end to end: classify, embed,
// retrieve, assemble, generate, persist both turns, then extract lead data
// in the background. Every stage before generation degrades to an
// unaugmented call instead of failing the conversation; only a generation
// failure surfaces to the channel layer, which then sends nothing.
type Pipeline struct {
	store      Store
	classifier intentClassifier
	embedder   embedder
	retriever  retriever
	generator  generator
	extractor  leadExtractor
	sink       orderSink

	systemDirective string
	logger          *logging.Logger
	metrics         *metrics.PipelineMetrics

	// background tracks in-flight extraction work so shutdown and tests
	// can wait for it.
	background sync.WaitGroup
}

// PipelineConfig wires the pipeline's collaborators.
type PipelineConfig struct {
	Store           Store
	Classifier      intentClassifier
	Embedder        embedder
	Retriever       retriever
	Generator       generator
	Extractor       leadExtractor
	Sink            orderSink
	SystemDirective string
	Logger          *logging.Logger
	Metrics         *metrics.PipelineMetrics
}

// NewPipeline validates and assembles the orchestrator.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Store == nil {
		panic("conversation: store required")
	}
	if cfg.Classifier == nil {
		panic("conversation: classifier required")
	}
	if cfg.Generator == nil {
		panic("conversation: generator required")
	}
	if cfg.SystemDirective == "" {
		cfg.SystemDirective = DefaultSystemDirective
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Pipeline{
		store:           cfg.Store,
		classifier:      cfg.Classifier,
		embedder:        cfg.Embedder,
		retriever:       cfg.Retriever,
		generator:       cfg.Generator,
		extractor:       cfg.Extractor,
		sink:            cfg.Sink,
		systemDirective: cfg.SystemDirective,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
	}
}

// ProcessMessage handles one inbound message. On success the reply has
// been generated and both turns persisted; lead extraction continues in
// the background on a detached context so a caller timeout cannot abandon
// a partially-committed lead.
func (p *Pipeline) ProcessMessage(ctx context.Context, req InboundRequest) (*Reply, error) {
	ctx, span := pipelineTracer.Start(ctx, "pipeline.process_message")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("chatbot.tenant_id", req.TenantID),
		attribute.String("chatbot.client", logging.MaskPhone(req.ClientPhone)),
	)

	p.logger.Info("processing inbound message",
		"tenant_id", req.TenantID,
		"client", logging.MaskPhone(req.ClientPhone),
		"message_length", len(req.Text),
	)

	intent := p.classifyStage(ctx, req.Text)
	contextBlock := p.retrieveStage(ctx, intent, req)

	history := p.store.Get(ctx, req.TenantID, req.ClientPhone)
	messages := Assemble(p.systemDirective, contextBlock, req.Text, history)

	start := time.Now()
	completion, err := p.generator.Complete(ctx, messages)
	p.metrics.ObserveStage("generate", time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		p.metrics.ObserveMessage("generation_failed")
		p.logger.Error("generation failed, no reply will be sent",
			"tenant_id", req.TenantID,
			"client", logging.MaskPhone(req.ClientPhone),
			"error", err,
		)
		return nil, err
	}

	// Persist the annotated user turn and the assistant turn. A storage
	// failure is logged and the reply still goes out; the thread self-heals
	// on the next append.
	userEntry := ChatMessage{Role: ChatRoleUser, Content: AnnotateUserMessage(req.Text, contextBlock)}
	if err := p.store.Append(ctx, req.TenantID, req.ClientPhone, userEntry); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to persist user turn", "error", err)
	}
	assistantEntry := ChatMessage{Role: ChatRoleAssistant, Content: completion.Text}
	if err := p.store.Append(ctx, req.TenantID, req.ClientPhone, assistantEntry); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to persist assistant turn", "error", err)
	}

	// Fire-and-continue: extraction and order creation must survive the
	// inbound caller going away.
	p.captureLeads(context.WithoutCancel(ctx), req, completion.Text)

	p.metrics.ObserveMessage("ok")
	return &Reply{Text: completion.Text, TotalTokens: completion.TotalTokens}, nil
}

func (p *Pipeline) classifyStage(ctx context.Context, text string) Intent {
	start := time.Now()
	intent := p.classifier.Classify(ctx, text)
	p.metrics.ObserveStage("classify", time.Since(start).Seconds())
	p.logger.Debug("classified intent", "intent", string(intent))
	return intent
}

// retrieveStage computes the embedding and routes it to the tenant's
// corpus. Any failure along the way returns an empty context block.
func (p *Pipeline) retrieveStage(ctx context.Context, intent Intent, req InboundRequest) string {
	if p.embedder == nil || p.retriever == nil || intent == IntentUnknown {
		return ""
	}

	start := time.Now()
	embedding, err := p.embedder.Embed(ctx, req.Text)
	p.metrics.ObserveStage("embed", time.Since(start).Seconds())
	if err != nil {
		p.logger.Warn("embedding unavailable, skipping retrieval", "error", err)
		return ""
	}

	start = time.Now()
	items, err := p.retriever.Route(ctx, string(intent), embedding, req.TenantID)
	p.metrics.ObserveStage("retrieve", time.Since(start).Seconds())
	if err != nil {
		p.logger.Warn("retrieval failed, continuing without context",
			"intent", string(intent),
			"tenant_id", req.TenantID,
			"error", err,
		)
		return ""
	}
	if len(items) > 0 {
		p.logger.Info("retrieved knowledge context",
			"intent", string(intent),
			"items", len(items),
		)
	}
	return knowledge.RenderContext(items)
}

// captureLeads runs extraction over both sides of the exchange. The two
// calls have no data dependency and run concurrently.
func (p *Pipeline) captureLeads(ctx context.Context, req InboundRequest, assistantText string) {
	if p.extractor == nil || p.sink == nil {
		return
	}
	for _, text := range []string{req.Text, assistantText} {
		text := text
		p.background.Add(1)
		go func() {
			defer p.background.Done()
			p.captureLead(ctx, req, text)
		}()
	}
}

func (p *Pipeline) captureLead(ctx context.Context, req InboundRequest, text string) {
	draft, err := p.extractor.Extract(ctx, text)
	if err != nil {
		if errors.Is(err, leads.ErrUnparseable) {
			p.metrics.ObserveExtraction("unparseable")
		} else {
			p.metrics.ObserveExtraction("failed")
		}
		p.logger.Warn("lead extraction failed, draft discarded",
			"tenant_id", req.TenantID,
			"client", logging.MaskPhone(req.ClientPhone),
			"error", err,
		)
		return
	}
	p.metrics.ObserveExtraction("ok")

	draft.TenantID = req.TenantID
	draft.ClientPhone = req.ClientPhone
	if !draft.Complete() {
		p.logger.Debug("lead draft incomplete, no order created",
			"has_name", draft.ClientName != nil,
			"has_email", draft.ClientEmail != nil,
			"has_pack", draft.PackName != nil,
		)
		return
	}

	order, err := p.sink.Commit(ctx, draft)
	if err != nil {
		p.metrics.ObserveOrder("failed")
		p.logger.Error("order creation failed",
			"tenant_id", req.TenantID,
			"client", logging.MaskPhone(req.ClientPhone),
			"error", err,
		)
		return
	}
	p.metrics.ObserveOrder("created")
	p.logger.Info("lead materialized into order",
		"order_id", order.ID,
		"tenant_id", order.TenantID,
	)
}

// Wait blocks until background lead capture has drained. Called on
// shutdown so in-flight orders finish before the process exits.
func (p *Pipeline) Wait() {
	p.background.Wait()
}
