package conversation

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is a single entry in a conversation thread. Entries are
// immutable once created; the stored JSON shape is the wire shape the
// completion upstream consumes.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the outcome of a successful generation call.
type Completion struct {
	Text        string
	TotalTokens int
}

// InboundRequest is the well-formed triple the core pipeline operates on.
// Channel-specific webhook parsing produces it at the system boundary.
type InboundRequest struct {
	TenantID    int64
	ClientPhone string
	Text        string
}

// Reply is returned to the channel layer for outbound delivery.
type Reply struct {
	Text        string
	TotalTokens int
}

// Store is the bounded per-(tenant, client) conversation log.
//
// Get never fails its caller: a backing-store error is logged and treated
// as an empty thread. Append serializes concurrent writers on the same key
// so no entry is silently lost.
type Store interface {
	Get(ctx context.Context, tenantID int64, clientID string) []ChatMessage
	Append(ctx context.Context, tenantID int64, clientID string, msg ChatMessage) error
}
