package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

const (
	// DefaultMaxLength bounds a thread; older entries are dropped first.
	DefaultMaxLength = 50
	// DefaultExpiry is how long an idle thread survives before it reads
	// as empty.
	DefaultExpiry = 24 * time.Hour

	storeLockStripes = 64
)

// threadKey derives the deterministic Redis key for a thread. Client
// identifiers are normalized first so "+212 6-12..." and "212612..." land
// on the same thread.
func threadKey(prefix string, tenantID int64, clientID string) string {
	return fmt.Sprintf("%s:conversation:%d:%s", prefix, tenantID, normalizeClientID(clientID))
}

func normalizeClientID(clientID string) string {
	replacer := strings.NewReplacer("+", "", " ", "", "-", "")
	return replacer.Replace(strings.TrimSpace(clientID))
}

// RedisStore keeps threads as JSON arrays in Redis with a rolling TTL.
//
// Append is a read-modify-write; writers for the same key are serialized
// through striped in-process locks so a rapid double-send cannot drop a
// message. Different keys proceed in parallel.
type RedisStore struct {
	client    *redis.Client
	prefix    string
	maxLength int
	expiry    time.Duration
	logger    *logging.Logger
	tracer    trace.Tracer

	locks [storeLockStripes]sync.Mutex
}

// NewRedisStore creates the durable store implementation.
func NewRedisStore(client *redis.Client, prefix string, maxLength int, expiry time.Duration, logger *logging.Logger) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if prefix == "" {
		prefix = "app"
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{
		client:    client,
		prefix:    prefix,
		maxLength: maxLength,
		expiry:    expiry,
		logger:    logger,
		tracer:    otel.Tracer("chatbot.internal.conversation.store"),
	}
}

func (s *RedisStore) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &s.locks[h.Sum32()%storeLockStripes]
}

// Get returns the current thread, or an empty one when the key is absent,
// expired, or the backing store misbehaves.
func (s *RedisStore) Get(ctx context.Context, tenantID int64, clientID string) []ChatMessage {
	ctx, span := s.tracer.Start(ctx, "conversation.store.get")
	defer span.End()

	key := threadKey(s.prefix, tenantID, clientID)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			span.RecordError(err)
			s.logger.Error("failed to load conversation, treating as empty",
				"tenant_id", tenantID,
				"client", logging.MaskPhone(clientID),
				"error", err,
			)
		}
		return nil
	}

	var thread []ChatMessage
	if err := json.Unmarshal(data, &thread); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to decode conversation, treating as empty",
			"tenant_id", tenantID,
			"client", logging.MaskPhone(clientID),
			"error", err,
		)
		return nil
	}
	return thread
}

// Append adds one entry, trims from the head down to the bound, and
// persists the thread with a refreshed TTL.
func (s *RedisStore) Append(ctx context.Context, tenantID int64, clientID string, msg ChatMessage) error {
	ctx, span := s.tracer.Start(ctx, "conversation.store.append")
	defer span.End()

	key := threadKey(s.prefix, tenantID, clientID)
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	thread := s.Get(ctx, tenantID, clientID)
	thread = append(thread, msg)
	thread = trimHead(thread, s.maxLength)

	data, err := json.Marshal(thread)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal thread: %w", err)
	}
	if err := s.client.Set(ctx, key, data, s.expiry).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist thread: %w", err)
	}
	return nil
}

// trimHead drops the oldest entries until the thread fits the bound.
func trimHead(thread []ChatMessage, maxLength int) []ChatMessage {
	if len(thread) <= maxLength {
		return thread
	}
	return thread[len(thread)-maxLength:]
}

// MemoryStore is the degraded in-process fallback used when Redis is
// unreachable at startup. Acceptable for single-instance deployments only;
// threads do not survive a restart.
type MemoryStore struct {
	mu        sync.Mutex
	threads   map[string]memoryThread
	maxLength int
	expiry    time.Duration
	now       func() time.Time
}

type memoryThread struct {
	entries   []ChatMessage
	expiresAt time.Time
}

// NewMemoryStore creates the fallback store implementation.
func NewMemoryStore(maxLength int, expiry time.Duration) *MemoryStore {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &MemoryStore{
		threads:   make(map[string]memoryThread),
		maxLength: maxLength,
		expiry:    expiry,
		now:       time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, tenantID int64, clientID string) []ChatMessage {
	key := threadKey("mem", tenantID, clientID)

	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[key]
	if !ok {
		return nil
	}
	if s.now().After(thread.expiresAt) {
		delete(s.threads, key)
		return nil
	}
	out := make([]ChatMessage, len(thread.entries))
	copy(out, thread.entries)
	return out
}

func (s *MemoryStore) Append(ctx context.Context, tenantID int64, clientID string, msg ChatMessage) error {
	key := threadKey("mem", tenantID, clientID)

	s.mu.Lock()
	defer s.mu.Unlock()

	thread := s.threads[key]
	if !thread.expiresAt.IsZero() && s.now().After(thread.expiresAt) {
		thread.entries = nil
	}
	thread.entries = trimHead(append(thread.entries, msg), s.maxLength)
	thread.expiresAt = s.now().Add(s.expiry)
	s.threads[key] = thread
	return nil
}
