package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// leadsDB defines the database interface needed by PostgresRepository.
type leadsDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores orders in the relational database.
type PostgresRepository struct {
	db leadsDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db leadsDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// normalizePhone strips the separators a channel may include so lookups
// match the stored number regardless of formatting.
func normalizePhone(phone string) string {
	replacer := strings.NewReplacer("+", "", " ", "", "-", "")
	return replacer.Replace(strings.TrimSpace(phone))
}

// ResolveClientID maps (tenant, phone) to the client row. ErrClientNotFound
// when the phone is unknown for that tenant.
func (r *PostgresRepository) ResolveClientID(ctx context.Context, tenantID int64, phone string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		SELECT id FROM clients
		WHERE tenant_id = $1 AND regexp_replace(phone_number, '[+ -]', '', 'g') = $2
	`, tenantID, normalizePhone(phone)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrClientNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("leads: client lookup failed: %w", err)
	}
	return id, nil
}

// FindRecentOrder returns an existing order for the same client and pack
// created after the given instant, or nil when there is none.
func (r *PostgresRepository) FindRecentOrder(ctx context.Context, clientID int64, packName string, since time.Time) (*Order, error) {
	var order Order
	err := r.db.QueryRow(ctx, `
		SELECT id, pack_name, client_name, client_email, client_phone, client_id, tenant_id, created_at
		FROM orders
		WHERE client_id = $1 AND lower(pack_name) = lower($2) AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1
	`, clientID, packName, since).Scan(
		&order.ID, &order.PackName, &order.ClientName, &order.ClientEmail,
		&order.ClientPhone, &order.ClientID, &order.TenantID, &order.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leads: recent order lookup failed: %w", err)
	}
	return &order, nil
}

// CreateOrder inserts a new row and stamps the order with its ID and
// creation time.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *Order) error {
	id := uuid.New()
	var createdAt time.Time
	err := r.db.QueryRow(ctx, `
		INSERT INTO orders (id, pack_name, client_name, client_email, client_phone, client_id, tenant_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, id, order.PackName, order.ClientName, order.ClientEmail,
		order.ClientPhone, order.ClientID, order.TenantID,
	).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("leads: order insert failed: %w", err)
	}

	order.ID = id
	order.CreatedAt = createdAt
	return nil
}
