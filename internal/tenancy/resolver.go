package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTenantNotFound is returned when no tenant matches an inbound
// channel identifier.
var ErrTenantNotFound = errors.New("tenancy: tenant not found")

// Tenant is an independent business account. All knowledge and
// conversation data are partitioned by its ID.
type Tenant struct {
	ID            int64
	Name          string
	PhoneNumber   string
	PhoneNumberID string
	WhatsAppToken string
}

// tenancyDB defines the database interface needed by Resolver.
type tenancyDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Resolver maps channel identifiers to tenants.
type Resolver struct {
	db tenancyDB
}

// NewResolver creates a resolver backed by pgxpool.
func NewResolver(pool *pgxpool.Pool) *Resolver {
	if pool == nil {
		panic("tenancy: pgx pool required")
	}
	return &Resolver{db: pool}
}

// NewResolverWithDB allows injecting a mock database for testing.
func NewResolverWithDB(db tenancyDB) *Resolver {
	return &Resolver{db: db}
}

// ResolveByPhoneNumberID looks up the tenant owning a WhatsApp business
// phone number ID from an inbound webhook.
func (r *Resolver) ResolveByPhoneNumberID(ctx context.Context, phoneNumberID string) (*Tenant, error) {
	var t Tenant
	err := r.db.QueryRow(ctx, `
		SELECT id, name, COALESCE(phone_number, ''), COALESCE(phone_number_id, ''), COALESCE(whatsapp_token, '')
		FROM tenants
		WHERE phone_number_id = $1
	`, phoneNumberID).Scan(&t.ID, &t.Name, &t.PhoneNumber, &t.PhoneNumberID, &t.WhatsAppToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenancy: lookup by phone_number_id failed: %w", err)
	}
	return &t, nil
}

// ResolveByID fetches a tenant by primary key, used by the Telegram
// webhook route which carries the tenant in its path.
func (r *Resolver) ResolveByID(ctx context.Context, id int64) (*Tenant, error) {
	var t Tenant
	err := r.db.QueryRow(ctx, `
		SELECT id, name, COALESCE(phone_number, ''), COALESCE(phone_number_id, ''), COALESCE(whatsapp_token, '')
		FROM tenants
		WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.PhoneNumber, &t.PhoneNumberID, &t.WhatsAppToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenancy: lookup by id failed: %w", err)
	}
	return &t, nil
}
