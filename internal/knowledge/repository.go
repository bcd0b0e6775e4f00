package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// knowledgeDB defines the database interface needed by Repository.
type knowledgeDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository runs tenant-scoped nearest-neighbor queries over the three
// knowledge corpora. Every query filters by tenant_id before ranking, so
// vectors are never compared across tenants; the secondary id sort keeps
// ties deterministic.
type Repository struct {
	db knowledgeDB
}

// NewRepository creates a repository backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("knowledge: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db knowledgeDB) *Repository {
	return &Repository{db: db}
}

// SearchProducts returns the topK products for a tenant ranked by cosine
// distance to the query embedding.
func (r *Repository) SearchProducts(ctx context.Context, tenantID int64, embedding []float32, topK int) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, name, COALESCE(description, ''), price, unit
		FROM products
		WHERE tenant_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2, id
		LIMIT $3
	`, tenantID, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("knowledge: product search failed: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Price, &p.Unit); err != nil {
			return nil, fmt.Errorf("knowledge: product scan failed: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// SearchServices returns the topK services for a tenant ranked by cosine
// distance to the query embedding.
func (r *Repository) SearchServices(ctx context.Context, tenantID int64, embedding []float32, topK int) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, name, COALESCE(description, ''), price, periode
		FROM services
		WHERE tenant_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2, id
		LIMIT $3
	`, tenantID, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("knowledge: service search failed: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.Description, &s.Price, &s.Periode); err != nil {
			return nil, fmt.Errorf("knowledge: service scan failed: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// SearchTenantProfiles returns the business profile entries for a tenant
// ranked by cosine distance to the query embedding.
func (r *Repository) SearchTenantProfiles(ctx context.Context, tenantID int64, embedding []float32, topK int) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, name, email, phone_number, address, city
		FROM tenant_info
		WHERE tenant_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2, id
		LIMIT $3
	`, tenantID, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("knowledge: tenant profile search failed: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var t TenantProfile
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Name, &t.Email, &t.PhoneNumber, &t.Address, &t.City); err != nil {
			return nil, fmt.Errorf("knowledge: tenant profile scan failed: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// corpusTable maps a corpus name to its embedding update statement. Used
// by the batch re-embedding command, not the request path.
var corpusTables = []string{"products", "services", "tenant_info"}

// Embeddable is one row awaiting (re)embedding.
type Embeddable struct {
	Table string
	ID    int64
	Text  string
}

// ListMissingEmbeddings returns rows across all corpora whose embedding is
// NULL (or every row when all is true), each with its canonical embedding
// text rendered in SQL to match the item renderings.
func (r *Repository) ListMissingEmbeddings(ctx context.Context, all bool) ([]Embeddable, error) {
	queries := map[string]string{
		"products":    `SELECT id, 'Offer: ' || name || ' ' || COALESCE(description, '') || ' ' || price || ' ' || unit FROM products`,
		"services":    `SELECT id, 'Offer: ' || name || ' ' || COALESCE(description, '') || ' ' || price || ' ' || periode FROM services`,
		"tenant_info": `SELECT id, 'Business: ' || name || ' ' || address || ' ' || city || ' ' || email || ' ' || phone_number FROM tenant_info`,
	}

	var out []Embeddable
	for _, table := range corpusTables {
		query := queries[table]
		if !all {
			query += " WHERE embedding IS NULL"
		}
		rows, err := r.db.Query(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("knowledge: listing %s failed: %w", table, err)
		}
		for rows.Next() {
			e := Embeddable{Table: table}
			if err := rows.Scan(&e.ID, &e.Text); err != nil {
				rows.Close()
				return nil, fmt.Errorf("knowledge: scanning %s failed: %w", table, err)
			}
			out = append(out, e)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateEmbedding writes a freshly computed vector back to its row.
func (r *Repository) UpdateEmbedding(ctx context.Context, table string, id int64, embedding []float32) error {
	valid := false
	for _, t := range corpusTables {
		if t == table {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("knowledge: unknown corpus table %q", table)
	}

	_, err := r.db.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET embedding = $1, updated_at = now() WHERE id = $2`, table),
		pgvector.NewVector(embedding), id,
	)
	if err != nil {
		return fmt.Errorf("knowledge: updating %s embedding failed: %w", table, err)
	}
	return nil
}
