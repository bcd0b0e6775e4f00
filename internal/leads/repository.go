package leads

import (
	"context"
	"time"
)

// Repository is the persistence surface the order sink needs: resolving a
// channel phone number to a known client and materializing orders.
type Repository interface {
	ResolveClientID(ctx context.Context, tenantID int64, phone string) (int64, error)
	FindRecentOrder(ctx context.Context, clientID int64, packName string, since time.Time) (*Order, error)
	CreateOrder(ctx context.Context, order *Order) error
}
