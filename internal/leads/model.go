package leads

import (
	"time"

	"github.com/google/uuid"
)

// Draft accumulates the optional fields pulled out of one extraction call.
// A draft is created fresh per call and discarded after commit; it is
// never merged with an earlier partial draft.
type Draft struct {
	ClientName  *string `json:"client_name"`
	ClientEmail *string `json:"client_email"`
	PackName    *string `json:"pack_name"`

	// Identity carried from the channel, not extracted.
	ClientID    int64  `json:"-"`
	ClientPhone string `json:"-"`
	TenantID    int64  `json:"-"`
}

// Complete reports whether all three extracted fields are simultaneously
// present. Only a complete draft may become an order.
func (d Draft) Complete() bool {
	return nonEmpty(d.ClientName) && nonEmpty(d.ClientEmail) && nonEmpty(d.PackName)
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

// Order is the persisted record of a completed sales lead.
type Order struct {
	ID          uuid.UUID `json:"id"`
	PackName    string    `json:"pack_name"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	ClientPhone string    `json:"client_phone"`
	ClientID    int64     `json:"client_id"`
	TenantID    int64     `json:"tenant_id"`
	CreatedAt   time.Time `json:"created_at"`
}
