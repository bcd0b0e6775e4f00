package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

func TestResolver_ResolveByPhoneNumberID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`FROM tenants\s+WHERE phone_number_id = \$1`).
		WithArgs("1093844560").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone_number", "phone_number_id", "whatsapp_token"}).
			AddRow(int64(7), "Atlas Digital", "+212520000000", "1093844560", "token-abc"))

	r := NewResolverWithDB(mock)
	tenant, err := r.ResolveByPhoneNumberID(context.Background(), "1093844560")
	if err != nil {
		t.Fatalf("ResolveByPhoneNumberID: %v", err)
	}
	if tenant.ID != 7 || tenant.Name != "Atlas Digital" || tenant.WhatsAppToken != "token-abc" {
		t.Errorf("tenant = %+v", tenant)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolver_ResolveByPhoneNumberID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`FROM tenants\s+WHERE phone_number_id = \$1`).
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone_number", "phone_number_id", "whatsapp_token"}))

	r := NewResolverWithDB(mock)
	if _, err := r.ResolveByPhoneNumberID(context.Background(), "nope"); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestResolver_ResolveByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`FROM tenants\s+WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone_number", "phone_number_id", "whatsapp_token"}).
			AddRow(int64(7), "Atlas Digital", "", "", ""))

	r := NewResolverWithDB(mock)
	tenant, err := r.ResolveByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("ResolveByID: %v", err)
	}
	if tenant.ID != 7 {
		t.Errorf("tenant = %+v", tenant)
	}
}
