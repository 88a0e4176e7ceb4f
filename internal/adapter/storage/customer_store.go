package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
)

// CustomerStore links external identities to local customer ids.
type CustomerStore struct {
	db *DB
}

func NewCustomerStore(db *DB) *CustomerStore {
	return &CustomerStore{db: db}
}

// EnsureCustomer upserts on external_id. Profile fields follow the latest
// token; the role can be raised to admin but never lowered here.
func (s *CustomerStore) EnsureCustomer(ctx context.Context, ext domain.ExternalIdentity, role domain.Role) (domain.Customer, error) {
	if ext.Subject == "" {
		return domain.Customer{}, domain.Errorf(domain.ErrUnauthenticated, "token has no subject")
	}

	d := s.db.dialect
	_, err := s.db.sql.ExecContext(ctx, s.db.q(`
		INSERT INTO customers (id, external_id, email, name, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		`+d.onConflictUpdate("external_id")+`
			email = `+d.excluded("email")+`,
			name = `+d.excluded("name")+`,
			role = CASE WHEN `+d.excluded("role")+` = 'admin' THEN 'admin' ELSE customers.role END`),
		uuid.NewString(), ext.Subject, ext.Email, ext.Name, string(role), s.db.now(),
	)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("upsert customer: %w", err)
	}

	var (
		c       domain.Customer
		roleStr string
	)
	err = s.db.sql.QueryRowContext(ctx, s.db.q(`
		SELECT id, external_id, email, name, role FROM customers WHERE external_id = ?`), ext.Subject,
	).Scan(&c.ID, &c.ExternalID, &c.Email, &c.Name, &roleStr)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}
	c.Role = domain.ParseRole(roleStr)
	return c, nil
}
