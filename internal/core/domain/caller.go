package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleCustomer
}

// Caller identifies who is invoking a core operation. The request layer builds
// one per request and passes it explicitly.
type Caller struct {
	CustomerID string
	Role       Role
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

func (c Caller) Validate() error {
	if c.CustomerID == "" {
		return Errorf(ErrUnauthenticated, "missing caller identity")
	}
	return nil
}

func (c Caller) RequireAdmin() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.IsAdmin() {
		return Errorf(ErrPermissionDenied, "administrator role required")
	}
	return nil
}

// ExternalIdentity is what a verified token says about its bearer.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
}

type Customer struct {
	ID         string
	ExternalID string
	Email      string
	Name       string
	Role       Role
}
