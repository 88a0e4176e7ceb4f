package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

// IdentityResolver turns a bearer token into a Caller in two steps, both run
// once per request by the transport layer.
type IdentityResolver interface {
	// ResolveExternalIdentity verifies the token; it never touches storage
	ResolveExternalIdentity(ctx context.Context, token string) (domain.ExternalIdentity, error)

	// EnsureLocalCustomer maps a verified identity to a local customer,
	// provisioning it on first sight
	EnsureLocalCustomer(ctx context.Context, ext domain.ExternalIdentity) (domain.Caller, error)
}
