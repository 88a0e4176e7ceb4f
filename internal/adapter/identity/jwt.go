package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// Claims are the token fields the storefront reads. Roles are never taken
// from the token; admins are configured by subject.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HS256 bearer tokens and provisions local customers.
type JWTResolver struct {
	secret    []byte
	issuer    string
	admins    map[string]struct{}
	customers port.CustomerRepository
	now       func() time.Time
}

func NewJWTResolver(secret []byte, issuer string, adminSubjects []string, customers port.CustomerRepository) *JWTResolver {
	admins := make(map[string]struct{}, len(adminSubjects))
	for _, s := range adminSubjects {
		if s = strings.TrimSpace(s); s != "" {
			admins[s] = struct{}{}
		}
	}
	return &JWTResolver{
		secret:    secret,
		issuer:    issuer,
		admins:    admins,
		customers: customers,
		now:       time.Now,
	}
}

func (r *JWTResolver) ResolveExternalIdentity(ctx context.Context, token string) (domain.ExternalIdentity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ExternalIdentity{}, domain.Errorf(domain.ErrUnauthenticated, "missing bearer token")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ExternalIdentity{}, domain.Errorf(domain.ErrUnauthenticated, "token expired")
		}
		return domain.ExternalIdentity{}, domain.Errorf(domain.ErrUnauthenticated, "invalid token: %v", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return domain.ExternalIdentity{}, domain.Errorf(domain.ErrUnauthenticated, "invalid token")
	}

	return domain.ExternalIdentity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}, nil
}

func (r *JWTResolver) EnsureLocalCustomer(ctx context.Context, ext domain.ExternalIdentity) (domain.Caller, error) {
	role := domain.RoleCustomer
	if _, ok := r.admins[ext.Subject]; ok {
		role = domain.RoleAdmin
	}

	c, err := r.customers.EnsureCustomer(ctx, ext, role)
	if err != nil {
		return domain.Caller{}, domain.Storage("ensure customer", err)
	}
	return domain.Caller{CustomerID: c.ID, Role: c.Role}, nil
}

// Resolve runs both steps.
func (r *JWTResolver) Resolve(ctx context.Context, token string) (domain.Caller, error) {
	ext, err := r.ResolveExternalIdentity(ctx, token)
	if err != nil {
		return domain.Caller{}, err
	}
	return r.EnsureLocalCustomer(ctx, ext)
}

// Issue signs a token for subject. The server never calls it; tools and
// tests use it to mint credentials accepted by this resolver.
func (r *JWTResolver) Issue(subject, email, name string, ttl time.Duration) (string, error) {
	now := r.now()
	claims := Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    r.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}
