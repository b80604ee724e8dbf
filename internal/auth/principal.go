package auth

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/hgzoia/mercado-livro/internal/domain"
)

// Principal is the authenticated identity attempting an operation. The API
// trusts an upstream gateway to authenticate and forward it via headers.
type Principal struct {
	ID    string
	Roles []domain.Role
}

func (p Principal) HasRole(role domain.Role) bool {
	return slices.Contains(p.Roles, role)
}

func (p Principal) IsAdmin() bool {
	return p.HasRole(domain.RoleAdmin)
}

// CanAccess reports whether the principal may view or modify the customer
// with the given id: admins always, everyone else only themselves.
func CanAccess(p Principal, customerID string) bool {
	return p.IsAdmin() || p.ID == customerID
}

type contextKey struct{}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

const (
	HeaderPrincipalID    = "X-Principal-Id"
	HeaderPrincipalRoles = "X-Principal-Roles"
)

// Middleware extracts the forwarded principal from request headers and puts
// it on the request context. Requests without a principal pass through
// unauthenticated; handlers decide whether that is acceptable.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderPrincipalID)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		p := Principal{ID: id}
		for _, raw := range strings.Split(r.Header.Get(HeaderPrincipalRoles), ",") {
			if role := strings.TrimSpace(raw); role != "" {
				p.Roles = append(p.Roles, domain.Role(role))
			}
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}
