package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hgzoia/mercado-livro/internal/domain"
)

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name       string
		principal  Principal
		customerID string
		want       bool
	}{
		{
			name:       "admin can access any customer",
			principal:  Principal{ID: "admin-1", Roles: []domain.Role{domain.RoleAdmin}},
			customerID: "customer-1",
			want:       true,
		},
		{
			name:       "customer can access itself",
			principal:  Principal{ID: "customer-1", Roles: []domain.Role{domain.RoleCustomer}},
			customerID: "customer-1",
			want:       true,
		},
		{
			name:       "customer cannot access another customer",
			principal:  Principal{ID: "customer-1", Roles: []domain.Role{domain.RoleCustomer}},
			customerID: "customer-2",
			want:       false,
		},
		{
			name:       "principal without roles cannot access another customer",
			principal:  Principal{ID: "customer-1"},
			customerID: "customer-2",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(tt.principal, tt.customerID); got != tt.want {
				t.Errorf("CanAccess(%v, %q) = %v, want %v", tt.principal, tt.customerID, got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Run("extracts principal from headers", func(t *testing.T) {
		var got Principal
		var found bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, found = FromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderPrincipalID, "customer-1")
		req.Header.Set(HeaderPrincipalRoles, "CUSTOMER, ADMIN")
		rec := httptest.NewRecorder()

		Middleware(next).ServeHTTP(rec, req)

		if !found {
			t.Fatal("expected principal on context")
		}
		if got.ID != "customer-1" {
			t.Errorf("expected id customer-1, got %s", got.ID)
		}
		if len(got.Roles) != 2 || got.Roles[0] != domain.RoleCustomer || got.Roles[1] != domain.RoleAdmin {
			t.Errorf("unexpected roles: %v", got.Roles)
		}
	})

	t.Run("passes through without principal headers", func(t *testing.T) {
		var found bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, found = FromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		Middleware(next).ServeHTTP(rec, req)

		if found {
			t.Fatal("expected no principal on context")
		}
	})
}

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher()

	hash, err := hasher.Hash("secret")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "secret" || hash == "" {
		t.Fatalf("expected opaque hash, got %q", hash)
	}

	if !hasher.Compare(hash, "secret") {
		t.Error("expected hash to match original password")
	}
	if hasher.Compare(hash, "wrong") {
		t.Error("expected hash not to match a different password")
	}
}
