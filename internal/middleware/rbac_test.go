package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/ProposalForge/internal/domain/user"
	"github.com/Strob0t/ProposalForge/internal/middleware"
)

func injectCaller(c *user.Caller) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithCaller(r.Context(), c)))
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		caller *user.Caller
		roles  []user.Role
		status int
	}{
		{name: "admin allowed", caller: &user.Caller{ID: "a", Role: user.RoleAdmin}, roles: []user.Role{user.RoleAdmin}, status: http.StatusOK},
		{name: "user rejected", caller: &user.Caller{ID: "u", Role: user.RoleUser}, roles: []user.Role{user.RoleAdmin}, status: http.StatusForbidden},
		{name: "user allowed when listed", caller: &user.Caller{ID: "u", Role: user.RoleUser}, roles: []user.Role{user.RoleAdmin, user.RoleUser}, status: http.StatusOK},
		{name: "no caller", caller: nil, roles: []user.Role{user.RoleAdmin}, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			var handler http.Handler = middleware.RequireRole(tt.roles...)(inner)
			if tt.caller != nil {
				handler = injectCaller(tt.caller)(handler)
			}

			req := httptest.NewRequest(http.MethodPut, "/api/v1/preferences", http.NoBody)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestRequireRole_AfterDisabledAuth(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.Auth(newTestAuthSvc(nil), false)(
		middleware.RequireRole(user.RoleAdmin)(inner),
	)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/preferences", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
