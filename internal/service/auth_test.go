package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Strob0t/ProposalForge/internal/config"
	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/user"
)

type staticSecrets map[string]string

func (s staticSecrets) Require(key string) ([]byte, error) {
	v, ok := s[key]
	if !ok {
		return nil, errors.New("secret " + key + " is not set")
	}
	return []byte(v), nil
}

func newTestAuth() *AuthService {
	cfg := config.Defaults().Auth
	return NewAuthService(&cfg, staticSecrets{cfg.JWTSecretEnv: "test-secret"})
}

func TestAuthService_IssueAndVerify(t *testing.T) {
	svc := newTestAuth()
	caller := &user.Caller{ID: "u-1", Name: "Ana", Role: user.RoleUser}

	tok, err := svc.Issue(caller, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := svc.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if *got != *caller {
		t.Errorf("expected %+v, got %+v", caller, got)
	}
}

func TestAuthService_VerifyRejects(t *testing.T) {
	svc := newTestAuth()
	valid, err := svc.Issue(&user.Caller{ID: "u-1", Role: user.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	expired := newTestAuth()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredTok, err := expired.Issue(&user.Caller{ID: "u-1", Role: user.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	otherIssuer := newTestAuth()
	otherIssuer.cfg = &config.Auth{JWTSecretEnv: otherIssuer.cfg.JWTSecretEnv, Issuer: "someone-else"}
	foreignTok, err := otherIssuer.Issue(&user.Caller{ID: "u-1", Role: user.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, CallerClaims{
		Role: "owner",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			Issuer:    svc.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	noneTok, err := jwt.NewWithClaims(jwt.SigningMethodNone, CallerClaims{
		Role: user.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			Issuer:    svc.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"tampered", valid[:len(valid)-2] + "xx"},
		{"expired", expiredTok},
		{"wrong issuer", foreignTok},
		{"unknown role", badRole},
		{"alg none", noneTok},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			if !errors.Is(err, domain.ErrUnauthenticated) {
				t.Errorf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestAuthService_MissingSecret(t *testing.T) {
	cfg := config.Defaults().Auth
	svc := NewAuthService(&cfg, staticSecrets{})

	_, err := svc.Issue(&user.Caller{ID: "u", Role: user.RoleAdmin}, time.Hour)
	if err == nil || !strings.Contains(err.Error(), "signing secret") {
		t.Errorf("expected signing secret error, got %v", err)
	}
}

func TestAuthService_IssueValidatesInput(t *testing.T) {
	svc := newTestAuth()
	if _, err := svc.Issue(&user.Caller{Role: user.RoleAdmin}, time.Hour); err == nil {
		t.Error("expected error for caller without id")
	}
	if _, err := svc.Issue(&user.Caller{ID: "u", Role: user.RoleAdmin}, 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestAuthService_DefaultCaller(t *testing.T) {
	svc := newTestAuth()
	c := svc.DefaultCaller()
	if c.ID != "dev-admin" || !c.Role.IsAdmin() {
		t.Errorf("unexpected default caller %+v", c)
	}
}
