package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Strob0t/ProposalForge/internal/config"
	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/user"
)

// SecretSource yields the current HMAC signing secret. *secrets.Vault
// satisfies it through Require.
type SecretSource interface {
	Require(key string) ([]byte, error)
}

// CallerClaims is the bearer token payload issued by the host platform's
// authentication bridge.
type CallerClaims struct {
	Name string    `json:"name"`
	Role user.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService verifies bearer tokens and turns them into callers.
type AuthService struct {
	cfg     *config.Auth
	secrets SecretSource
	now     func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(cfg *config.Auth, secrets SecretSource) *AuthService {
	return &AuthService{cfg: cfg, secrets: secrets, now: time.Now}
}

// Verify parses an HS256 token and returns its caller. Any failure is
// reported as domain.ErrUnauthenticated.
func (s *AuthService) Verify(tokenStr string) (*user.Caller, error) {
	secret, err := s.secrets.Require(s.cfg.JWTSecretEnv)
	if err != nil {
		return nil, fmt.Errorf("load signing secret: %w", err)
	}

	claims := &CallerClaims{}
	_, err = jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w: %w", domain.ErrUnauthenticated, err)
	}

	c := &user.Caller{ID: claims.Subject, Name: claims.Name, Role: claims.Role}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("token claims: %w: %w", domain.ErrUnauthenticated, err)
	}
	return c, nil
}

// Issue signs a token for c valid for ttl. Used by the admin CLI to mint
// tokens for local testing.
func (s *AuthService) Issue(c *user.Caller, ttl time.Duration) (string, error) {
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("validate caller: %w", err)
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}
	secret, err := s.secrets.Require(s.cfg.JWTSecretEnv)
	if err != nil {
		return "", fmt.Errorf("load signing secret: %w", err)
	}

	now := s.now()
	claims := CallerClaims{
		Name: c.Name,
		Role: c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// DefaultCaller is the identity injected when authentication is disabled.
func (s *AuthService) DefaultCaller() *user.Caller {
	return &user.Caller{ID: s.cfg.DefaultAdmin, Name: s.cfg.DefaultAdmin, Role: user.RoleAdmin}
}
