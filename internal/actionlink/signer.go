package actionlink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/greentic/messaging-fabric/internal/config"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// DefaultTTL bounds how long a minted action link stays redeemable
// when the caller does not ask for a shorter one (spec §4.6).
const DefaultTTL = 15 * time.Minute

// Signer mints and verifies action-link JWTs per config.JWTConfig's
// algorithm (HS256, RS256, or ES256).
type Signer struct {
	alg        jwt.SigningMethod
	signKey    interface{}
	verifyKey  interface{}
	nonces     NonceStore
}

// New builds a Signer from cfg. HS256 uses cfg.Secret for both signing
// and verification; RS256/ES256 use the configured key pair.
func New(cfg config.JWTConfig, nonces NonceStore) (*Signer, error) {
	s := &Signer{nonces: nonces}
	switch cfg.Alg {
	case "HS256", "":
		if cfg.Secret == "" {
			return nil, errors.New("actionlink: JWT_SECRET required for HS256")
		}
		s.alg = jwt.SigningMethodHS256
		s.signKey = []byte(cfg.Secret)
		s.verifyKey = []byte(cfg.Secret)
	case "RS256":
		priv, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("actionlink: parse RS256 private key: %w", err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("actionlink: parse RS256 public key: %w", err)
		}
		s.alg = jwt.SigningMethodRS256
		s.signKey = priv
		s.verifyKey = pub
	case "ES256":
		priv, err := jwt.ParseECPrivateKeyFromPEM([]byte(cfg.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("actionlink: parse ES256 private key: %w", err)
		}
		pub, err := jwt.ParseECPublicKeyFromPEM([]byte(cfg.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("actionlink: parse ES256 public key: %w", err)
		}
		s.alg = jwt.SigningMethodES256
		s.signKey = priv
		s.verifyKey = pub
	default:
		return nil, fmt.Errorf("actionlink: unsupported JWT alg %q", cfg.Alg)
	}
	return s, nil
}

// Mint signs a new single-use token scoping ctx, bound to platform,
// carrying an optional postback payload, valid for ttl (DefaultTTL if
// zero).
func (s *Signer) Mint(ctx models.TenantContext, platform models.Platform, data map[string]interface{}, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	claims := newClaims(ctx, platform, uuid.NewString(), data, ttl)
	token := jwt.NewWithClaims(s.alg, claims)
	return token.SignedString(s.signKey)
}

// Verify parses and validates tokenString's signature and expiry, then
// redeems its nonce exactly once. A replayed or expired token returns
// an error; a freshly verified token can never be verified again.
func (s *Signer) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != s.alg {
			return nil, fmt.Errorf("actionlink: unexpected signing method %v", t.Header["alg"])
		}
		return s.verifyKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("actionlink: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("actionlink: token invalid")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		ttl = time.Minute
	}
	fresh, err := s.nonces.Consume(ctx, claims.Nonce, ttl)
	if err != nil {
		return nil, fmt.Errorf("actionlink: nonce store: %w", err)
	}
	if !fresh {
		return nil, fmt.Errorf("%w: action link already used", models.ErrDuplicate)
	}
	return claims, nil
}
