package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid is returned for tokens that fail signature or
	// claim validation.
	ErrTokenInvalid = errors.New("invalid access token")
	// ErrTokenMissingSubject is returned when a valid token carries no
	// subject claim.
	ErrTokenMissingSubject = errors.New("access token missing subject")
)

// TokenConfig configures a [TokenVerifier].
type TokenConfig struct {
	// Secret is the HS256 signing secret shared with the backend.
	Secret []byte
	// Leeway tolerates clock drift between the backend and this
	// process. Must be in [0, 2m].
	Leeway time.Duration
	// Issuer, when non-empty, is enforced against the iss claim.
	Issuer string
}

// TokenVerifier parses the backend's access tokens into a [UserIdentity].
// It is the fallback path for token-refresh notifications that carry a
// rotated token without an inline user record.
type TokenVerifier struct {
	config TokenConfig
}

type accessClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// NewTokenVerifier validates cfg and returns a verifier.
func NewTokenVerifier(cfg TokenConfig) (*TokenVerifier, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token verifier requires a secret")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	return &TokenVerifier{config: cfg}, nil
}

// ParseIdentity verifies tokenStr and extracts the user identity.
func (v *TokenVerifier) ParseIdentity(tokenStr string) (UserIdentity, error) {
	if v == nil {
		return UserIdentity{}, ErrTokenInvalid
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.config.Leeway),
		jwt.WithExpirationRequired(),
	}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return v.config.Secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return UserIdentity{}, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return UserIdentity{}, ErrTokenMissingSubject
	}

	return UserIdentity{
		ID:    claims.Subject,
		Email: claims.Email,
	}, nil
}

// MintToken signs an access token for the given identity. Production
// tokens come from the backend; this exists for the simulator, the demo
// site, and tests.
func (v *TokenVerifier) MintToken(user UserIdentity, ttl time.Duration) (string, error) {
	if v == nil {
		return "", ErrTokenInvalid
	}
	if user.ID == "" {
		return "", ErrTokenMissingSubject
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	now := time.Now()
	claims := &accessClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    v.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.config.Secret)
}
