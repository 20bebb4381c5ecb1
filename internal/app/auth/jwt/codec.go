package jwt

import (
	"errors"
	"time"

	customErrors "github.com/ecomanager/ecomanager/internal/domain/auth/errors"
	"github.com/ecomanager/ecomanager/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kinds. A token minted for one purpose is never accepted for the
// other: Verify rejects with ErrTokenKindMismatch.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
	Kind string `json:"kind"`
}

// Codec mints and verifies signed access and refresh tokens. It is a pure
// signing pair: no storage, no I/O.
type Codec struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec validates the signing key up front so a misconfigured key aborts
// startup instead of failing on the first login.
func NewCodec(cfg *config.Config) (*Codec, error) {
	if len(cfg.SigningKey) < 32 {
		return nil, customErrors.NewInvalidArgument("signing key must be at least 32 bytes")
	}
	return &Codec{
		key:        []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

func (c *Codec) IssueAccessToken(userID uuid.UUID, role string) (token string, exp time.Time, err error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
			Issuer:    c.issuer,
			ID:        uuid.NewString(),
		},
		Role: role,
		Kind: KindAccess,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign access token")
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (c *Codec) IssueRefreshToken(userID uuid.UUID) (token string, exp time.Time, jti string, err error) {
	jti = uuid.NewString()
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
			Issuer:    c.issuer,
			ID:        jti,
		},
		Kind: KindRefresh,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", time.Time{}, "", customErrors.WrapInternal(err, "sign refresh token")
	}
	return signed, claims.ExpiresAt.Time, jti, nil
}

// Verify checks signature, expiry and issuer, then the token kind. Expiry
// and structural failures map to distinct errors so callers can report
// "expired" separately, but a kind mismatch is checked last: a valid access
// token presented where a refresh token is required must never pass.
func (c *Codec) Verify(raw string, kind string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, customErrors.ErrTokenExpired
	default:
		return Claims{}, customErrors.ErrTokenInvalid
	}

	if claims.Kind != kind {
		return Claims{}, customErrors.ErrTokenKindMismatch
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return Claims{}, customErrors.ErrTokenInvalid
	}
	return claims, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }
