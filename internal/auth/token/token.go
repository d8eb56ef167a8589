// Package token issues and validates the bearer tokens that identify an
// organization on tenant-scoped endpoints.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/adopet/internal/clock"
	"github.com/smallbiznis/adopet/internal/config"
)

const (
	TypeBearer    = "bearer"
	defaultIssuer = "adopet"
	defaultTTL    = 60 * time.Minute
	maxClockSkew  = 5 * time.Second
)

var (
	ErrInvalidToken  = errors.New("invalid_token")
	ErrMissingSecret = errors.New("auth_secret_not_configured")
)

// Claims carries the organization id in the subject.
type Claims struct {
	jwt.RegisteredClaims
}

// OrgID returns the organization encoded in the subject claim.
func (c *Claims) OrgID() (snowflake.ID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Subject), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return snowflake.ID(id), nil
}

// Issued is a signed access token.
type Issued struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"-"`
}

// Manager signs and parses HS256 tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

func NewManager(cfg config.Config, clk clock.Clock) (*Manager, error) {
	secret := strings.TrimSpace(cfg.AuthJWTSecret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	issuer := strings.TrimSpace(cfg.AuthJWTIssuer)
	if issuer == "" {
		issuer = defaultIssuer
	}
	ttl := time.Duration(cfg.AuthJWTExpireMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		clock:  clk,
	}, nil
}

// Issue signs a token for the organization.
func (m *Manager) Issue(orgID snowflake.ID) (Issued, error) {
	if orgID == 0 {
		return Issued{}, ErrInvalidToken
	}

	now := m.clock.Now().UTC().Truncate(time.Second)
	expiresAt := now.Add(m.ttl)
	jti, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return Issued{}, fmt.Errorf("generate jti: %w", err)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   orgID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti.String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Issued{}, fmt.Errorf("sign token: %w", err)
	}

	return Issued{
		AccessToken: signed,
		TokenType:   TypeBearer,
		ExpiresIn:   int64(m.ttl.Seconds()),
		ExpiresAt:   expiresAt,
	}, nil
}

// Parse verifies signature, issuer and validity window.
func (m *Manager) Parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(maxClockSkew),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.OrgID(); err != nil {
		return nil, err
	}
	return claims, nil
}
