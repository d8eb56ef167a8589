package token

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/adopet/internal/clock"
	"github.com/smallbiznis/adopet/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, clk clock.Clock) *Manager {
	t.Helper()
	m, err := NewManager(config.Config{
		AuthJWTSecret:        "test-secret",
		AuthJWTIssuer:        "adopet-test",
		AuthJWTExpireMinutes: 30,
	}, clk)
	require.NoError(t, err)
	return m
}

func TestIssueAndParse(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	m := newManager(t, clk)

	issued, err := m.Issue(snowflake.ID(42))
	require.NoError(t, err)
	assert.Equal(t, TypeBearer, issued.TokenType)
	assert.Equal(t, int64(1800), issued.ExpiresIn)

	claims, err := m.Parse(issued.AccessToken)
	require.NoError(t, err)
	orgID, err := claims.OrgID()
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(42), orgID)
	assert.Equal(t, "adopet-test", claims.Issuer)

	_, err = ulid.Parse(claims.ID)
	assert.NoError(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	m := newManager(t, clk)

	issued, err := m.Issue(snowflake.ID(7))
	require.NoError(t, err)

	clk.Set(clk.Now().Add(31 * time.Minute))
	_, err = m.Parse(issued.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignIssuerAndSecret(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	m := newManager(t, clk)

	other, err := NewManager(config.Config{AuthJWTSecret: "test-secret", AuthJWTIssuer: "someone-else"}, clk)
	require.NoError(t, err)
	issued, err := other.Issue(snowflake.ID(1))
	require.NoError(t, err)
	_, err = m.Parse(issued.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	forged, err := NewManager(config.Config{AuthJWTSecret: "another-secret", AuthJWTIssuer: "adopet-test"}, clk)
	require.NoError(t, err)
	issued, err = forged.Issue(snowflake.ID(1))
	require.NoError(t, err)
	_, err = m.Parse(issued.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	m := newManager(t, clk)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "adopet-test",
		Subject:   "1",
		IssuedAt:  jwt.NewNumericDate(clk.Now()),
		ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsBadSubject(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	m := newManager(t, clk)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "adopet-test",
		Subject:   "not-a-number",
		IssuedAt:  jwt.NewNumericDate(clk.Now()),
		ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.Parse("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(config.Config{}, clock.System{})
	assert.ErrorIs(t, err, ErrMissingSecret)
}
