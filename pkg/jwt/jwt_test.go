package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateParse(t *testing.T) {
	tok, err := Generate(secret, "u1", "org1", "idp", 5)
	require.NoError(t, err)

	claims, err := Parse(secret, "idp", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "org1", claims.OrganizationID)
}

func TestParse_Rechazos(t *testing.T) {
	tok, err := Generate(secret, "u1", "", "idp", 5)
	require.NoError(t, err)

	_, err = Parse("otro", "", tok)
	assert.Error(t, err, "firma incorrecta")

	_, err = Parse(secret, "otro-emisor", tok)
	assert.Error(t, err, "emisor distinto")

	expired, err := Generate(secret, "u1", "", "idp", -1)
	require.NoError(t, err)
	_, err = Parse(secret, "", expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = Parse("", "", tok)
	assert.Error(t, err)
}

func TestParse_SubjectComoActor(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "svc-42", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	got, err := Parse(secret, "", tok)
	require.NoError(t, err)
	assert.Equal(t, "svc-42", got.UserID)
}
