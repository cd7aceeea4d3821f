package handlers

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/upb/gateway-authorizer/app"
	"github.com/upb/gateway-authorizer/cognito"
	"github.com/upb/gateway-authorizer/services/authorizer"
	"go.uber.org/zap"
)

const (
	testKid       = "kid-1"
	testClientID  = "app-client-id"
	testMethodArn = "arn:aws:execute-api:us-east-1:123456789012:a1b2c3d4e5/prod/GET/items"
)

// newTestDeps wires a real verifier over a freshly generated signing key
func newTestDeps(t *testing.T) (*app.Dependencies, *rsa.PrivateKey) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keys, err := cognito.NewKeySet(cognito.SigningKey{KeyID: testKid, Algorithm: "RS256", PublicKey: &privateKey.PublicKey})
	require.NoError(t, err)

	logger := zap.NewNop()
	verifier := cognito.NewVerifier(keys, nil, cognito.VerifierConfig{AppClientID: testClientID}, logger)

	return &app.Dependencies{
		Logger:     logger,
		Keys:       keys,
		Verifier:   verifier,
		Authorizer: authorizer.NewService(verifier, logger),
	}, privateKey
}

func signTestToken(t *testing.T, privateKey *rsa.PrivateKey, sub string, exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, cognito.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Audience:  jwt.ClaimStrings{testClientID},
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	token.Header["kid"] = testKid

	signed, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return signed
}
