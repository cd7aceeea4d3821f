package cognito

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testKid      = "test-kid-123"
	testClientID = "test-client-id"
)

var testNow = time.Unix(1700000000, 0)

// MockDirectory is a mock implementation of Directory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) UserAttributes(ctx context.Context, accessToken string) ([]Attribute, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Attribute), args.Error(1)
}

// Test helper to build valid claims for the test client
func validClaims(sub string) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_test123",
			Subject:   sub,
			Audience:  jwt.ClaimStrings{testClientID},
			ExpiresAt: jwt.NewNumericDate(testNow.Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(testNow.Add(-1 * time.Minute)),
		},
		TokenUse: "id",
	}
}

// Test helper to sign claims with the given key and kid
func signToken(t *testing.T, privateKey *rsa.PrivateKey, kid string, claims jwt.Claims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid

	tokenString, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return tokenString
}

func newTestVerifier(t *testing.T, publicKey *rsa.PublicKey, directory Directory) *Verifier {
	keys, err := NewKeySet(SigningKey{KeyID: testKid, Algorithm: "RS256", Use: "sig", PublicKey: publicKey})
	require.NoError(t, err)

	return NewVerifier(keys, directory, VerifierConfig{
		AppClientID: testClientID,
		Now:         func() time.Time { return testNow },
	}, zap.NewNop())
}

func TestVerify_Success(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	sub := uuid.New().String()
	tokenString := signToken(t, privateKey, testKid, validClaims(sub))

	directory := new(MockDirectory)
	directory.On("UserAttributes", mock.Anything, tokenString).Return([]Attribute{
		{Name: "email", Value: "test@example.com"},
		{Name: "custom:clientId", Value: "client-abc"},
	}, nil)

	verifier := newTestVerifier(t, publicKey, directory)

	principal, err := verifier.Verify(context.Background(), tokenString)

	require.NoError(t, err)
	assert.Equal(t, sub, principal.Subject)
	assert.Equal(t, "client-abc", principal.ClientID)
	assert.Equal(t, "id", principal.Claims.TokenUse)
	directory.AssertExpectations(t)
}

func TestVerify_AudienceAbsentIsTolerated(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	claims := validClaims("user-1")
	claims.Audience = nil
	claims.ClientID = "some-other-client"
	claims.TokenUse = "access"

	verifier := newTestVerifier(t, publicKey, nil)

	principal, err := verifier.Verify(context.Background(), signToken(t, privateKey, testKid, claims))

	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.Subject)
	assert.Empty(t, principal.ClientID)
}

func TestVerify_StrictAudience(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	keys, err := NewKeySet(SigningKey{KeyID: testKid, Algorithm: "RS256", PublicKey: publicKey})
	require.NoError(t, err)

	verifier := NewVerifier(keys, nil, VerifierConfig{
		AppClientID:    testClientID,
		StrictAudience: true,
		Now:            func() time.Time { return testNow },
	}, zap.NewNop())

	t.Run("matching client_id passes", func(t *testing.T) {
		claims := validClaims("user-1")
		claims.Audience = nil
		claims.ClientID = testClientID

		_, err := verifier.Verify(context.Background(), signToken(t, privateKey, testKid, claims))
		assert.NoError(t, err)
	})

	t.Run("neither aud nor client_id fails", func(t *testing.T) {
		claims := validClaims("user-1")
		claims.Audience = nil

		_, err := verifier.Verify(context.Background(), signToken(t, privateKey, testKid, claims))
		assert.ErrorIs(t, err, ErrAudienceMismatch)
	})
}

func TestVerify_AudienceMismatch(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	claims := validClaims("user-1")
	claims.Audience = jwt.ClaimStrings{"wrong-client-id"}

	verifier := newTestVerifier(t, publicKey, nil)

	_, err := verifier.Verify(context.Background(), signToken(t, privateKey, testKid, claims))

	assert.ErrorIs(t, err, ErrAudienceMismatch)
	assert.Equal(t, "AudienceMismatch", Reason(err))
}

func TestVerify_MultipleAudiencesRejected(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	claims := validClaims("user-1")
	claims.Audience = jwt.ClaimStrings{"other-client-id", testClientID}

	verifier := newTestVerifier(t, publicKey, nil)

	principal, err := verifier.Verify(context.Background(), signToken(t, privateKey, testKid, claims))

	assert.Nil(t, principal)
	assert.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestVerify_Expiry(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	verifier := newTestVerifier(t, publicKey, nil)

	t.Run("expired one second ago", func(t *testing.T) {
		claims := validClaims("user-1")
		claims.ExpiresAt = jwt.NewNumericDate(testNow.Add(-1 * time.Second))

		_, err := verifier.Verify(context.Background(), signToken(t, privateKey, testKid, claims))
		assert.ErrorIs(t, err, ErrTokenExpired)
		assert.Equal(t, "TokenExpired", Reason(err))
	})

	t.Run("valid at exact exp second", func(t *testing.T) {
		claims := validClaims("user-1")
		claims.ExpiresAt = jwt.NewNumericDate(testNow)

		_, err := verifier.Verify(context.Background(), signToken(t, privateKey, testKid, claims))
		assert.NoError(t, err)
	})

	t.Run("missing exp", func(t *testing.T) {
		claims := validClaims("user-1")
		claims.ExpiresAt = nil

		_, err := verifier.Verify(context.Background(), signToken(t, privateKey, testKid, claims))
		assert.ErrorIs(t, err, ErrMalformedToken)
	})
}

func TestVerify_UnknownSigningKey(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	verifier := newTestVerifier(t, publicKey, nil)

	_, err := verifier.Verify(context.Background(), signToken(t, privateKey, "rotated-kid", validClaims("user-1")))

	assert.ErrorIs(t, err, ErrUnknownSigningKey)
	assert.Equal(t, "UnknownSigningKey", Reason(err))
}

func TestVerify_InvalidSignature(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	differentPrivateKey, _ := generateTestKeyPair(t)
	verifier := newTestVerifier(t, publicKey, nil)

	// Sign token with different key
	tokenString := signToken(t, differentPrivateKey, testKid, validClaims("user-1"))

	_, err := verifier.Verify(context.Background(), tokenString)

	assert.ErrorIs(t, err, ErrSignatureInvalid)
	assert.Equal(t, "SignatureInvalid", Reason(err))
}

func TestVerify_TamperedPayload(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	verifier := newTestVerifier(t, publicKey, nil)

	tokenString := signToken(t, privateKey, testKid, validClaims("user-1"))
	parts := strings.Split(tokenString, ".")

	forged, err := json.Marshal(validClaims("admin"))
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	_, err = verifier.Verify(context.Background(), strings.Join(parts, "."))

	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerify_AlgorithmConfusion(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	verifier := newTestVerifier(t, publicKey, nil)

	t.Run("HS256 signed with arbitrary secret", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("user-1"))
		token.Header["kid"] = testKid
		tokenString, err := token.SignedString([]byte("not-the-key"))
		require.NoError(t, err)

		_, err = verifier.Verify(context.Background(), tokenString)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("alg none", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims("user-1"))
		token.Header["kid"] = testKid
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = verifier.Verify(context.Background(), tokenString)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})
}

func TestVerify_MalformedToken(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	verifier := newTestVerifier(t, publicKey, nil)

	noKid := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "no dots", token: "garbage"},
		{name: "two segments", token: "a.b"},
		{name: "undecodable header", token: "a.b.c"},
		{name: "header is not json", token: base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".b.c"},
		{name: "missing kid", token: noKid + ".e30.c2ln"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrMalformedToken)
			assert.Equal(t, "MalformedToken", Reason(err))
		})
	}
}

func TestVerify_DirectoryDegradesToEmptyClientID(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	tokenString := signToken(t, privateKey, testKid, validClaims("user-1"))

	t.Run("lookup error", func(t *testing.T) {
		directory := new(MockDirectory)
		directory.On("UserAttributes", mock.Anything, tokenString).Return(nil, errors.New("NotAuthorizedException"))

		principal, err := newTestVerifier(t, publicKey, directory).Verify(context.Background(), tokenString)

		require.NoError(t, err)
		assert.Equal(t, "user-1", principal.Subject)
		assert.Empty(t, principal.ClientID)
	})

	t.Run("attribute missing", func(t *testing.T) {
		directory := new(MockDirectory)
		directory.On("UserAttributes", mock.Anything, tokenString).Return([]Attribute{{Name: "email", Value: "x@example.com"}}, nil)

		principal, err := newTestVerifier(t, publicKey, directory).Verify(context.Background(), tokenString)

		require.NoError(t, err)
		assert.Empty(t, principal.ClientID)
	})
}

func TestVerify_Issuer(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	keys, err := NewKeySet(SigningKey{KeyID: testKid, Algorithm: "RS256", PublicKey: publicKey})
	require.NoError(t, err)

	verifier := NewVerifier(keys, nil, VerifierConfig{
		AppClientID: testClientID,
		Issuer:      "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_test123",
		Now:         func() time.Time { return testNow },
	}, zap.NewNop())

	t.Run("matching issuer passes", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), signToken(t, privateKey, testKid, validClaims("user-1")))
		assert.NoError(t, err)
	})

	t.Run("other pool fails", func(t *testing.T) {
		claims := validClaims("user-1")
		claims.Issuer = "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_other"

		_, err := verifier.Verify(context.Background(), signToken(t, privateKey, testKid, claims))
		assert.ErrorIs(t, err, ErrIssuerMismatch)
		assert.Equal(t, "IssuerMismatch", Reason(err))
	})

	t.Run("not checked by default", func(t *testing.T) {
		claims := validClaims("user-1")
		claims.Issuer = "https://example.com"

		_, err := newTestVerifier(t, publicKey, nil).Verify(context.Background(), signToken(t, privateKey, testKid, claims))
		assert.NoError(t, err)
	})
}

func TestVerify_DirectoryNotCalledOnFailure(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	claims := validClaims("user-1")
	claims.ExpiresAt = jwt.NewNumericDate(testNow.Add(-1 * time.Hour))

	directory := new(MockDirectory)
	verifier := newTestVerifier(t, publicKey, directory)

	_, err := verifier.Verify(context.Background(), signToken(t, privateKey, testKid, claims))

	assert.Error(t, err)
	directory.AssertNotCalled(t, "UserAttributes", mock.Anything, mock.Anything)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "Unknown", Reason(errors.New("boom")))
}
