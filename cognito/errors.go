package cognito

import (
	"errors"
)

var (
	// ErrMalformedToken is returned when the token structure or header cannot be decoded
	ErrMalformedToken = errors.New("malformed token")

	// ErrUnknownSigningKey is returned when the token's kid is not in the key set
	ErrUnknownSigningKey = errors.New("unknown signing key")

	// ErrSignatureInvalid is returned when the signature does not verify against the key
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrAudienceMismatch is returned when the token was not issued for this app client
	ErrAudienceMismatch = errors.New("audience mismatch")

	// ErrIssuerMismatch is returned when issuer checking is enabled and iss names another pool
	ErrIssuerMismatch = errors.New("issuer mismatch")

	// ErrJWKSFetchFailed is returned when JWKS fetching fails
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")

	// ErrInvalidKeySet is returned when a JWKS document cannot be turned into a key set
	ErrInvalidKeySet = errors.New("invalid key set")
)

// Reason returns the taxonomy name of a verification error for server-side logs.
// It never includes token contents.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedToken):
		return "MalformedToken"
	case errors.Is(err, ErrUnknownSigningKey):
		return "UnknownSigningKey"
	case errors.Is(err, ErrSignatureInvalid):
		return "SignatureInvalid"
	case errors.Is(err, ErrTokenExpired):
		return "TokenExpired"
	case errors.Is(err, ErrAudienceMismatch):
		return "AudienceMismatch"
	case errors.Is(err, ErrIssuerMismatch):
		return "IssuerMismatch"
	default:
		return "Unknown"
	}
}
