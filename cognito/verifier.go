package cognito

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DefaultClientIDAttribute is the user attribute holding the caller's client identifier
const DefaultClientIDAttribute = "custom:clientId"

// allowedMethods lists the asymmetric algorithms a published key may declare
var allowedMethods = map[string]bool{
	"RS256": true, "RS384": true, "RS512": true,
	"PS256": true, "PS384": true, "PS512": true,
	"ES256": true, "ES384": true, "ES512": true,
}

// VerifierConfig holds configuration for Verifier
type VerifierConfig struct {
	AppClientID       string
	ClientIDAttribute string
	// StrictAudience requires a matching client_id claim when aud is absent
	StrictAudience bool
	// Issuer, when set, must equal the token's iss claim
	Issuer string
	Now    func() time.Time
}

// Verifier validates Cognito-issued tokens against an immutable key set
type Verifier struct {
	keys              *KeySet
	directory         Directory
	appClientID       string
	clientIDAttribute string
	strictAudience    bool
	issuer            string
	now               func() time.Time
	parser            *jwt.Parser
	logger            *zap.Logger
}

// NewVerifier creates a new Verifier. A nil directory disables the client ID lookup.
func NewVerifier(keys *KeySet, directory Directory, config VerifierConfig, logger *zap.Logger) *Verifier {
	if config.ClientIDAttribute == "" {
		config.ClientIDAttribute = DefaultClientIDAttribute
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Verifier{
		keys:              keys,
		directory:         directory,
		appClientID:       config.AppClientID,
		clientIDAttribute: config.ClientIDAttribute,
		strictAudience:    config.StrictAudience,
		issuer:            config.Issuer,
		now:               config.Now,
		parser:            jwt.NewParser(),
		logger:            logger,
	}
}

// Verify checks the token signature, expiry and audience, then resolves the
// caller's client ID. Each call is independent of previous calls.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Principal, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: token contains an invalid number of segments", ErrMalformedToken)
	}

	header, err := v.decodeHeader(parts[0])
	if err != nil {
		return nil, err
	}

	key, ok := v.keys.Lookup(header.Kid)
	if !ok {
		return nil, fmt.Errorf("%w: kid %s", ErrUnknownSigningKey, header.Kid)
	}

	if err := v.verifySignature(parts, header, key); err != nil {
		return nil, err
	}

	claims, err := v.decodeClaims(parts[1])
	if err != nil {
		return nil, err
	}

	if err := v.validateClaims(claims); err != nil {
		return nil, err
	}

	return &Principal{
		Subject:  claims.Subject,
		ClientID: v.lookupClientID(ctx, raw, claims.Subject),
		Claims:   claims,
	}, nil
}

// decodeHeader reads the header without trusting it
func (v *Verifier) decodeHeader(segment string) (*tokenHeader, error) {
	data, err := v.parser.DecodeSegment(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: could not base64 decode header", ErrMalformedToken)
	}

	var header tokenHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: could not JSON decode header", ErrMalformedToken)
	}
	if header.Kid == "" {
		return nil, fmt.Errorf("%w: kid header not found", ErrMalformedToken)
	}

	return &header, nil
}

// verifySignature checks the signature with the algorithm declared by the key
func (v *Verifier) verifySignature(parts []string, header *tokenHeader, key SigningKey) error {
	alg := key.Algorithm
	if alg == "" {
		alg = header.Alg
	}
	if header.Alg != "" && header.Alg != alg {
		return fmt.Errorf("%w: header alg %s does not match key alg %s", ErrSignatureInvalid, header.Alg, alg)
	}
	if !allowedMethods[alg] {
		return fmt.Errorf("%w: signing method %q not allowed", ErrSignatureInvalid, alg)
	}

	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return fmt.Errorf("%w: signing method %q unavailable", ErrSignatureInvalid, alg)
	}

	signature, err := v.parser.DecodeSegment(parts[2])
	if err != nil {
		return fmt.Errorf("%w: could not base64 decode signature", ErrMalformedToken)
	}

	if err := method.Verify(parts[0]+"."+parts[1], signature, key.PublicKey); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	return nil
}

func (v *Verifier) decodeClaims(segment string) (*Claims, error) {
	data, err := v.parser.DecodeSegment(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: could not base64 decode claim set", ErrMalformedToken)
	}

	claims := &Claims{}
	if err := json.Unmarshal(data, claims); err != nil {
		return nil, fmt.Errorf("%w: could not JSON decode claim set", ErrMalformedToken)
	}

	return claims, nil
}

// validateClaims checks expiry, audience and the optional issuer. A token is
// valid up to and including its exp second.
func (v *Verifier) validateClaims(claims *Claims) error {
	if claims.ExpiresAt == nil {
		return fmt.Errorf("%w: exp claim not found", ErrMalformedToken)
	}
	if v.now().After(claims.ExpiresAt.Time) {
		return ErrTokenExpired
	}

	if len(claims.Audience) > 0 {
		if !audienceMatches(claims.Audience, v.appClientID) {
			return ErrAudienceMismatch
		}
	} else if v.strictAudience && claims.ClientID != v.appClientID {
		return fmt.Errorf("%w: client_id claim does not match", ErrAudienceMismatch)
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return ErrIssuerMismatch
	}

	if claims.Subject == "" {
		return fmt.Errorf("%w: sub claim not found", ErrMalformedToken)
	}

	return nil
}

// lookupClientID resolves the client ID attribute for a verified subject.
// Failures degrade to an empty client ID.
func (v *Verifier) lookupClientID(ctx context.Context, accessToken, subject string) string {
	if v.directory == nil {
		return ""
	}

	attributes, err := v.directory.UserAttributes(ctx, accessToken)
	if err != nil {
		v.logger.Warn("directory lookup failed",
			zap.String("sub", subject),
			zap.Error(err))
		return ""
	}

	clientID, ok := AttributeValue(attributes, v.clientIDAttribute)
	if !ok {
		v.logger.Info("client id attribute not found for user",
			zap.String("sub", subject),
			zap.String("attribute", v.clientIDAttribute))
		return ""
	}

	return clientID
}
