package cognito

import (
	"context"
	"crypto"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// maxJWKSBytes caps the size of a fetched JWKS document
const maxJWKSBytes = 1 << 20

// SigningKey is one verification key from the published key set
type SigningKey struct {
	KeyID     string
	Algorithm string
	Use       string
	PublicKey crypto.PublicKey
}

// KeySet is an immutable set of signing keys indexed by key ID.
// It is built once and shared read-only between concurrent verifications.
type KeySet struct {
	keys map[string]SigningKey
}

// KeySetProvider returns the current signing key set
type KeySetProvider interface {
	KeySet(ctx context.Context) (*KeySet, error)
}

// NewKeySet builds a key set from already reconstructed keys
func NewKeySet(keys ...SigningKey) (*KeySet, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no keys", ErrInvalidKeySet)
	}

	set := &KeySet{keys: make(map[string]SigningKey, len(keys))}
	for _, key := range keys {
		if key.KeyID == "" {
			return nil, fmt.Errorf("%w: key without kid", ErrInvalidKeySet)
		}
		if key.PublicKey == nil {
			return nil, fmt.Errorf("%w: key %s has no public key material", ErrInvalidKeySet, key.KeyID)
		}
		if _, exists := set.keys[key.KeyID]; exists {
			return nil, fmt.Errorf("%w: duplicate kid %s", ErrInvalidKeySet, key.KeyID)
		}
		set.keys[key.KeyID] = key
	}

	return set, nil
}

// ParseKeySet parses a JWKS document ({"keys": [...]}) into a key set.
// Private or symmetric key material is never retained.
func ParseKeySet(data []byte) (*KeySet, error) {
	var jwks jose.JSONWebKeySet
	if err := json.Unmarshal(data, &jwks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeySet, err)
	}

	keys := make([]SigningKey, 0, len(jwks.Keys))
	for _, jwk := range jwks.Keys {
		public := jwk.Public()
		if public.Key == nil || !public.Valid() {
			return nil, fmt.Errorf("%w: key %s is not an asymmetric public key", ErrInvalidKeySet, jwk.KeyID)
		}
		keys = append(keys, SigningKey{
			KeyID:     jwk.KeyID,
			Algorithm: jwk.Algorithm,
			Use:       jwk.Use,
			PublicKey: public.Key,
		})
	}

	return NewKeySet(keys...)
}

// Lookup finds a key by exact key ID match
func (s *KeySet) Lookup(kid string) (SigningKey, bool) {
	key, ok := s.keys[kid]
	return key, ok
}

// Len returns the number of keys in the set
func (s *KeySet) Len() int {
	return len(s.keys)
}

// KeyIDs returns the key IDs in the set, sorted
func (s *KeySet) KeyIDs() []string {
	ids := make([]string, 0, len(s.keys))
	for kid := range s.keys {
		ids = append(ids, kid)
	}
	sort.Strings(ids)
	return ids
}

// JWKSProvider fetches the key set from a JWKS endpoint
type JWKSProvider struct {
	url        string
	httpClient *http.Client
}

// NewJWKSProvider creates a provider for the given JWKS URL
func NewJWKSProvider(url string, timeout time.Duration) *JWKSProvider {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &JWKSProvider{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// KeySet fetches and parses the JWKS document. Every call performs one fetch;
// callers keep the result for the lifetime of the process.
func (p *JWKSProvider) KeySet(ctx context.Context) (*KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}

	return ParseKeySet(body)
}

// JWKSURL returns the well-known JWKS URL of a Cognito user pool
func JWKSURL(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json", region, userPoolID)
}
