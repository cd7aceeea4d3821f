package cognito

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the claim set of a Cognito ID or access token.
// Only trusted after the signature has been verified.
type Claims struct {
	jwt.RegisteredClaims
	ClientID        string `json:"client_id,omitempty"`
	TokenUse        string `json:"token_use,omitempty"`
	Scope           string `json:"scope,omitempty"`
	Username        string `json:"username,omitempty"`
	CognitoUsername string `json:"cognito:username,omitempty"`
}

// tokenHeader holds the header fields read before verification
type tokenHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ,omitempty"`
}

// Principal is the verified identity behind a token
type Principal struct {
	Subject  string
	ClientID string
	Claims   *Claims
}

// audienceMatches reports whether aud names exactly the expected client ID.
// A token issued for several audiences is rejected.
func audienceMatches(audiences jwt.ClaimStrings, clientID string) bool {
	return len(audiences) == 1 && audiences[0] == clientID
}
