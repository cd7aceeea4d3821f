package cognito

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider/cognitoidentityprovideriface"
)

// Attribute is a single name/value user attribute
type Attribute struct {
	Name  string
	Value string
}

// Directory looks up the attributes of the user an access token belongs to
type Directory interface {
	UserAttributes(ctx context.Context, accessToken string) ([]Attribute, error)
}

// CognitoDirectory reads user attributes from a Cognito user pool
type CognitoDirectory struct {
	svc cognitoidentityprovideriface.CognitoIdentityProviderAPI
}

// NewCognitoDirectory creates a directory backed by the Cognito Identity Provider API
func NewCognitoDirectory(region string) (*CognitoDirectory, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewCognitoDirectoryWithClient(cognitoidentityprovider.New(sess)), nil
}

// NewCognitoDirectoryWithClient wraps an existing Cognito client
func NewCognitoDirectoryWithClient(svc cognitoidentityprovideriface.CognitoIdentityProviderAPI) *CognitoDirectory {
	return &CognitoDirectory{svc: svc}
}

// UserAttributes calls GetUser with the caller's access token. This is a
// read-only call.
func (d *CognitoDirectory) UserAttributes(ctx context.Context, accessToken string) ([]Attribute, error) {
	out, err := d.svc.GetUserWithContext(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	attributes := make([]Attribute, 0, len(out.UserAttributes))
	for _, attr := range out.UserAttributes {
		if attr == nil || attr.Name == nil {
			continue
		}
		attributes = append(attributes, Attribute{
			Name:  aws.StringValue(attr.Name),
			Value: aws.StringValue(attr.Value),
		})
	}

	return attributes, nil
}

// AttributeValue returns the value of the named attribute
func AttributeValue(attributes []Attribute, name string) (string, bool) {
	for _, attr := range attributes {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}
