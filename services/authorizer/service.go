package authorizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/upb/gateway-authorizer/cognito"
	"github.com/upb/gateway-authorizer/internal/observability"
	"github.com/upb/gateway-authorizer/internal/policy"
	"github.com/upb/gateway-authorizer/services"
	"github.com/upb/gateway-authorizer/utils"
	"go.uber.org/zap"
)

// ContextClientID is the context key carrying the caller's client identifier
const ContextClientID = "clientId"

// Request is one authorizer invocation as delivered by API Gateway
type Request struct {
	Type               string `json:"type" validate:"omitempty,oneof=TOKEN REQUEST"`
	AuthorizationToken string `json:"authorizationToken"`
	MethodArn          string `json:"methodArn" validate:"required,startswith=arn:"`
}

// TokenVerifier verifies a raw token and returns the verified principal
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*cognito.Principal, error)
}

// Service turns authorizer requests into policy documents
type Service struct {
	verifier TokenVerifier
	logger   observability.Logger
}

// NewService creates a new authorizer Service
func NewService(verifier TokenVerifier, logger *zap.Logger) *Service {
	return &Service{
		verifier: verifier,
		logger:   observability.NewContextLogger(logger),
	}
}

// Authorize runs one decision: verify the token, then render an allow-all
// document for the verified subject or a deny-all document for an anonymous
// principal. Verification failures never surface as errors; returned errors
// are request or construction faults.
func (s *Service) Authorize(ctx context.Context, req *Request) (*policy.Response, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, services.ErrInvalidRequest.Wrap(err)
	}

	scope, route, err := policy.ParseMethodARN(req.MethodArn)
	if err != nil {
		return nil, services.ErrInvalidRequest.Wrap(err)
	}

	principal, err := s.verifier.Verify(ctx, bearerToken(req.AuthorizationToken))
	if err != nil {
		s.logger.Warn(ctx, "token verification failed",
			zap.String("reason", cognito.Reason(err)),
			zap.String("api_id", scope.APIID),
			zap.String("stage", scope.Stage),
			zap.Error(err))
		return s.deny(scope)
	}

	resp, err := s.allow(principal, scope)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "request authorized",
		zap.String("sub", principal.Subject),
		zap.Bool("client_id_resolved", principal.ClientID != ""),
		zap.String("api_id", scope.APIID),
		zap.String("stage", scope.Stage),
		zap.String("method", string(route.Verb)),
		zap.String("path", route.Path))

	return resp, nil
}

func (s *Service) allow(principal *cognito.Principal, scope policy.Scope) (*policy.Response, error) {
	builder := policy.NewBuilder(principal.Subject, scope)
	if err := builder.AllowAll(); err != nil {
		return nil, services.ErrPolicyConstruction.Wrap(fmt.Errorf("allow rule: %w", err))
	}

	resp, err := builder.Build()
	if err != nil {
		return nil, services.ErrPolicyConstruction.Wrap(fmt.Errorf("build allow policy: %w", err))
	}

	return resp.WithContext(map[string]string{ContextClientID: principal.ClientID}), nil
}

func (s *Service) deny(scope policy.Scope) (*policy.Response, error) {
	builder := policy.NewBuilder("", scope)
	if err := builder.DenyAll(); err != nil {
		return nil, services.ErrPolicyConstruction.Wrap(fmt.Errorf("deny rule: %w", err))
	}

	resp, err := builder.Build()
	if err != nil {
		return nil, services.ErrPolicyConstruction.Wrap(fmt.Errorf("build deny policy: %w", err))
	}

	return resp.WithContext(nil), nil
}

// bearerToken strips an optional "Bearer " scheme prefix
func bearerToken(raw string) string {
	raw = strings.TrimSpace(raw)
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return raw
}
