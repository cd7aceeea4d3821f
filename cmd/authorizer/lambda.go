package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/upb/gateway-authorizer/internal/policy"
	"github.com/upb/gateway-authorizer/middleware"
	"github.com/upb/gateway-authorizer/services/authorizer"
)

// authorizeFunc is the decision entry point shared by the function runtime and tests
type authorizeFunc func(ctx context.Context, req *authorizer.Request) (*policy.Response, error)

// lambdaHandler adapts a token authorizer event to the decision flow.
// The rendered document is returned as-is; errors reach the gateway as a 500.
type lambdaHandler func(ctx context.Context, event events.APIGatewayCustomAuthorizerRequest) (*policy.Response, error)

func newLambdaHandler(svc *authorizer.Service) lambdaHandler {
	return newLambdaHandlerFunc(svc.Authorize)
}

func newLambdaHandlerFunc(authorize authorizeFunc) lambdaHandler {
	return func(ctx context.Context, event events.APIGatewayCustomAuthorizerRequest) (*policy.Response, error) {
		if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
			ctx = middleware.WithRequestID(ctx, lc.AwsRequestID)
		}
		ctx = middleware.EnsureRequestID(ctx)

		return authorize(ctx, &authorizer.Request{
			Type:               event.Type,
			AuthorizationToken: event.AuthorizationToken,
			MethodArn:          event.MethodArn,
		})
	}
}
