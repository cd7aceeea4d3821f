package app

import (
	"context"
	"fmt"

	"github.com/upb/gateway-authorizer/cognito"
	"github.com/upb/gateway-authorizer/config"
	"github.com/upb/gateway-authorizer/services/authorizer"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Identity
	Keys      *cognito.KeySet
	Directory cognito.Directory
	Verifier  *cognito.Verifier

	// Decision flow
	Authorizer *authorizer.Service
}

// NewDependencies creates and wires up all application dependencies.
// The signing key set is fetched exactly once here and shared read-only
// by every decision for the lifetime of the process.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	provider := cognito.NewJWKSProvider(cfg.Cognito.JWKSURL(), cfg.Authorizer.JWKSFetchTimeout)
	return NewDependenciesWithProvider(ctx, cfg, logger, provider)
}

// NewDependenciesWithProvider wires dependencies around an explicit key set source
func NewDependenciesWithProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger, provider cognito.KeySetProvider) (*Dependencies, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Load the signing key set
	if err := deps.initKeys(ctx, provider); err != nil {
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}

	// Initialize the user directory (optional)
	if err := deps.initDirectory(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize user directory: %w", err)
	}

	deps.initAuthorizer(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initKeys fetches the key set once
func (d *Dependencies) initKeys(ctx context.Context, provider cognito.KeySetProvider) error {
	keys, err := provider.KeySet(ctx)
	if err != nil {
		return err
	}

	d.Keys = keys
	d.Logger.Info("signing keys loaded",
		zap.Int("count", keys.Len()),
		zap.Strings("kids", keys.KeyIDs()))

	return nil
}

// initDirectory builds the Cognito directory client when lookups are enabled
func (d *Dependencies) initDirectory(cfg *config.Config) error {
	if !cfg.Authorizer.DirectoryLookupEnabled {
		d.Logger.Warn("directory lookup disabled, client id context will be empty")
		return nil
	}

	directory, err := cognito.NewCognitoDirectory(cfg.Cognito.Region)
	if err != nil {
		return err
	}

	d.Directory = directory
	d.Logger.Info("user directory initialized",
		zap.String("region", cfg.Cognito.Region),
		zap.String("attribute", cfg.Authorizer.ClientIDAttribute))

	return nil
}

// initAuthorizer wires the verifier and the decision flow
func (d *Dependencies) initAuthorizer(cfg *config.Config) {
	var issuer string
	if cfg.Authorizer.VerifyIssuer {
		issuer = cfg.Cognito.Issuer()
	}

	d.Verifier = cognito.NewVerifier(d.Keys, d.Directory, cognito.VerifierConfig{
		AppClientID:       cfg.Cognito.ClientID,
		ClientIDAttribute: cfg.Authorizer.ClientIDAttribute,
		StrictAudience:    cfg.Authorizer.StrictAudience,
		Issuer:            issuer,
	}, d.Logger)

	d.Authorizer = authorizer.NewService(d.Verifier, d.Logger)
	d.Logger.Info("authorizer initialized",
		zap.Bool("strict_audience", cfg.Authorizer.StrictAudience),
		zap.String("required_issuer", issuer))
}

// KeyCount returns the number of loaded signing keys
func (d *Dependencies) KeyCount() int {
	if d.Keys == nil {
		return 0
	}
	return d.Keys.Len()
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	if d.Logger == nil {
		return nil
	}

	d.Logger.Info("shutting down dependencies")
	_ = d.Logger.Sync()

	return nil
}
