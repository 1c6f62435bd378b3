package tunnel

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/agentivo/overlap/internal/config"
	"github.com/agentivo/overlap/internal/env"
)

// Provisioner runs the provisioning flow for one configuration.
type Provisioner struct {
	Provider Provider

	// Secrets is optional; nil skips the secret push.
	Secrets SecretStore

	// OutputPath is where the record is written.
	OutputPath string
}

// Result describes a completed provisioning run.
type Result struct {
	Record Record
	Path   string

	// Reused is true when an existing tunnel was found.
	Reused bool

	// SecretPushed is true when the token reached the secret store.
	SecretPushed bool

	// SecretErr holds the secret push failure, if any. It never fails the run.
	SecretErr error
}

// Run provisions the tunnel described by cfg. Provider and persistence
// failures abort the run; secret push failures are reported in Result.
func (p *Provisioner) Run(ctx context.Context, cfg env.Config) (*Result, error) {
	if p.Provider == nil {
		return nil, errors.New("tunnel: no provider configured")
	}
	if p.OutputPath == "" {
		return nil, errors.New("tunnel: no output path configured")
	}

	name := Name(cfg.Subdomain)
	publicURL := PublicURL(cfg.Subdomain, cfg.Domain)
	serviceURL := ServiceURL(cfg.Port)

	logger := log.With().Str("tunnel", name).Logger()
	logger.Info().Str("endpoint", publicURL).Msg("setting up tunnel")

	res := &Result{Path: p.OutputPath}

	existing, err := p.Provider.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tunnel %s: %w", name, err)
	}

	var tunnelID, token string
	if existing != nil {
		tunnelID = existing.ID
		res.Reused = true
		logger.Info().Str("id", tunnelID).Msg("using existing tunnel")

		token, err = p.Provider.Token(ctx, tunnelID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch token for tunnel %s: %w", tunnelID, err)
		}
	} else {
		logger.Info().Msg("creating new tunnel")

		tunnelID, token, err = p.Provider.Create(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create tunnel %s: %w", name, err)
		}
		logger.Info().Str("id", tunnelID).Msg("created tunnel")
	}

	logger.Info().Str("service", serviceURL).Msg("configuring route")
	if err := p.Provider.CreateRoute(ctx, tunnelID, cfg.Subdomain, cfg.Domain, serviceURL); err != nil {
		return nil, fmt.Errorf("failed to configure route: %w", err)
	}

	logger.Info().Str("domain", cfg.Domain).Msg("setting up DNS")
	zoneID, err := p.Provider.ZoneID(ctx, cfg.Domain)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve zone for %s: %w", cfg.Domain, err)
	}
	if err := p.Provider.EnsureDNSRecord(ctx, zoneID, cfg.Subdomain, cfg.Domain, tunnelID); err != nil {
		return nil, fmt.Errorf("failed to ensure DNS record for %s: %w", Hostname(cfg.Subdomain, cfg.Domain), err)
	}

	res.Record = Record{
		TunnelID:    tunnelID,
		TunnelName:  name,
		TunnelToken: token,
		Subdomain:   cfg.Subdomain,
		Domain:      cfg.Domain,
		URL:         publicURL,
		ServiceURL:  serviceURL,
	}
	if err := SaveRecord(p.OutputPath, res.Record); err != nil {
		return nil, err
	}
	logger.Info().Str("path", p.OutputPath).Msg("config saved")

	if p.Secrets == nil {
		return res, nil
	}

	logger.Info().Str("repo", cfg.Repo).Msgf("setting %s secret", config.SecretName)
	if err := p.Secrets.Set(ctx, config.SecretName, token, cfg.Repo); err != nil {
		logger.Debug().Err(err).Str("repo", cfg.Repo).Msg("secret push failed")
		res.SecretErr = err
		return res, nil
	}
	res.SecretPushed = true

	return res, nil
}

// ManualSecretCommand returns the command that sets the token secret by hand.
func ManualSecretCommand(repo string) string {
	return fmt.Sprintf("gh secret set %s --repo %s", config.SecretName, repo)
}
