// Package probe verifies the application answers on its fixed port after a
// restart.
package probe

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/internal/config"
)

type Probe struct {
	config *config.Config
	logger *zap.Logger
	client *resty.Client
}

func New(conf *config.Config, logger *zap.Logger) *Probe {
	client := resty.New().
		SetTimeout(time.Second * 5)

	return &Probe{
		config: conf,
		logger: logger.Named("probe"),
		client: client,
	}
}

// Wait polls the reachability route with exponential backoff until it answers
// with the expected status and body, or the probe budget is exhausted.
func (p *Probe) Wait(ctx context.Context) error {
	if p.config.Probe.URL == "" {
		p.logger.Info("No probe url configured, skipping reachability check")
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = p.config.Probe.Timeout

	attempt := 0
	operation := func() error {
		attempt++
		err := p.check(ctx)
		if err != nil {
			p.logger.Debug("Probe attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))
	if err != nil {
		p.logger.Warn("Service is not reachable", zap.String("url", p.config.Probe.URL), zap.Error(err))
		return errors.Wrap(err, "Service is not reachable")
	}

	p.logger.Info("Service is reachable", zap.String("url", p.config.Probe.URL), zap.Int("attempts", attempt))
	return nil
}

func (p *Probe) check(ctx context.Context) error {
	resp, err := p.client.R().SetContext(ctx).Get(p.config.Probe.URL)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.Errorf("Unexpected status %d", resp.StatusCode())
	}
	if expected := p.config.Probe.ExpectedBody; expected != "" {
		if !strings.Contains(resp.String(), expected) {
			return errors.Errorf("Unexpected body %q", resp.String())
		}
	}
	return nil
}
