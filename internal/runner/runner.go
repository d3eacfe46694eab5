// Package runner executes the fixed check suite and produces the build verdict.
package runner

import (
	"context"

	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/internal/config"
	lf "github.com/stephentwig/shipgate/internal/logfield"
	"github.com/stephentwig/shipgate/internal/verdict"
)

type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

type Runner struct {
	logger *zap.Logger
	checks []Check
}

func New(conf *config.Config, logger *zap.Logger) *Runner {
	return NewWithChecks(logger, appChecks(conf, logger))
}

func NewWithChecks(logger *zap.Logger, checks []Check) *Runner {
	return &Runner{
		logger: logger.Named("runner"),
		checks: checks,
	}
}

// Run executes every check in order and derives the verdict.
// Checks after a failure still run for their diagnostics, but the
// verdict is monolithic: one failure fails the whole phase.
func (r *Runner) Run(ctx context.Context) verdict.Verdict {
	results := make([]verdict.CheckResult, 0, len(r.checks))
	for _, check := range r.checks {
		log := r.logger.With(lf.Check(check.Name))
		log.Debug("Running check")

		if err := check.Run(ctx); err != nil {
			log.Warn("Check failed", zap.Error(err))
			results = append(results, verdict.CheckResult{
				Name:    check.Name,
				Passed:  false,
				Details: err.Error(),
			})
			continue
		}

		log.Info("Check passed")
		results = append(results, verdict.CheckResult{
			Name:   check.Name,
			Passed: true,
		})
	}

	v := verdict.New(results)
	r.logger.Info("Finished test phase", lf.Verdict(v.Outcome))
	return v
}
