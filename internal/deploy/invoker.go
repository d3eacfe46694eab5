// Package deploy opens a remote session and runs the deployment sequence.
package deploy

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/internal/config"
	lf "github.com/stephentwig/shipgate/internal/logfield"
)

// remoteShell is one open session factory to the deploy host. Commands run
// strictly one after another; Run blocks until the command finishes or the
// timeout drops the session.
type remoteShell interface {
	Run(command string, timeout time.Duration) (output []byte, exitCode int, err error)
	Close() error
}

type Invoker struct {
	config *config.Config
	logger *zap.Logger

	dial func() (remoteShell, error)
}

func NewInvoker(conf *config.Config, logger *zap.Logger) *Invoker {
	i := &Invoker{
		config: conf,
		logger: logger.Named("deploy").With(lf.Host(conf.Deploy.Host), lf.Unit(conf.Deploy.Unit)),
	}
	i.dial = i.dialSSH
	return i
}

// Deploy runs every playbook step in order, fail-fast. There is no rollback
// and no retry: the first nonzero exit aborts the invocation and the failure
// is surfaced to the operator. Once a step has started it runs to completion
// or the session drops; ctx is only honored between steps.
func (i *Invoker) Deploy(ctx context.Context, playbook Playbook) error {
	i.logger.Info("Opening remote session")

	shell, err := i.dial()
	if err != nil {
		i.logger.Error("Failed to open remote session", zap.Error(err))
		return &ConnectError{Host: i.config.Deploy.Host, nested: err}
	}
	defer shell.Close()

	for _, step := range playbook.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		log := i.logger.With(lf.Step(step.Name))
		log.Info("Running step", zap.String("command", step.Command))

		output, code, err := shell.Run(step.Command, step.Timeout(i.config.Deploy.StepTimeout))
		if err != nil {
			log.Error("Step failed",
				zap.Error(err),
				lf.ExitCode(code),
				zap.String("output", string(output)),
			)
			return &StepError{
				Step:     step.Name,
				ExitCode: code,
				Output:   string(output),
				nested:   err,
			}
		}

		log.Info("Step finished")
	}

	i.logger.Info("Deployment sequence finished")
	return nil
}

// Invoke resolves the configured playbook and runs it.
func (i *Invoker) Invoke(ctx context.Context) error {
	playbook, err := i.Playbook()
	if err != nil {
		return err
	}
	return i.Deploy(ctx, playbook)
}

// Status queries the supervisor for the unit state ("active", "failed", ...).
func (i *Invoker) Status(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	shell, err := i.dial()
	if err != nil {
		return "", &ConnectError{Host: i.config.Deploy.Host, nested: err}
	}
	defer shell.Close()

	output, code, err := shell.Run(StatusCommand(i.config.Deploy.Unit), i.config.Deploy.StepTimeout)
	state := strings.TrimSpace(string(output))
	if err != nil && state == "" {
		return "", &StepError{
			Step:     "status",
			ExitCode: code,
			Output:   string(output),
			nested:   err,
		}
	}
	// is-active exits nonzero for inactive units but still prints the state.
	return state, nil
}

// Playbook resolves the configured playbook, falling back to the fixed
// default sequence.
func (i *Invoker) Playbook() (Playbook, error) {
	if i.config.Deploy.Playbook != "" {
		return LoadPlaybook(i.config.Deploy.Playbook)
	}
	return DefaultPlaybook(i.config.Deploy.WorkDir, i.config.Deploy.Unit), nil
}
