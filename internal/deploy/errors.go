package deploy

import (
	goerrors "errors"
	"fmt"
)

// ConnectError means the remote session could not be established at all:
// bad credential, unreachable host, network block. No remote state was touched.
type ConnectError struct {
	Host   string
	nested error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %s", e.Host, e.nested.Error())
}

func (e *ConnectError) Unwrap() error {
	return e.nested
}

func IsConnectError(err error) bool {
	connectError := &ConnectError{}
	return goerrors.As(err, &connectError)
}

// StepError means a deploy step returned nonzero. Prior steps are not undone.
type StepError struct {
	Step     string
	ExitCode int
	Output   string
	nested   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed with exit code %d: %s", e.Step, e.ExitCode, e.nested.Error())
}

func (e *StepError) Unwrap() error {
	return e.nested
}

func IsStepError(err error) bool {
	stepError := &StepError{}
	return goerrors.As(err, &stepError)
}
