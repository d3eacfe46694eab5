package verdict

import (
	"fmt"
	"strings"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type Outcome = string

// CheckResult is the outcome of a single named check.
type CheckResult struct {
	Name    string
	Passed  bool
	Details string
}

// Verdict is the monolithic pass/fail result of one test phase.
// It is built once by the runner and consumed once by the gate.
type Verdict struct {
	Outcome Outcome
	Checks  []CheckResult
}

// New derives the outcome from the check results: success iff every check passed.
func New(checks []CheckResult) Verdict {
	outcome := OutcomeSuccess
	for _, check := range checks {
		if !check.Passed {
			outcome = OutcomeFailure
			break
		}
	}
	return Verdict{
		Outcome: outcome,
		Checks:  checks,
	}
}

func (v Verdict) Ok() bool {
	return v.Outcome == OutcomeSuccess
}

// FirstFailure returns the first failed check, if any.
func (v Verdict) FirstFailure() *CheckResult {
	for i := range v.Checks {
		if !v.Checks[i].Passed {
			return &v.Checks[i]
		}
	}
	return nil
}

// Diagnostics renders one human-readable line per check.
func (v Verdict) Diagnostics() string {
	var sb strings.Builder
	for _, check := range v.Checks {
		if check.Passed {
			fmt.Fprintf(&sb, "ok   %s\n", check.Name)
		} else {
			fmt.Fprintf(&sb, "FAIL %s: %s\n", check.Name, check.Details)
		}
	}
	return sb.String()
}
