// Package gate holds the single correctness-critical decision of the
// pipeline: deployment proceeds if and only if the verdict is success.
package gate

import (
	"github.com/stephentwig/shipgate/internal/verdict"
)

type Decision struct {
	Proceed bool
	Reason  string
}

// Decide is a pure conditional over the verdict. No retries, no timeout,
// no side effects.
func Decide(v verdict.Verdict) Decision {
	if v.Ok() {
		return Decision{
			Proceed: true,
			Reason:  "all checks passed",
		}
	}

	reason := "verdict is not success"
	if failure := v.FirstFailure(); failure != nil {
		reason = "check failed: " + failure.Name
	}
	return Decision{
		Proceed: false,
		Reason:  reason,
	}
}
