package lf

import "go.uber.org/zap"

const (
	FieldRunID     = "run_id"
	FieldBranch    = "branch"
	FieldCommit    = "commit"
	FieldCheck     = "check"
	FieldStep      = "step"
	FieldHost      = "host"
	FieldUnit      = "unit"
	FieldVerdict   = "verdict"
	FieldExitCode  = "exit_code"
	FieldToken     = "token"
	FieldRunStatus = "run_status"
)

func RunID(id string) zap.Field {
	return zap.String(FieldRunID, id)
}

func Branch(branch string) zap.Field {
	return zap.String(FieldBranch, branch)
}

func Commit(sha string) zap.Field {
	return zap.String(FieldCommit, sha)
}

func Check(name string) zap.Field {
	return zap.String(FieldCheck, name)
}

func Step(name string) zap.Field {
	return zap.String(FieldStep, name)
}

func Host(host string) zap.Field {
	return zap.String(FieldHost, host)
}

func Unit(unit string) zap.Field {
	return zap.String(FieldUnit, unit)
}

func Verdict(outcome string) zap.Field {
	return zap.String(FieldVerdict, outcome)
}

func ExitCode(code int) zap.Field {
	return zap.Int(FieldExitCode, code)
}

func Token(token string) zap.Field {
	return zap.String(FieldToken, token)
}

func RunStatus(status string) zap.Field {
	return zap.String(FieldRunStatus, status)
}
