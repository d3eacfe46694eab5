package models

import (
	"time"
)

const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

type RunStatus = string

const (
	DeployStatusSkipped = "skipped"
	DeployStatusSuccess = "success"
	DeployStatusFailed  = "failed"
)

type DeployStatus = string

type PipelineRun struct {
	ID     string `gorm:"primaryKey"`
	Branch string `gorm:"index"`
	Commit string

	Status       RunStatus
	DeployStatus DeployStatus
	Diagnostics  string

	StartedAt  time.Time
	FinishedAt *time.Time
}
