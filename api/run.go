package api

import "github.com/stephentwig/shipgate/internal/models"

// PushEvent is the trigger payload. Ref follows the push-hook convention
// ("refs/heads/<branch>").
type PushEvent struct {
	Token string `json:"token" form:"token"`
	Ref   string `json:"ref" form:"ref"`
	After string `json:"after" form:"after"`
}

type TriggerResponse struct {
	Status

	RunID   string `json:"run_id,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

type RunResponse struct {
	Status

	Run *models.PipelineRun `json:"run,omitempty"`
}

type RunsResponse struct {
	Status

	Runs []models.PipelineRun `json:"runs,omitempty"`
}
