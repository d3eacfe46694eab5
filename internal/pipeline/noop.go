package pipeline

import (
	"github.com/stephentwig/shipgate/internal/models"
	"github.com/stephentwig/shipgate/internal/verdict"
)

// No-op collaborators for runs without a database, notifier or repository
// host configured.

type NopRecorder struct{}

func (NopRecorder) AddRun(*models.PipelineRun) error    { return nil }
func (NopRecorder) UpdateRun(*models.PipelineRun) error { return nil }
func (NopRecorder) FinishRun(*models.PipelineRun) error { return nil }

func (NopRecorder) LastBranchRun(string) (*models.PipelineRun, error) { return nil, nil }

type NopNotifier struct{}

func (NopNotifier) RunFailed(*models.PipelineRun, string)    {}
func (NopNotifier) DeployFailed(*models.PipelineRun, string) {}

type NopReporter struct{}

func (NopReporter) ReportVerdict(string, verdict.Verdict) error { return nil }
