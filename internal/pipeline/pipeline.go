// Package pipeline wires one run end-to-end: test phase, gate decision,
// deployment invocation, reachability probe.
package pipeline

import (
	"context"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/stephentwig/shipgate/internal/config"
	"github.com/stephentwig/shipgate/internal/database"
	"github.com/stephentwig/shipgate/internal/gate"
	lf "github.com/stephentwig/shipgate/internal/logfield"
	"github.com/stephentwig/shipgate/internal/models"
	"github.com/stephentwig/shipgate/internal/verdict"
)

type Tester interface {
	Run(ctx context.Context) verdict.Verdict
}

type Deployer interface {
	Invoke(ctx context.Context) error
}

type Prober interface {
	Wait(ctx context.Context) error
}

type Recorder interface {
	AddRun(run *models.PipelineRun) error
	UpdateRun(run *models.PipelineRun) error
	FinishRun(run *models.PipelineRun) error
	LastBranchRun(branch string) (*models.PipelineRun, error)
}

type Notifier interface {
	RunFailed(run *models.PipelineRun, diagnostics string)
	DeployFailed(run *models.PipelineRun, reason string)
}

type Reporter interface {
	ReportVerdict(commit string, v verdict.Verdict) error
}

// Trigger identifies the push that started the run. RunID is optional; the
// caller may pre-assign one to hand out before the run completes.
type Trigger struct {
	RunID  string
	Branch string
	Commit string
}

type Result struct {
	RunID    string
	Verdict  verdict.Verdict
	Deployed bool
	Err      error
}

// Ok reports whether the whole run succeeded: verdict success, deployment
// invoked and the service reachable afterwards.
func (r *Result) Ok() bool {
	return r.Verdict.Ok() && r.Deployed && r.Err == nil
}

type Pipeline struct {
	config *config.Config
	logger *zap.Logger

	tester   Tester
	deployer Deployer
	prober   Prober
	recorder Recorder
	notifier Notifier
	reporter Reporter

	// Runs never overlap: a second trigger queues behind the current run.
	sema *semaphore.Weighted
}

func New(
	conf *config.Config,
	logger *zap.Logger,
	tester Tester,
	deployer Deployer,
	prober Prober,
	recorder Recorder,
	notifier Notifier,
	reporter Reporter,
) *Pipeline {
	return &Pipeline{
		config:   conf,
		logger:   logger.Named("pipeline"),
		tester:   tester,
		deployer: deployer,
		prober:   prober,
		recorder: recorder,
		notifier: notifier,
		reporter: reporter,
		sema:     semaphore.NewWeighted(1),
	}
}

// Execute performs one pipeline run, strictly sequential: test phase, gate,
// deployment, probe. The returned error covers only run scheduling; test and
// deploy failures are carried in the Result.
func (p *Pipeline) Execute(ctx context.Context, trigger Trigger) (*Result, error) {
	if err := p.sema.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sema.Release(1)

	runID := trigger.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	started := time.Now()
	run := &models.PipelineRun{
		ID:           runID,
		Branch:       trigger.Branch,
		Commit:       trigger.Commit,
		Status:       models.RunStatusRunning,
		DeployStatus: models.DeployStatusSkipped,
		StartedAt:    started,
	}

	log := p.logger.With(lf.RunID(run.ID), lf.Branch(run.Branch), lf.Commit(run.Commit))
	log.Info("Starting pipeline run")

	// History lookup happens before this run's own row lands.
	prev, err := p.recorder.LastBranchRun(trigger.Branch)
	if err != nil {
		log.Warn("Failed to read branch history", zap.Error(err))
	}

	// The ledger is an audit trail, never a gate input.
	if err := p.recorder.AddRun(run); err != nil {
		if database.IsDuplicateKey(err) {
			log.Warn("Run is already recorded", zap.Error(err))
		} else {
			log.Error("Failed to record run", zap.Error(err))
		}
	}

	v := p.tester.Run(ctx)
	run.Diagnostics = v.Diagnostics()
	// Checkpoint the diagnostics so polling clients see them before the
	// deployment finishes.
	if err := p.recorder.UpdateRun(run); err != nil {
		log.Error("Failed to record diagnostics", zap.Error(err))
	}
	p.reportVerdict(log, trigger, v)

	decision := gate.Decide(v)
	if !decision.Proceed {
		log.Warn("Gate is closed, skipping deployment", zap.String("reason", decision.Reason))
		if prev != nil && prev.Status == models.RunStatusSuccess {
			log.Warn("Branch regressed", zap.String("last_good_commit", prev.Commit))
		}
		p.finish(log, run, models.RunStatusFailed, models.DeployStatusSkipped)
		p.notifier.RunFailed(run, v.Diagnostics())
		return &Result{RunID: run.ID, Verdict: v}, nil
	}

	log.Info("Gate is open, invoking deployment", zap.String("reason", decision.Reason))
	if err := p.deployer.Invoke(ctx); err != nil {
		log.Error("Deployment invocation failed", zap.Error(err))
		run.Diagnostics += "deploy: " + err.Error() + "\n"
		p.finish(log, run, models.RunStatusFailed, models.DeployStatusFailed)
		p.notifier.DeployFailed(run, err.Error())
		return &Result{RunID: run.ID, Verdict: v, Err: err}, nil
	}

	if err := p.prober.Wait(ctx); err != nil {
		log.Error("Service unreachable after deployment", zap.Error(err))
		run.Diagnostics += "probe: " + err.Error() + "\n"
		p.finish(log, run, models.RunStatusFailed, models.DeployStatusFailed)
		p.notifier.DeployFailed(run, err.Error())
		return &Result{RunID: run.ID, Verdict: v, Deployed: true, Err: err}, nil
	}

	p.finish(log, run, models.RunStatusSuccess, models.DeployStatusSuccess)
	log.Info("Pipeline run succeeded", zap.String("took", units.HumanDuration(time.Since(started))))
	return &Result{RunID: run.ID, Verdict: v, Deployed: true}, nil
}

func (p *Pipeline) reportVerdict(log *zap.Logger, trigger Trigger, v verdict.Verdict) {
	if trigger.Commit == "" {
		return
	}
	if err := p.reporter.ReportVerdict(trigger.Commit, v); err != nil {
		log.Warn("Failed to report verdict", zap.Error(err))
	}
}

func (p *Pipeline) finish(log *zap.Logger, run *models.PipelineRun, status models.RunStatus, deployStatus models.DeployStatus) {
	now := time.Now()
	run.FinishedAt = &now
	run.Status = status
	run.DeployStatus = deployStatus
	if err := p.recorder.FinishRun(run); err != nil {
		log.Error("Failed to record run outcome", zap.Error(err))
	}
	log.Info("Finished pipeline run", lf.RunStatus(status), zap.String("deploy_status", deployStatus))
}
