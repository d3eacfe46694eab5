package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/internal/config"
	"github.com/stephentwig/shipgate/internal/models"
	"github.com/stephentwig/shipgate/internal/verdict"
)

type fakeTester struct {
	verdict verdict.Verdict
}

func (t *fakeTester) Run(ctx context.Context) verdict.Verdict {
	return t.verdict
}

type fakeDeployer struct {
	err     error
	calls   int32
	active  int32
	overlap int32
}

func (d *fakeDeployer) Invoke(ctx context.Context) error {
	atomic.AddInt32(&d.calls, 1)
	if atomic.AddInt32(&d.active, 1) > 1 {
		atomic.AddInt32(&d.overlap, 1)
	}
	time.Sleep(time.Millisecond * 10)
	atomic.AddInt32(&d.active, -1)
	return d.err
}

type fakeProber struct {
	err   error
	calls int
}

func (p *fakeProber) Wait(ctx context.Context) error {
	p.calls++
	return p.err
}

type fakeRecorder struct {
	mu           sync.Mutex
	added        []string
	updated      int
	lastBranch   string
	prev         *models.PipelineRun
	finishStatus models.RunStatus
	finishDeploy models.DeployStatus
}

func (r *fakeRecorder) AddRun(run *models.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, run.ID)
	return nil
}

func (r *fakeRecorder) UpdateRun(run *models.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated++
	return nil
}

func (r *fakeRecorder) FinishRun(run *models.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishStatus = run.Status
	r.finishDeploy = run.DeployStatus
	return nil
}

func (r *fakeRecorder) LastBranchRun(branch string) (*models.PipelineRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastBranch = branch
	return r.prev, nil
}

func passVerdict() verdict.Verdict {
	return verdict.New([]verdict.CheckResult{{Name: "root-route", Passed: true}})
}

func failVerdict() verdict.Verdict {
	return verdict.New([]verdict.CheckResult{
		{Name: "root-route", Passed: false, Details: "status 500"},
	})
}

func makePipeline(tester Tester, deployer Deployer, prober Prober) *Pipeline {
	return makeRecordedPipeline(tester, deployer, prober, NopRecorder{})
}

func makeRecordedPipeline(tester Tester, deployer Deployer, prober Prober, recorder Recorder) *Pipeline {
	conf := &config.Config{}
	conf.Pipeline.Branch = "main"
	return New(conf, zap.NewNop(), tester, deployer, prober, recorder, NopNotifier{}, NopReporter{})
}

func TestDeployHappensOnSuccessVerdict(t *testing.T) {
	deployer := &fakeDeployer{}
	prober := &fakeProber{}
	p := makePipeline(&fakeTester{passVerdict()}, deployer, prober)

	result, err := p.Execute(context.Background(), Trigger{Branch: "main", Commit: "abc123"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Ok() {
		t.Fatalf("Expected a successful run: %+v", result)
	}
	if deployer.calls != 1 {
		t.Fatalf("Deployer must run exactly once, ran %d times", deployer.calls)
	}
	if prober.calls != 1 {
		t.Fatalf("Prober must run exactly once, ran %d times", prober.calls)
	}
}

func TestDeploySkippedOnFailureVerdict(t *testing.T) {
	deployer := &fakeDeployer{}
	prober := &fakeProber{}
	p := makePipeline(&fakeTester{failVerdict()}, deployer, prober)

	result, err := p.Execute(context.Background(), Trigger{Branch: "main"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Ok() || result.Deployed {
		t.Fatalf("A failed verdict must never deploy: %+v", result)
	}
	if deployer.calls != 0 {
		t.Fatalf("No remote session may open on a failed verdict, deployer ran %d times", deployer.calls)
	}
	if prober.calls != 0 {
		t.Fatalf("No probe without a deployment")
	}
}

func TestConnectFailureMarksRunFailed(t *testing.T) {
	deployer := &fakeDeployer{err: errors.New("connection refused")}
	prober := &fakeProber{}
	p := makePipeline(&fakeTester{passVerdict()}, deployer, prober)

	result, err := p.Execute(context.Background(), Trigger{Branch: "main"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Ok() || result.Deployed {
		t.Fatalf("Failed invocation must not count as deployed: %+v", result)
	}
	if result.Err == nil {
		t.Fatalf("Invocation failure must surface in the result")
	}
	if prober.calls != 0 {
		t.Fatalf("No probe after a failed invocation")
	}
}

func TestUnreachableServiceMarksRunFailed(t *testing.T) {
	deployer := &fakeDeployer{}
	prober := &fakeProber{err: errors.New("service is not reachable")}
	p := makePipeline(&fakeTester{passVerdict()}, deployer, prober)

	result, err := p.Execute(context.Background(), Trigger{Branch: "main"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Ok() {
		t.Fatalf("Unreachable service must fail the run: %+v", result)
	}
	if !result.Deployed {
		t.Fatalf("The invocation itself finished, result must say so")
	}
	if result.Err == nil {
		t.Fatalf("Probe failure must surface in the result")
	}
}

func TestRunHistoryIsRecorded(t *testing.T) {
	recorder := &fakeRecorder{
		prev: &models.PipelineRun{ID: "prev", Branch: "main", Status: models.RunStatusSuccess},
	}
	p := makeRecordedPipeline(&fakeTester{failVerdict()}, &fakeDeployer{}, &fakeProber{}, recorder)

	result, err := p.Execute(context.Background(), Trigger{Branch: "main", Commit: "abc123"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if recorder.lastBranch != "main" {
		t.Fatalf("Branch history must be consulted for the triggering branch, got %q", recorder.lastBranch)
	}
	if len(recorder.added) != 1 || recorder.added[0] != result.RunID {
		t.Fatalf("Exactly one row per run, got %v", recorder.added)
	}
	if recorder.updated != 1 {
		t.Fatalf("Diagnostics must be checkpointed once, got %d updates", recorder.updated)
	}
	if recorder.finishStatus != models.RunStatusFailed || recorder.finishDeploy != models.DeployStatusSkipped {
		t.Fatalf("Outcome row mismatch: status %q, deploy %q", recorder.finishStatus, recorder.finishDeploy)
	}
}

func TestConcurrentTriggersAreSerialized(t *testing.T) {
	deployer := &fakeDeployer{}
	p := makePipeline(&fakeTester{passVerdict()}, deployer, &fakeProber{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Execute(context.Background(), Trigger{Branch: "main"}); err != nil {
				t.Errorf("Execute failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if deployer.overlap != 0 {
		t.Fatalf("Deployments must never overlap, saw %d overlaps", deployer.overlap)
	}
	if deployer.calls != 4 {
		t.Fatalf("Every queued trigger must run, ran %d of 4", deployer.calls)
	}
}
