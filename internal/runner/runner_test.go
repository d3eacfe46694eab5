package runner

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/internal/config"
)

func testConfig() *config.Config {
	conf := &config.Config{}
	conf.App.ListenAddress = ":5000"
	conf.App.Greeting = "Joseph application"
	return conf
}

func TestSuitePassesAgainstHealthyApp(t *testing.T) {
	r := New(testConfig(), zap.NewNop())
	v := r.Run(context.Background())
	if !v.Ok() {
		t.Fatalf("Expected success verdict, diagnostics:\n%s", v.Diagnostics())
	}
	if len(v.Checks) != 3 {
		t.Fatalf("Expected 3 checks, got %d", len(v.Checks))
	}
}

func TestOneFailingCheckFailsTheRun(t *testing.T) {
	checks := []Check{
		{Name: "first", Run: func(ctx context.Context) error { return nil }},
		{Name: "second", Run: func(ctx context.Context) error { return errors.New("assertion does not hold") }},
		{Name: "third", Run: func(ctx context.Context) error { return nil }},
	}
	r := NewWithChecks(zap.NewNop(), checks)
	v := r.Run(context.Background())
	if v.Ok() {
		t.Fatalf("Expected failure verdict")
	}
	failure := v.FirstFailure()
	if failure == nil || failure.Name != "second" {
		t.Fatalf("Expected second check to be the first failure, got %+v", failure)
	}
	if len(v.Checks) != 3 {
		t.Fatalf("All checks must report, got %d", len(v.Checks))
	}
}

func TestConstructionFailureFailsRouteChecks(t *testing.T) {
	conf := testConfig()
	conf.App.Greeting = ""
	r := New(conf, zap.NewNop())
	v := r.Run(context.Background())
	if v.Ok() {
		t.Fatalf("Expected failure verdict")
	}
	failure := v.FirstFailure()
	if failure == nil || failure.Name != "app-constructs" {
		t.Fatalf("Expected construction check to fail first, got %+v", failure)
	}
	for _, check := range v.Checks {
		if check.Passed {
			t.Fatalf("No check may pass without a constructed app: %+v", check)
		}
	}
}
