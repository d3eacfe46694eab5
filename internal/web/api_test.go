package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/api"
	"github.com/stephentwig/shipgate/internal/config"
	"github.com/stephentwig/shipgate/internal/pipeline"
	"github.com/stephentwig/shipgate/internal/verdict"
)

type stubTester struct{}

func (stubTester) Run(context.Context) verdict.Verdict { return verdict.New(nil) }

type stubDeployer struct{}

func (stubDeployer) Invoke(context.Context) error { return nil }

type stubProber struct{}

func (stubProber) Wait(context.Context) error { return nil }

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	conf := &config.Config{}
	conf.Pipeline.Branch = "main"
	conf.Pipeline.Tokens = []string{"secret"}

	p := pipeline.New(conf, zap.NewNop(), stubTester{}, stubDeployer{}, stubProber{},
		pipeline.NopRecorder{}, pipeline.NopNotifier{}, pipeline.NopReporter{})

	r := gin.New()
	setupApiService(newServer(conf, zap.NewNop(), nil, p), r)
	return r
}

func postPush(t *testing.T, r *gin.Engine, event api.PushEvent) (int, api.TriggerResponse) {
	t.Helper()

	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/hooks/push", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	res := api.TriggerResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("Failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	return w.Code, res
}

func TestPushRejectsUnknownToken(t *testing.T) {
	r := newTestRouter()

	code, res := postPush(t, r, api.PushEvent{Token: "wrong", Ref: "refs/heads/main"})
	if code != http.StatusUnauthorized {
		t.Fatalf("Unknown token must get 401, got %d", code)
	}
	if res.Ok || res.RunID != "" {
		t.Fatalf("Rejected push must not start a run: %+v", res)
	}
}

func TestPushStartsRunOnWatchedBranch(t *testing.T) {
	r := newTestRouter()

	code, res := postPush(t, r, api.PushEvent{Token: "secret", Ref: "refs/heads/main", After: "abc123"})
	if code != http.StatusAccepted {
		t.Fatalf("Watched branch must get 202, got %d", code)
	}
	if !res.Ok || res.Skipped {
		t.Fatalf("Watched branch must not be skipped: %+v", res)
	}
	if res.RunID == "" {
		t.Fatalf("Accepted push must hand out a run id")
	}
}

func TestPushSkipsUnwatchedRef(t *testing.T) {
	r := newTestRouter()

	for _, ref := range []string{"refs/heads/develop", "refs/tags/v1.0.0"} {
		code, res := postPush(t, r, api.PushEvent{Token: "secret", Ref: ref})
		if code != http.StatusOK {
			t.Fatalf("Unwatched ref %q must be acknowledged with 200, got %d", ref, code)
		}
		if !res.Ok || !res.Skipped {
			t.Fatalf("Unwatched ref %q must be skipped: %+v", ref, res)
		}
		if res.RunID != "" {
			t.Fatalf("Skipped push must not start a run: %+v", res)
		}
	}
}

func TestRunsUnavailableWithoutHistory(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Run history without a database must get 503, got %d", w.Code)
	}
}

func TestWatchedBranch(t *testing.T) {
	for _, tc := range []struct {
		ref     string
		watched bool
	}{
		{"refs/heads/main", true},
		{"refs/heads/develop", false},
		{"refs/tags/v1.0.0", false},
		{"main", false},
		{"", false},
	} {
		_, watched := watchedBranch(tc.ref, "main")
		if watched != tc.watched {
			t.Fatalf("watchedBranch(%q): got %v, expected %v", tc.ref, watched, tc.watched)
		}
	}
}
