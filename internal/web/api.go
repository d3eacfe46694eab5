package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/api"
	lf "github.com/stephentwig/shipgate/internal/logfield"
	"github.com/stephentwig/shipgate/internal/models"
	"github.com/stephentwig/shipgate/internal/pipeline"
)

const runCacheTTL = time.Second * 10

type apiService struct {
	server *server
	log    *zap.Logger
}

func setupApiService(server *server, r *gin.Engine) {
	s := apiService{server: server, log: server.logger.Named("api")}

	r.POST("/api/hooks/push", s.handlePush)
	r.GET("/api/runs", s.listRuns)
	r.GET("/api/runs/:id", s.getRun)
}

func (s apiService) handlePush(c *gin.Context) {
	onError := func(code int, err error) {
		s.log.Warn("Failed to process push event", zap.Error(err))
		c.JSON(code, &api.TriggerResponse{
			Status: api.Status{Ok: false, Error: err.Error()},
		})
	}

	event := api.PushEvent{}
	if err := c.ShouldBindJSON(&event); err != nil {
		onError(http.StatusBadRequest, err)
		return
	}

	// Check token
	found := false
	for _, token := range s.server.config.Pipeline.Tokens {
		if token == event.Token {
			found = true
			break
		}
	}
	if !found {
		s.log.Warn("Unknown token", lf.Token(event.Token))
		onError(http.StatusUnauthorized, errors.New("Invalid or expired token"))
		return
	}

	branch, watched := watchedBranch(event.Ref, s.server.config.Pipeline.Branch)
	if !watched {
		s.log.Info("Ignoring push to unwatched ref", zap.String("ref", event.Ref))
		c.JSON(http.StatusOK, &api.TriggerResponse{
			Status:  api.Status{Ok: true},
			Skipped: true,
		})
		return
	}

	trigger := pipeline.Trigger{
		RunID:  uuid.New().String(),
		Branch: branch,
		Commit: event.After,
	}

	s.log.Info("Accepted push event", lf.RunID(trigger.RunID), lf.Branch(branch), lf.Commit(event.After))

	// The run outlives the request; queued triggers are serialized by the
	// pipeline itself.
	go func() {
		if _, err := s.server.pipeline.Execute(context.Background(), trigger); err != nil {
			s.log.Error("Failed to execute pipeline run", zap.Error(err), lf.RunID(trigger.RunID))
		}
	}()

	c.JSON(http.StatusAccepted, &api.TriggerResponse{
		Status: api.Status{Ok: true},
		RunID:  trigger.RunID,
	})
}

const refPrefix = "refs/heads/"

func watchedBranch(ref, configured string) (string, bool) {
	if !strings.HasPrefix(ref, refPrefix) {
		return "", false
	}
	branch := strings.TrimPrefix(ref, refPrefix)
	return branch, branch == configured
}

func (s apiService) getRun(c *gin.Context) {
	if s.server.db == nil {
		c.JSON(http.StatusServiceUnavailable, &api.RunResponse{
			Status: api.Status{Ok: false, Error: "run history is not configured"},
		})
		return
	}

	id := c.Param("id")
	item, err := s.server.cache.Fetch("run/"+id, runCacheTTL, func() (interface{}, error) {
		return s.server.db.FindRun(id)
	})
	if err != nil {
		c.JSON(http.StatusNotFound, &api.RunResponse{
			Status: api.Status{Ok: false, Error: "unknown run"},
		})
		return
	}

	c.JSON(http.StatusOK, &api.RunResponse{
		Status: api.Status{Ok: true},
		Run:    item.Value().(*models.PipelineRun),
	})
}

func (s apiService) listRuns(c *gin.Context) {
	if s.server.db == nil {
		c.JSON(http.StatusServiceUnavailable, &api.RunsResponse{
			Status: api.Status{Ok: false, Error: "run history is not configured"},
		})
		return
	}

	var runs []models.PipelineRun
	var err error
	if branch := c.Query("branch"); branch != "" {
		runs, err = s.server.db.ListBranchRuns(branch)
	} else {
		runs, err = s.server.db.ListRuns(20)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, &api.RunsResponse{
			Status: api.Status{Ok: false, Error: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, &api.RunsResponse{
		Status: api.Status{Ok: true},
		Runs:   runs,
	})
}
