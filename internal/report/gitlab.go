// Package report publishes the build verdict back to the repository host as
// a commit status, so the gate outcome is visible next to the commit.
package report

import (
	"github.com/pkg/errors"
	"github.com/xanzy/go-gitlab"
	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/internal/config"
	lf "github.com/stephentwig/shipgate/internal/logfield"
	"github.com/stephentwig/shipgate/internal/verdict"
)

const statusName = "shipgate"

type Client struct {
	config *config.Config
	gitlab *gitlab.Client
	logger *zap.Logger
}

func NewClient(conf *config.Config, logger *zap.Logger) (*Client, error) {
	client, err := gitlab.NewClient(conf.GitLab.Api.Token, gitlab.WithBaseURL(conf.GitLab.BaseURL))
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create gitlab client")
	}
	return &Client{
		config: conf,
		gitlab: client,
		logger: logger.Named("report"),
	}, nil
}

func (c *Client) ReportVerdict(commit string, v verdict.Verdict) error {
	state := gitlab.Failed
	if v.Ok() {
		state = gitlab.Success
	}

	log := c.logger.With(lf.Commit(commit), lf.Verdict(v.Outcome))
	log.Debug("Reporting commit status")

	_, _, err := c.gitlab.Commits.SetCommitStatus(c.config.GitLab.Project, commit, &gitlab.SetCommitStatusOptions{
		State:       state,
		Name:        gitlab.String(statusName),
		Description: gitlab.String(describe(v)),
	})
	if err != nil {
		log.Error("Failed to report commit status", zap.Error(err))
		return errors.Wrap(err, "Failed to report commit status")
	}

	log.Info("Reported commit status")
	return nil
}

func describe(v verdict.Verdict) string {
	if v.Ok() {
		return "all checks passed"
	}
	if failure := v.FirstFailure(); failure != nil {
		return "check failed: " + failure.Name
	}
	return "tests failed"
}
