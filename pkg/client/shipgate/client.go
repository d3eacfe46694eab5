package shipgate

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/stephentwig/shipgate/api"
	"github.com/stephentwig/shipgate/internal/models"
)

type Client struct {
	client *resty.Client
	token  string
}

func NewClient(endpoint, token string) (*Client, error) {
	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(time.Second * 10).
		SetRetryCount(3)

	return &Client{client, token}, nil
}

// TriggerRun submits a synthetic push event for the given commit.
func (c *Client) TriggerRun(branch, commit string) (runID string, skipped bool, err error) {
	res := &api.TriggerResponse{}
	_, err = c.client.R().
		SetResult(res).
		SetBody(api.PushEvent{
			Token: c.token,
			Ref:   "refs/heads/" + branch,
			After: commit,
		}).
		Post("/api/hooks/push")
	if err != nil {
		return "", false, err
	}

	if !res.Ok {
		return "", false, fmt.Errorf("failed to trigger run: %s", res.Error)
	}

	return res.RunID, res.Skipped, nil
}

func (c *Client) GetRun(id string) (*models.PipelineRun, error) {
	res := &api.RunResponse{}
	_, err := c.client.R().
		SetResult(res).
		SetPathParam("id", id).
		Get("/api/runs/{id}")
	if err != nil {
		return nil, err
	}

	if !res.Ok {
		return nil, fmt.Errorf("failed to fetch run: %s", res.Error)
	}

	return res.Run, nil
}

// ListRuns fetches recent runs; a non-empty branch narrows to that branch.
func (c *Client) ListRuns(branch string) ([]models.PipelineRun, error) {
	res := &api.RunsResponse{}
	req := c.client.R().SetResult(res)
	if branch != "" {
		req.SetQueryParam("branch", branch)
	}
	_, err := req.Get("/api/runs")
	if err != nil {
		return nil, err
	}

	if !res.Ok {
		return nil, fmt.Errorf("failed to list runs: %s", res.Error)
	}

	return res.Runs, nil
}
