package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stephentwig/shipgate/internal/models"
	"github.com/stephentwig/shipgate/pkg/client/shipgate"
)

const followInterval = time.Second * 2

func makeTriggerCommand() *cobra.Command {
	var endpoint string
	var branch string
	var commit string
	var follow bool
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Submit a synthetic push event to the pipeline server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return triggerRun(endpoint, branch, commit, follow)
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "http://localhost:8080", "Pipeline server endpoint")
	cmd.Flags().StringVar(&branch, "branch", "main", "Branch to report the push on")
	cmd.Flags().StringVar(&commit, "commit", "", "Commit sha of the push")
	cmd.Flags().BoolVar(&follow, "follow", false, "Poll the run until it finishes")

	return cmd
}

func triggerRun(endpoint, branch, commit string, follow bool) error {
	client, err := shipgate.NewClient(endpoint, os.Getenv("SHIPGATE_PIPELINE_TOKEN"))
	if err != nil {
		return err
	}

	runID, skipped, err := client.TriggerRun(branch, commit)
	if err != nil {
		return err
	}
	if skipped {
		fmt.Printf("Push to %s ignored: branch is not watched\n", branch)
		return nil
	}

	fmt.Println(runID)
	if !follow {
		return nil
	}
	return followRun(client, runID)
}

func followRun(client *shipgate.Client, id string) error {
	for {
		run, err := client.GetRun(id)
		if err != nil {
			return err
		}
		if run.FinishedAt == nil {
			time.Sleep(followInterval)
			continue
		}

		fmt.Printf("%s\t%s\t%s\n", run.ID, run.Status, run.DeployStatus)
		if run.Status != models.RunStatusSuccess {
			return errors.Errorf("run %s failed", run.ID)
		}
		return nil
	}
}
