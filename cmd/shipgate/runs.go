package main

import (
	"fmt"
	"os"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/stephentwig/shipgate/internal/models"
	"github.com/stephentwig/shipgate/pkg/client/shipgate"
)

func makeRunsCommand() *cobra.Command {
	var endpoint string
	var branch string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpRuns(endpoint, branch)
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "http://localhost:8080", "Pipeline server endpoint")
	cmd.Flags().StringVar(&branch, "branch", "", "Show only runs for this branch")

	return cmd
}

func dumpRuns(endpoint, branch string) error {
	client, err := shipgate.NewClient(endpoint, os.Getenv("SHIPGATE_PIPELINE_TOKEN"))
	if err != nil {
		return err
	}

	runs, err := client.ListRuns(branch)
	if err != nil {
		return err
	}

	for _, run := range runs {
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Branch, run.Status, run.DeployStatus, runAge(&run))
	}

	return nil
}

func runAge(run *models.PipelineRun) string {
	return units.HumanDuration(time.Since(run.StartedAt)) + " ago"
}
