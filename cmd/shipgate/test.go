package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stephentwig/shipgate/internal/config"
	"github.com/stephentwig/shipgate/internal/runner"
)

func makeTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run the check suite and report the verdict",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd)
		},
	}
}

// Exit status is the verdict: 0 opens the gate, nonzero keeps it closed.
func runTests(cmd *cobra.Command) error {
	conf, err := config.ParseConfig()
	if err != nil {
		return err
	}

	v := runner.New(conf, log).Run(cmd.Context())
	fmt.Print(v.Diagnostics())

	if !v.Ok() {
		return errors.New("verdict: failure")
	}
	fmt.Println("verdict: success")
	return nil
}
