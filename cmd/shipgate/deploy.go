package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/internal/config"
	"github.com/stephentwig/shipgate/internal/deploy"
)

func makeDeployCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Run the deployment sequence without the test phase (manual override)",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.ParseConfig()
			if err != nil {
				return err
			}

			log.Warn("Deploying without a verdict, the gate is bypassed")
			return deploy.NewInvoker(conf, log).Invoke(cmd.Context())
		},
	}
}

func makeStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Query the managed unit state on the deploy host",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.ParseConfig()
			if err != nil {
				return err
			}

			state, err := deploy.NewInvoker(conf, log).Status(cmd.Context())
			if err != nil {
				return err
			}

			log.Info("Unit state",
				zap.String("unit", conf.Deploy.Unit),
				zap.String("state", state),
			)
			return nil
		},
	}
}
