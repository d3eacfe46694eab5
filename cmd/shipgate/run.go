package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stephentwig/shipgate/internal/config"
	"github.com/stephentwig/shipgate/internal/database"
	"github.com/stephentwig/shipgate/internal/deploy"
	"github.com/stephentwig/shipgate/internal/notify"
	"github.com/stephentwig/shipgate/internal/pipeline"
	"github.com/stephentwig/shipgate/internal/probe"
	"github.com/stephentwig/shipgate/internal/report"
	"github.com/stephentwig/shipgate/internal/runner"
)

func makeRunCommand() *cobra.Command {
	var commit string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline once: test, gate, deploy, probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, commit)
		},
	}
	cmd.Flags().StringVar(&commit, "commit", "", "Commit under test (reported to the repository host if configured)")

	return cmd
}

func runPipeline(cmd *cobra.Command, commit string) error {
	conf, err := config.ParseConfig()
	if err != nil {
		return err
	}

	p, err := buildPipeline(conf)
	if err != nil {
		return err
	}

	result, err := p.Execute(cmd.Context(), pipeline.Trigger{
		Branch: conf.Pipeline.Branch,
		Commit: commit,
	})
	if err != nil {
		return err
	}

	if !result.Verdict.Ok() {
		return errors.New("tests failed, deployment skipped")
	}
	if result.Err != nil {
		return errors.Wrap(result.Err, "deployment failed")
	}
	return nil
}

func buildPipeline(conf *config.Config) (*pipeline.Pipeline, error) {
	var recorder pipeline.Recorder = pipeline.NopRecorder{}
	if conf.DataBase.Host != "" {
		db, err := database.OpenDataBase(log, conf.DatabaseDSN())
		if err != nil {
			return nil, errors.Wrap(err, "Failed to open database")
		}
		recorder = db
	}

	var notifier pipeline.Notifier = pipeline.NopNotifier{}
	if conf.Telegram.BotToken != "" {
		bot, err := notify.NewBot(conf, log)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to create telegram bot")
		}
		notifier = bot
	}

	var reporter pipeline.Reporter = pipeline.NopReporter{}
	if conf.GitLab.Api.Token != "" {
		client, err := report.NewClient(conf, log)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to create report client")
		}
		reporter = client
	}

	return pipeline.New(
		conf,
		log,
		runner.New(conf, log),
		deploy.NewInvoker(conf, log),
		probe.New(conf, log),
		recorder,
		notifier,
		reporter,
	), nil
}
