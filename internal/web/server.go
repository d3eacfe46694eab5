package web

import (
	"fmt"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/karlseguin/ccache/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/internal/config"
	"github.com/stephentwig/shipgate/internal/database"
	"github.com/stephentwig/shipgate/internal/deploy"
	"github.com/stephentwig/shipgate/internal/notify"
	"github.com/stephentwig/shipgate/internal/pipeline"
	"github.com/stephentwig/shipgate/internal/probe"
	"github.com/stephentwig/shipgate/internal/report"
	"github.com/stephentwig/shipgate/internal/runner"
)

type server struct {
	config   *config.Config
	logger   *zap.Logger
	db       *database.DataBase
	pipeline *pipeline.Pipeline
	cache    *ccache.Cache
}

func newServer(conf *config.Config, logger *zap.Logger, db *database.DataBase, p *pipeline.Pipeline) *server {
	return &server{
		config:   conf,
		logger:   logger,
		db:       db,
		pipeline: p,
		cache:    ccache.New(ccache.Configure().MaxSize(1024)),
	}
}

func (s *server) run() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(s.logger, true))

	setupApiService(s, r)

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong "+fmt.Sprint(time.Now().Unix()))
	})

	s.logger.Info("Starting server", zap.String("bind_address", s.config.Server.ListenAddress))
	return r.Run(s.config.Server.ListenAddress)
}

func Run(logger *zap.Logger) error {
	conf, err := config.ParseConfig()
	if err != nil {
		return err
	}

	var db *database.DataBase
	var recorder pipeline.Recorder = pipeline.NopRecorder{}
	if conf.DataBase.Host != "" {
		db, err = database.OpenDataBase(logger, conf.DatabaseDSN())
		if err != nil {
			return errors.Wrap(err, "Failed to open database")
		}
		recorder = db
	}

	var notifier pipeline.Notifier = pipeline.NopNotifier{}
	if conf.Telegram.BotToken != "" {
		bot, err := notify.NewBot(conf, logger)
		if err != nil {
			return errors.Wrap(err, "Failed to create telegram bot")
		}
		notifier = bot
	}

	var reporter pipeline.Reporter = pipeline.NopReporter{}
	if conf.GitLab.Api.Token != "" {
		client, err := report.NewClient(conf, logger)
		if err != nil {
			return errors.Wrap(err, "Failed to create report client")
		}
		reporter = client
	}

	p := pipeline.New(
		conf,
		logger,
		runner.New(conf, logger),
		deploy.NewInvoker(conf, logger),
		probe.New(conf, logger),
		recorder,
		notifier,
		reporter,
	)

	s := newServer(conf, logger, db, p)
	return errors.Wrap(s.run(), "Server failed")
}
