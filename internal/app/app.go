// Package app is the minimal web application managed by the pipeline.
// Its only duty is to answer on a known port.
package app

import (
	"fmt"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/internal/config"
)

type App struct {
	config *config.Config
	logger *zap.Logger
	router *gin.Engine
}

func New(conf *config.Config, logger *zap.Logger) (*App, error) {
	if conf.App.Greeting == "" {
		return nil, errors.New("Empty app greeting")
	}
	if conf.App.ListenAddress == "" {
		return nil, errors.New("Empty app listen address")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))

	a := &App{
		config: conf,
		logger: logger,
		router: r,
	}

	r.GET("/", a.handleHome)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong "+fmt.Sprint(time.Now().Unix()))
	})

	return a, nil
}

func (a *App) handleHome(c *gin.Context) {
	c.String(http.StatusOK, a.config.App.Greeting)
}

// Router exposes the handler for in-process checks.
func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) Run() error {
	a.logger.Info("Starting app", zap.String("bind_address", a.config.App.ListenAddress))
	return a.router.Run(a.config.App.ListenAddress)
}
