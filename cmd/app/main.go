package main

import (
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"
	zlog "github.com/stephentwig/shipgate/pkg/log"

	"github.com/stephentwig/shipgate/internal/app"
	"github.com/stephentwig/shipgate/internal/config"
)

func run() error {
	initLog := zlog.InitProd
	if os.Getenv("SHIPGATE_DEV") != "" {
		initLog = zlog.InitDev
	}
	logger := initLog()
	defer zlog.Sync()

	conf, err := config.ParseConfig()
	if err != nil {
		return err
	}

	a, err := app.New(conf, logger)
	if err != nil {
		return err
	}

	return a.Run()
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("%+v\n", err)
	}
}
