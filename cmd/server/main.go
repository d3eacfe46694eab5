package main

import (
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/internal/web"
	zlog "github.com/stephentwig/shipgate/pkg/log"
)

func run() error {
	var logger *zap.Logger
	if path := os.Getenv("SHIPGATE_SERVER_LOGFILE"); path != "" {
		logger = zlog.InitProdFile(path)
	} else {
		logger = zlog.InitProd()
	}
	defer zlog.Sync()

	return web.Run(logger)
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("%+v\n", err)
	}
}
