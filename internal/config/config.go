package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/stephentwig/shipgate/pkg/conf"
)

type Config struct {
	Server struct {
		ListenAddress string
	}

	App struct {
		ListenAddress string
		Greeting      string
	}

	Pipeline struct {
		Branch string
		Tokens []string
	}

	Deploy struct {
		Host           string
		Port           uint16
		User           string
		KeyFile        string
		KeyData        string
		KnownHostsFile string
		Unit           string
		WorkDir        string
		Playbook       string
		StepTimeout    time.Duration
	}

	Probe struct {
		URL          string
		ExpectedBody string
		Timeout      time.Duration
	}

	DataBase struct {
		Host string
		Port uint16
		User string
		Pass string
		Name string
	}

	Telegram struct {
		BotToken string
		ChatID   int64
	}

	GitLab struct {
		BaseURL string
		Project string
		Api     struct {
			Token string
		}
	}
}

func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.DataBase.Host, c.DataBase.Port, c.DataBase.User, c.DataBase.Pass, c.DataBase.Name)
}

func ParseConfig() (*Config, error) {
	config := &Config{}
	err := conf.ParseConfig(config,
		conf.EnvPrefix("SHIPGATE"),
		conf.Defaults(map[string]interface{}{
			"server.listenaddress": ":8080",
			"app.listenaddress":    ":5000",
			"app.greeting":         "Joseph application",
			"pipeline.branch":      "main",
			"deploy.port":          22,
			"deploy.unit":          "app.service",
			"deploy.workdir":       "~/app",
			"deploy.steptimeout":   "10m",
			"probe.timeout":        "30s",
			"database.port":        5432,
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to parse config")
	}
	return config, nil
}
