package deploy

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Step struct {
	Name           string `yaml:"step"`
	Command        string `yaml:"command"`
	TimeoutSeconds int64  `yaml:"timeout_seconds,omitempty"`
}

func (s Step) Timeout(fallback time.Duration) time.Duration {
	if s.TimeoutSeconds > 0 {
		return time.Duration(s.TimeoutSeconds) * time.Second
	}
	return fallback
}

// Playbook is the ordered deployment command sequence.
type Playbook struct {
	Steps []Step `yaml:"steps"`
}

// DefaultPlaybook encodes the fixed sequence: fetch latest revision,
// refresh dependencies, restart the managed unit.
func DefaultPlaybook(workdir, unit string) Playbook {
	return Playbook{
		Steps: []Step{
			{
				Name:    "fetch",
				Command: fmt.Sprintf("cd %s && git pull --ff-only", workdir),
			},
			{
				Name:    "refresh-deps",
				Command: fmt.Sprintf("cd %s && go mod download", workdir),
			},
			{
				Name:    "restart",
				Command: RestartCommand(unit),
			},
		},
	}
}

func LoadPlaybook(path string) (Playbook, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Playbook{}, errors.Wrap(err, "Failed to read playbook")
	}
	return ParsePlaybook(body)
}

func ParsePlaybook(body []byte) (Playbook, error) {
	playbook := Playbook{}
	if err := yaml.Unmarshal(body, &playbook); err != nil {
		return Playbook{}, errors.Wrap(err, "Failed to unmarshal playbook")
	}

	if len(playbook.Steps) == 0 {
		return Playbook{}, errors.New("Playbook has no steps")
	}
	for i, step := range playbook.Steps {
		if step.Name == "" {
			return Playbook{}, errors.Errorf("Step %d has no name", i)
		}
		if step.Command == "" {
			return Playbook{}, errors.Errorf("Step %q has no command", step.Name)
		}
	}

	return playbook, nil
}
