package services

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/iota-uz/slatrack/modules/recruitment/domain/sla"
)

type stageConfigFile struct {
	Stages []sla.StageConfig `yaml:"stages"`
}

// ConfigService holds the per-stage SLA configuration. It is read once at
// startup; the board consults it on every refresh.
type ConfigService struct {
	stages map[string]sla.StageConfig
	order  []string
}

func NewConfigService(stages []sla.StageConfig) *ConfigService {
	s := &ConfigService{stages: make(map[string]sla.StageConfig, len(stages))}
	for _, cfg := range stages {
		if _, ok := s.stages[cfg.StepName]; !ok {
			s.order = append(s.order, cfg.StepName)
		}
		s.stages[cfg.StepName] = cfg
	}
	return s
}

// LoadConfigService reads stage records from a YAML file:
//
//	stages:
//	  - stepName: PRECALL
//	    plannedMinutes: 30
//	    enabled: true
func LoadConfigService(path string) (*ConfigService, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading stage config %s", path)
	}
	var file stageConfigFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrapf(err, "parsing stage config %s", path)
	}
	return NewConfigService(file.Stages), nil
}

func (s *ConfigService) Stage(stepName string) (sla.StageConfig, bool) {
	cfg, ok := s.stages[stepName]
	return cfg, ok
}

func (s *ConfigService) All() []sla.StageConfig {
	out := make([]sla.StageConfig, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.stages[name])
	}
	return out
}
