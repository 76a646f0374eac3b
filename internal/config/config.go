package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"procdeck/internal/domain"
	"procdeck/internal/workflow"
)

// Config models procdeck.yml.
type Config struct {
	API struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"api"`
	Countries []CountryConfig `yaml:"countries"`
	Workflow  struct {
		Stages []StageConfig `yaml:"stages"`
	} `yaml:"workflow"`
}

// CountryConfig overrides the built-in country catalog when present.
type CountryConfig struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// StageConfig is one sprint stage of the workflow sequence.
type StageConfig struct {
	Name        string   `yaml:"name"`
	StatusLabel string   `yaml:"status_label"`
	Types       []string `yaml:"types"`
	ActivateTo  string   `yaml:"activate_to"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run pd init to create it", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("config.api.base_url is required")
	}
	for i, country := range c.Countries {
		if country.Code == "" {
			return fmt.Errorf("config.countries[%d] has empty code", i)
		}
		if country.Name == "" {
			return fmt.Errorf("config.countries[%d] (%s) has empty name", i, country.Code)
		}
	}
	for i, stage := range c.Workflow.Stages {
		if stage.Name == "" {
			return fmt.Errorf("config.workflow.stages[%d] has empty name", i)
		}
		if stage.StatusLabel == "" {
			return fmt.Errorf("stage %s has empty status_label", stage.Name)
		}
		if len(stage.Types) == 0 {
			return fmt.Errorf("stage %s declares no process types", stage.Name)
		}
		for _, t := range stage.Types {
			if !domain.ProcessType(t).Valid() {
				return fmt.Errorf("stage %s has unknown process type %s", stage.Name, t)
			}
		}
		if stage.ActivateTo != "" && !domain.KanbanStatus(stage.ActivateTo).OnBoard() {
			return fmt.Errorf("stage %s activates to invalid status %s", stage.Name, stage.ActivateTo)
		}
	}
	return nil
}

// Stages converts the configured sequence, falling back to the built-in one
// when the config declares none. An omitted activate_to means backlog for the
// first stage and todo after.
func (c *Config) Stages() []workflow.Stage {
	if len(c.Workflow.Stages) == 0 {
		return workflow.DefaultStages()
	}
	out := make([]workflow.Stage, 0, len(c.Workflow.Stages))
	for i, sc := range c.Workflow.Stages {
		st := workflow.Stage{
			Name:        sc.Name,
			StatusLabel: sc.StatusLabel,
			ActivateTo:  domain.KanbanStatus(sc.ActivateTo),
		}
		if sc.ActivateTo == "" {
			if i == 0 {
				st.ActivateTo = domain.KanbanBacklog
			} else {
				st.ActivateTo = domain.KanbanTodo
			}
		}
		for _, t := range sc.Types {
			st.Types = append(st.Types, domain.ProcessType(t))
		}
		out = append(out, st)
	}
	return out
}

// CountryCatalog returns the configured countries, or the built-in catalog
// when the config declares none.
func (c *Config) CountryCatalog() []domain.Country {
	if len(c.Countries) == 0 {
		return domain.Countries()
	}
	out := make([]domain.Country, 0, len(c.Countries))
	for _, cc := range c.Countries {
		out = append(out, domain.Country{Code: cc.Code, Name: cc.Name})
	}
	return out
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "procdeck.yml")
}

// Default returns the default Config struct.
func Default(baseURL string) *Config {
	cfg, err := FromYAML([]byte(GenerateDefault(baseURL)))
	if err != nil {
		panic(err)
	}
	return cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault(baseURL string) string {
	return fmt.Sprintf(defaultTemplate, baseURL)
}

const defaultTemplate = `api:
  base_url: %s

workflow:
  stages:
    - name: "Estrategia (PMBOK)"
      status_label: "Base Estratégica"
      types: [pmbok]
      activate_to: backlog

    - name: "Preparación (Scrum)"
      status_label: "Fase 0: Preparación"
      types: [scrum]
      activate_to: todo

    - name: "Planificación del Sprint"
      status_label: "Ciclo del Sprint"
      types: [scrum]
      activate_to: todo

    - name: "Ejecución Diaria (Híbrido)"
      status_label: "Ritmo Diario"
      types: [pmbok, scrum]
      activate_to: todo

    - name: "Lanzamiento y Cierre"
      status_label: "Lanzamiento y Cierre"
      types: [scrum]
      activate_to: todo
`
