package experiments

import (
	"fmt"
	"os"
	"uct/experiments/metrics"
	"uct/meta"
	"uct/searcher"

	"gopkg.in/yaml.v3"
)

// Config describes one experiment: Workers independent workers, each
// running an episode over the budget schedule InitialBudget/(step+1).
type Config struct {
	Name               string  `yaml:"name"`
	Workers            int     `yaml:"workers"`
	InitialBudget      int     `yaml:"initial_budget"`
	Steps              int     `yaml:"steps"`
	Seed               uint64  `yaml:"seed"` // worker i is seeded with Seed+i
	Scalar             float64 `yaml:"scalar"`
	DescendProbability float64 `yaml:"descend_probability"`
	CompactThreshold   int     `yaml:"compact_threshold"`
	OutDir             string  `yaml:"out_dir"` // records are skipped when empty
	Format             string  `yaml:"format"`
	Dot                bool    `yaml:"dot"` // also dump each worker's final tree
}

func DefaultConfig() Config {
	return Config{
		Name:               "uct",
		Workers:            meta.WORKERS,
		InitialBudget:      meta.INITIAL_BUDGET,
		Steps:              meta.STEPS,
		Seed:               meta.SEED,
		Scalar:             searcher.DefaultScalar,
		DescendProbability: searcher.DefaultDescendProbability,
		CompactThreshold:   searcher.DefaultCompactThreshold,
		OutDir:             meta.OUT_DIR,
		Format:             string(metrics.CSV),
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("name must not be empty")
	case c.Workers < 1:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.Steps < 1:
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	case c.InitialBudget < 1:
		return fmt.Errorf("initial budget must be positive, got %d", c.InitialBudget)
	case c.InitialBudget < c.Steps:
		// InitialBudget/(step+1) would reach zero before the last step
		return fmt.Errorf("initial budget %d must cover all %d steps", c.InitialBudget, c.Steps)
	case c.Scalar < 0:
		return fmt.Errorf("scalar must not be negative, got %v", c.Scalar)
	case c.DescendProbability < 0 || c.DescendProbability > 1:
		return fmt.Errorf("descend probability must be within [0, 1], got %v", c.DescendProbability)
	case c.CompactThreshold < 1:
		return fmt.Errorf("compact threshold must be positive, got %d", c.CompactThreshold)
	}
	if _, err := metrics.ParseFormat(c.Format); err != nil {
		return err
	}
	return nil
}

// ValidateFanOut checks c for RunFanOut, where worker i searches with
// budget InitialBudget/(i+1).
func (c Config) ValidateFanOut() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.InitialBudget < c.Workers {
		return fmt.Errorf("initial budget %d must cover all %d workers", c.InitialBudget, c.Workers)
	}
	return nil
}

// WorkerConfigs lists the setup of every worker the experiment starts.
func (c Config) WorkerConfigs() []metrics.WorkerConfig {
	configs := make([]metrics.WorkerConfig, c.Workers)
	for i := range configs {
		configs[i] = metrics.WorkerConfig{
			ID:                 i + 1,
			Seed:               c.Seed + uint64(i),
			Scalar:             c.Scalar,
			DescendProbability: c.DescendProbability,
			InitialBudget:      c.InitialBudget,
			Steps:              c.Steps,
		}
	}
	return configs
}
