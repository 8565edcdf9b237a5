package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynsm/internal/bc"
	"github.com/san-kum/dynsm/internal/contact"
	"github.com/san-kum/dynsm/internal/dynamo"
	"github.com/san-kum/dynsm/internal/mesh"
	"github.com/san-kum/dynsm/internal/model"
	"github.com/san-kum/dynsm/internal/storage"
)

const (
	DefaultScheme          = "explicit"
	DefaultOutputFrequency = 10
	DefaultOutputDir       = "runs"
)

// Config is an input deck.
type Config struct {
	Name            string  `yaml:"name"`
	Scheme          string  `yaml:"time_integration_scheme"`
	FinalTime       float64 `yaml:"final_time"`
	NumLoadSteps    int     `yaml:"number_of_load_steps"`
	OutputFrequency int     `yaml:"output_frequency"`
	Ranks           int     `yaml:"ranks"`
	// Workers bounds the goroutines of each participant's element loops;
	// zero means one per CPU.
	Workers int `yaml:"workers,omitempty"`

	Blocks             []mesh.BlockSpec          `yaml:"blocks"`
	Materials          map[string]model.Material `yaml:"materials"`
	BoundaryConditions []bc.Condition            `yaml:"boundary_conditions,omitempty"`
	InitialVelocities  []bc.InitialVelocity      `yaml:"initial_velocities,omitempty"`

	// Contact holds a contact command line; empty disables contact.
	Contact              string `yaml:"contact,omitempty"`
	ContactVisualization bool   `yaml:"contact_visualization,omitempty"`

	Output          OutputConfig `yaml:"output"`
	WriteTimingData bool         `yaml:"write_timing_data,omitempty"`
}

type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// Env holds the environment overrides of a deck.
type Env struct {
	OutputDir    string `env:"DYNSM_OUTPUT_DIR"`
	OutputFormat string `env:"DYNSM_OUTPUT_FORMAT"`
	Ranks        int    `env:"DYNSM_RANKS"`
	WriteTiming  string `env:"DYNSM_WRITE_TIMING"`
	LogLevel     string `env:"DYNSM_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"DYNSM_LOG_FORMAT" envDefault:"text"`
	OTelEndpoint string `env:"DYNSM_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"DYNSM_OTEL_ENABLED" envDefault:"true"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:            "run",
		Scheme:          DefaultScheme,
		OutputFrequency: DefaultOutputFrequency,
		Ranks:           1,
		Output: OutputConfig{
			Dir:    DefaultOutputDir,
			Format: storage.FormatCSV,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParseEnv loads the environment overrides.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// ApplyEnv overrides deck values with the set environment values.
func (c *Config) ApplyEnv(e Env) error {
	if e.OutputDir != "" {
		c.Output.Dir = e.OutputDir
	}
	if e.OutputFormat != "" {
		c.Output.Format = e.OutputFormat
	}
	if e.Ranks > 0 {
		c.Ranks = e.Ranks
	}
	if e.WriteTiming != "" {
		v, err := strconv.ParseBool(e.WriteTiming)
		if err != nil {
			return fmt.Errorf("%w: DYNSM_WRITE_TIMING=%q", dynamo.ErrInvalidConfig, e.WriteTiming)
		}
		c.WriteTimingData = v
	}
	return nil
}

func (c *Config) Schedule() dynamo.Schedule {
	return dynamo.Schedule{
		FinalTime:       c.FinalTime,
		NumLoadSteps:    c.NumLoadSteps,
		OutputFrequency: c.OutputFrequency,
	}
}

// ContactCommand parses the contact line, returning nil when contact is off.
func (c *Config) ContactCommand() (*contact.Command, error) {
	if c.Contact == "" {
		return nil, nil
	}
	cmd, err := contact.ParseCommand(c.Contact)
	if err != nil {
		return nil, err
	}
	return &cmd, nil
}

// Validate reports every problem of the deck at once. The integration
// scheme is left to the driver.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{dynamo.ErrInvalidConfig}, args...)...))
	}

	if err := c.Schedule().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Ranks < 1 {
		add("ranks must be at least 1, got %d", c.Ranks)
	}
	if c.Workers < 0 {
		add("workers must be non-negative, got %d", c.Workers)
	}
	if c.Output.Format != storage.FormatCSV && c.Output.Format != storage.FormatSQLite {
		add("unknown output format %q", c.Output.Format)
	}
	if len(c.Blocks) == 0 {
		add("mesh has no blocks")
	}

	blocks := make(map[string]bool, len(c.Blocks))
	for _, b := range c.Blocks {
		blocks[b.Name] = true
		if _, ok := c.Materials[b.Name]; !ok {
			add("block %q has no material", b.Name)
		}
	}
	known := func(what, name string) {
		if !blocks[name] {
			errs = append(errs, fmt.Errorf("%s: %w: %q", what, dynamo.ErrUnknownBlock, name))
		}
	}
	for _, cond := range c.BoundaryConditions {
		known("boundary condition", cond.Block)
	}
	for _, iv := range c.InitialVelocities {
		known("initial velocity", iv.Block)
	}

	cmd, err := c.ContactCommand()
	if err != nil {
		errs = append(errs, err)
	} else if cmd != nil {
		for _, name := range cmd.PrimaryBlocks {
			known("contact", name)
		}
		for _, name := range cmd.SecondaryBlocks {
			known("contact", name)
		}
	}
	return errors.Join(errs...)
}
