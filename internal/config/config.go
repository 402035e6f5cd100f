// Package config merges defaults, an optional JSON or YAML file, COLREG_*
// environment variables and command-line flags into one Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/scenario"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/simulation"
)

const EnvPrefix = "COLREG"

var ErrInvalid = errors.New("invalid configuration")

// Config is everything the command-line tools read at start-up.
type Config struct {
	LogLevel      string `json:"logLevel" mapstructure:"logLevel"`
	LogFile       string `json:"logFile" mapstructure:"logFile"` // empty logs to the console only
	LogMaxSizeMB  int    `json:"logMaxSizeMB" mapstructure:"logMaxSizeMB"`
	LogMaxBackups int    `json:"logMaxBackups" mapstructure:"logMaxBackups"`

	MaxTicks int    `json:"maxTicks" mapstructure:"maxTicks"` // per scenario run
	Parallel int    `json:"parallel" mapstructure:"parallel"` // scenarios run at once
	DBPath   string `json:"dbPath" mapstructure:"dbPath"`     // empty disables the result store
	TraceDir string `json:"traceDir" mapstructure:"traceDir"` // empty disables tick traces

	Simulation simulation.Params `json:"simulation" mapstructure:"simulation"`

	// Pinned lists the scenario-level settings given by flag or environment.
	// They beat the values a scenario file carries.
	Pinned scenario.Pinned `json:"-" mapstructure:"-"`
}

// ScenarioParams returns the parameters a run of sc uses.
func (c *Config) ScenarioParams(sc *scenario.Scenario) simulation.Params {
	return sc.ParamsWith(c.Simulation, c.Pinned)
}

// flag name -> config key
var flagKeys = map[string]string{
	"log-level":  "logLevel",
	"log-file":   "logFile",
	"max-ticks":  "maxTicks",
	"parallel":   "parallel",
	"db":         "dbPath",
	"trace-dir":  "traceDir",
	"workers":    "simulation.workers",
	"policy":     "simulation.headingPolicy",
	"tick":       "simulation.tickSeconds",
	"turn-range": "simulation.turnRange",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFile", "")
	v.SetDefault("logMaxSizeMB", 10)
	v.SetDefault("logMaxBackups", 3)
	v.SetDefault("maxTicks", 2000)
	v.SetDefault("parallel", 4)
	v.SetDefault("dbPath", "")
	v.SetDefault("traceDir", "")

	p := simulation.DefaultParams()
	v.SetDefault("simulation.tickSeconds", p.TickSeconds)
	v.SetDefault("simulation.safeDistance", p.SafeDistance)
	v.SetDefault("simulation.riskFactor", p.RiskFactor)
	v.SetDefault("simulation.turnRange", p.TurnRange)
	v.SetDefault("simulation.turnStep", p.TurnStep)
	v.SetDefault("simulation.standOnTurnCap", p.StandOnTurnCap)
	v.SetDefault("simulation.arrivalThreshold", p.ArrivalThreshold)
	v.SetDefault("simulation.maxIterations", p.MaxIterations)
	v.SetDefault("simulation.relaxAfterTicks", p.RelaxAfterTicks)
	v.SetDefault("simulation.headingPolicy", string(p.HeadingPolicy))
	v.SetDefault("simulation.workers", p.Workers)
	v.SetDefault("simulation.thresholds.headOn", p.Thresholds.HeadOn)
	v.SetDefault("simulation.thresholds.aftLow", p.Thresholds.AftLow)
	v.SetDefault("simulation.thresholds.aftHigh", p.Thresholds.AftHigh)
	v.SetDefault("simulation.thresholds.starboardArc", p.Thresholds.StarboardArc)
}

// RegisterFlags adds the overridable settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	p := simulation.DefaultParams()
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("log-file", "", "also write JSON logs to this rotated file")
	fs.Int("max-ticks", 2000, "give up a scenario after this many ticks")
	fs.Int("parallel", 4, "scenarios simulated at the same time")
	fs.String("db", "", "sqlite file receiving run results")
	fs.String("trace-dir", "", "directory receiving one JSON-lines trace per scenario")
	fs.Int("workers", p.Workers, "goroutines scoring turn candidates, 0 searches sequentially")
	fs.String("policy", string(p.HeadingPolicy), "heading policy: reseek or hold")
	fs.Float64("tick", p.TickSeconds, "simulated seconds per tick")
	fs.Float64("turn-range", p.TurnRange, "degrees of starboard turn allowed per tick")
}

// Load builds a Config. path may be empty; fs may be nil.
func Load(v *viper.Viper, fs *pflag.FlagSet, path string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Pinned = scenario.Pinned{
		SafeDistance:  explicit(fs, "", "simulation.safeDistance"),
		TurnRange:     explicit(fs, "turn-range", "simulation.turnRange"),
		TurnStep:      explicit(fs, "", "simulation.turnStep"),
		TickSeconds:   explicit(fs, "tick", "simulation.tickSeconds"),
		HeadingPolicy: explicit(fs, "policy", "simulation.headingPolicy"),
	}
	return &cfg, nil
}

// explicit reports whether key was set on the command line or in the
// environment. Defaults and config file values do not count.
func explicit(fs *pflag.FlagSet, flag, key string) bool {
	if fs != nil && flag != "" && fs.Changed(flag) {
		return true
	}
	val, ok := os.LookupEnv(EnvName(key))
	return ok && val != ""
}

// EnvName is the environment variable viper reads for key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (c *Config) Validate() error {
	switch {
	case c.MaxTicks <= 0:
		return fmt.Errorf("%w: maxTicks must be positive, got %d", ErrInvalid, c.MaxTicks)
	case c.Parallel <= 0:
		return fmt.Errorf("%w: parallel must be positive, got %d", ErrInvalid, c.Parallel)
	case c.LogMaxSizeMB <= 0:
		return fmt.Errorf("%w: logMaxSizeMB must be positive, got %d", ErrInvalid, c.LogMaxSizeMB)
	case c.LogMaxBackups < 0:
		return fmt.Errorf("%w: logMaxBackups must not be negative, got %d", ErrInvalid, c.LogMaxBackups)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
