package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the application
type Config struct {
	Snapshot  string `koanf:"snapshot"`   // path to the component-model snapshot JSON
	PlanOut   string `koanf:"plan-out"`   // write the resolution plan JSON here (empty = report only)
	WebMode   bool   `koanf:"web"`        // serve the report UI instead of printing to console
	Port      int    `koanf:"port"`       // web server port
	Watch     bool   `koanf:"watch"`      // re-run analysis when the snapshot changes
	MaxCycles int    `koanf:"max-cycles"` // per-SCC elementary cycle cap (0 = default)
	Workers   int    `koanf:"workers"`    // SCC enumeration workers (0 = GOMAXPROCS)
	BudgetMs  int    `koanf:"budget-ms"`  // overall analysis time budget in ms (0 = none)
	JSONLogs  bool   `koanf:"json-logs"`  // emit JSON logs instead of the compact console format
	Verbose   int    `koanf:"verbose"`    // -v / -vv
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"snapshot":   "components.json",
		"plan-out":   "",
		"web":        false,
		"port":       8080,
		"watch":      false,
		"max-cycles": 0,
		"workers":    0,
		"budget-ms":  0,
		"json-logs":  false,
		"verbose":    0,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - decycle.toml
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider("decycle.toml"), toml.Parser())

	// 3. Environment Variables
	// Prefix: DECYCLE_ (e.g., DECYCLE_PORT=9090)
	if err := k.Load(env.Provider("DECYCLE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "DECYCLE_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
