/*
Package config loads zerv settings from a '.zerv.toml' file and ZERV_ environment
variables, and writes the starter file created by 'zerv config init'.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/zerv/zerv-core/providers/flow"
	"github.com/zerv/zerv-core/providers/render"
	"github.com/zerv/zerv-core/providers/schemas"
	"github.com/zerv/zerv-core/providers/ver"
)

const (
	// FileName is the config file looked up in the working directory.
	FileName = ".zerv.toml"
	// EnvPrefix prefixes environment overrides, e.g. ZERV_OUTPUT_FORMAT.
	EnvPrefix = "ZERV"
)

// ErrExists is returned when init would overwrite a config file.
var ErrExists = errors.New("config file already exists")

// Config holds the settings shared by every command.
type Config struct {
	Schema           string `mapstructure:"schema" toml:"schema"`
	InputFormat      string `mapstructure:"input_format" toml:"input_format"`
	OutputFormat     string `mapstructure:"output_format" toml:"output_format"`
	OutputPrefix     string `mapstructure:"output_prefix" toml:"output_prefix,omitempty"`
	IncludeUntracked bool   `mapstructure:"include_untracked" toml:"include_untracked"`
	// BranchRules uses the notation of flow.ParseRules. Empty selects the default rules.
	BranchRules string `mapstructure:"branch_rules" toml:"branch_rules,omitempty"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Schema:           flow.DefaultSchema,
		InputFormat:      string(ver.Auto),
		OutputFormat:     string(render.FormatSemVer),
		IncludeUntracked: true,
	}
}

// InitConfig returns the settings written by 'config init': the defaults with the branch
// rules spelled out.
func InitConfig() *Config {
	cfg := DefaultConfig()
	cfg.BranchRules = flow.DefaultRules().String()
	return cfg
}

// LoadOptions locates the config file.
type LoadOptions struct {
	// ConfigFilePath is used exclusively when set and must exist.
	ConfigFilePath string
	// Dir is searched for FileName. Empty means the working directory.
	Dir string
}

// Load reads defaults, the config file and the environment, in increasing priority. The
// returned path is empty when no file was read.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("schema", defaults.Schema)
	v.SetDefault("input_format", defaults.InputFormat)
	v.SetDefault("output_format", defaults.OutputFormat)
	v.SetDefault("output_prefix", defaults.OutputPrefix)
	v.SetDefault("include_untracked", defaults.IncludeUntracked)
	v.SetDefault("branch_rules", defaults.BranchRules)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := opts.ConfigFilePath
	if path == "" {
		candidate := filepath.Join(opts.Dir, FileName)
		if fileExists(candidate) {
			path = candidate
		}
	} else if !fileExists(path) {
		return nil, "", fmt.Errorf("config file not found: %s", path)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, path, nil
}

// Validate checks every value against the engine's vocabularies.
func (c *Config) Validate() error {
	if _, err := schemas.ParsePreset(c.Schema); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if _, err := ver.ParseGrammar(c.InputFormat); err != nil {
		return fmt.Errorf("input_format: %w", err)
	}
	if _, err := render.ParseFormat(c.OutputFormat); err != nil {
		return fmt.Errorf("output_format: %w", err)
	}
	if _, err := c.Rules(); err != nil {
		return fmt.Errorf("branch_rules: %w", err)
	}
	return nil
}

// Rules parses the branch rules. Nil means the default rules.
func (c *Config) Rules() (flow.Rules, error) {
	if strings.TrimSpace(c.BranchRules) == "" {
		return nil, nil
	}
	return flow.ParseRules(c.BranchRules)
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg *Config) error {
	enc := toml.NewEncoder(w)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// WriteFile writes cfg to path. An existing file is only replaced with force.
func WriteFile(path string, cfg *Config, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if err := Write(f, cfg); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
