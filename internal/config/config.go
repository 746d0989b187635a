package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// DateLayout is the format of block start and end dates
const DateLayout = "2006-01-02"

// Source kinds
const (
	SourceSheets   = "sheets"
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Site tiers as written in YAML
const (
	TierZeroGap         = "zero-gap"
	TierLimitedGap      = "limited-gap"
	TierDemandAbsorbing = "demand-absorbing"
)

// DefaultSeed is used when no seeds are configured
const DefaultSeed uint64 = 42

// Block is the date range being scheduled
type Block struct {
	Start string `yaml:"start" validate:"required"`
	End   string `yaml:"end" validate:"required"`
}

// Site is one entry of the canonical (site, allocation group) list
type Site struct {
	Name  string `yaml:"name" validate:"required"`
	Group string `yaml:"group" validate:"required"`
	Tier  string `yaml:"tier" validate:"required,oneof=zero-gap limited-gap demand-absorbing"`
}

// AvailabilityOverride marks every date matched by RRule unavailable for Provider
type AvailabilityOverride struct {
	Provider string `yaml:"provider" validate:"required"`
	RRule    string `yaml:"rrule" validate:"required"`
	Reason   string `yaml:"reason,omitempty"`
}

// Holiday flags the periods containing the dates matched by RRule
type Holiday struct {
	Name  string `yaml:"name" validate:"required"`
	RRule string `yaml:"rrule" validate:"required"`
}

// Source says where the provider, tag and site tables are read from
type Source struct {
	Kind         string `yaml:"kind" validate:"required,oneof=sheets csv postgres"`
	SheetID      string `yaml:"sheetID,omitempty"`
	ProvidersTab string `yaml:"providersTab,omitempty"`
	TagsTab      string `yaml:"tagsTab,omitempty"`
	SitesTab     string `yaml:"sitesTab,omitempty"`
	CSVDir       string `yaml:"csvDir,omitempty"`
	DatabaseURL  string `yaml:"databaseURL,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Block Block    `yaml:"block" validate:"required"`
	Seeds []uint64 `yaml:"seeds,omitempty"`

	BlocksPerYear              int  `yaml:"blocksPerYear,omitempty" validate:"omitempty,gt=0"`
	MaxConsecutiveDays         int  `yaml:"maxConsecutiveDays,omitempty" validate:"omitempty,gt=0"`
	StretchSoftLimit           int  `yaml:"stretchSoftLimit,omitempty" validate:"omitempty,gt=0"`
	MaxSwapRounds              int  `yaml:"maxSwapRounds,omitempty" validate:"omitempty,min=0"`
	WeightDifficultyByCapacity bool `yaml:"weightDifficultyByCapacity,omitempty"`

	Sites                 []Site                 `yaml:"sites" validate:"required,min=1,dive"`
	ConflictPairs         [][]string             `yaml:"conflictPairs,omitempty" validate:"dive,len=2,dive,required"`
	NameAliases           map[string]string      `yaml:"nameAliases,omitempty"`
	AvailabilityOverrides []AvailabilityOverride `yaml:"availabilityOverrides,omitempty" validate:"dive"`
	Holidays              []Holiday              `yaml:"holidays,omitempty" validate:"dive"`

	Source             Source `yaml:"source" validate:"required"`
	AvailabilityDir    string `yaml:"availabilityDir,omitempty"`
	PriorOverridesFile string `yaml:"priorOverridesFile,omitempty"`
	OutputDir          string `yaml:"outputDir,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ConfigFileName returns the config file name for an environment
func ConfigFileName(env string) string {
	return fmt.Sprintf("block_config.%s.yaml", env)
}

// LoadWithEnv loads .env.<env> and .env into the process environment, then
// loads and validates block_config.<env>.yaml. The config file is looked up in
// the current directory first, then in the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	if err := LoadDotEnv(env); err != nil {
		return nil, err
	}

	configPath, err := findConfigFile(ConfigFileName(env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadDotEnv reads .env.<env> then .env if they exist.
// Variables already set in the environment are never overwritten.
func LoadDotEnv(env string) error {
	for _, name := range []string{".env." + env, ".env"} {
		if _, err := os.Stat(name); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// LoadFromPath loads and validates the configuration from a specific path.
// ${VAR} references are expanded against the environment before parsing.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// Validate checks struct tags, then dates, site names, source settings and rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	start, err := time.Parse(DateLayout, cfg.Block.Start)
	if err != nil {
		return fmt.Errorf("invalid block.start: %w", err)
	}
	end, err := time.Parse(DateLayout, cfg.Block.End)
	if err != nil {
		return fmt.Errorf("invalid block.end: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("block.end %s is before block.start %s", cfg.Block.End, cfg.Block.Start)
	}

	seen := make(map[string]bool, len(cfg.Sites))
	for _, site := range cfg.Sites {
		if seen[site.Name] {
			return fmt.Errorf("duplicate site %q in sites", site.Name)
		}
		seen[site.Name] = true
	}

	if err := validateSource(cfg.Source); err != nil {
		return err
	}

	for i, override := range cfg.AvailabilityOverrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in availabilityOverrides[%d]: %w", i, err)
		}
	}
	for i, holiday := range cfg.Holidays {
		if _, err := rrule.StrToRRule(holiday.RRule); err != nil {
			return fmt.Errorf("invalid rrule in holidays[%d]: %w", i, err)
		}
	}

	return nil
}

func validateSource(src Source) error {
	switch src.Kind {
	case SourceSheets:
		if src.SheetID == "" {
			return fmt.Errorf("source.sheetID is required for kind %q", src.Kind)
		}
	case SourceCSV:
		if src.CSVDir == "" {
			return fmt.Errorf("source.csvDir is required for kind %q", src.Kind)
		}
	case SourcePostgres:
		if src.DatabaseURL == "" {
			return fmt.Errorf("source.databaseURL is required for kind %q", src.Kind)
		}
	}
	return nil
}

func (cfg *Config) applyDefaults() {
	if len(cfg.Seeds) == 0 {
		cfg.Seeds = []uint64{DefaultSeed}
	}
	if cfg.Source.ProvidersTab == "" {
		cfg.Source.ProvidersTab = "Providers"
	}
	if cfg.Source.TagsTab == "" {
		cfg.Source.TagsTab = "Provider Tags"
	}
	if cfg.Source.SitesTab == "" {
		cfg.Source.SitesTab = "Sites"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
}

// BlockRange returns the parsed block start and end dates
func (cfg *Config) BlockRange() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, cfg.Block.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid block.start: %w", err)
	}
	end, err := time.Parse(DateLayout, cfg.Block.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid block.end: %w", err)
	}
	return start, end, nil
}

// findConfigFile looks for name in the current directory, then the home directory
func findConfigFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
