package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Block: Block{Start: "2026-03-02", End: "2026-06-28"},
		Sites: []Site{
			{Name: "Cooper", Group: "cooper", Tier: TierZeroGap},
			{Name: "Vineland", Group: "vineland", Tier: TierDemandAbsorbing},
		},
		Source: Source{Kind: SourceCSV, CSVDir: "tables"},
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "block_config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.ConflictPairs = [][]string{{"SMITH, J", "JONES, K"}}
	cfg.AvailabilityOverrides = []AvailabilityOverride{
		{Provider: "SMITH, JOHN", RRule: "FREQ=WEEKLY;BYDAY=MO", Reason: "clinic"},
	}
	cfg.Holidays = []Holiday{{Name: "Memorial Day", RRule: "FREQ=YEARLY;BYMONTH=5;BYDAY=-1MO"}}

	assert.NoError(t, Validate(cfg))
}

func TestValidate_MissingSites(t *testing.T) {
	cfg := validConfig()
	cfg.Sites = nil

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_UnknownTier(t *testing.T) {
	cfg := validConfig()
	cfg.Sites[0].Tier = "critical"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_DuplicateSite(t *testing.T) {
	cfg := validConfig()
	cfg.Sites = append(cfg.Sites, Site{Name: "Cooper", Group: "cooper", Tier: TierLimitedGap})

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate site")
}

func TestValidate_BlockDates(t *testing.T) {
	cfg := validConfig()
	cfg.Block.Start = "03/02/2026"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block.start")

	cfg = validConfig()
	cfg.Block.End = "2026-02-01"
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before block.start")
}

func TestValidate_ConflictPairNeedsTwoNames(t *testing.T) {
	cfg := validConfig()
	cfg.ConflictPairs = [][]string{{"SMITH, J"}}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_SourceSettings(t *testing.T) {
	tests := []struct {
		name   string
		source Source
		errMsg string
	}{
		{name: "sheets without id", source: Source{Kind: SourceSheets}, errMsg: "sheetID"},
		{name: "csv without dir", source: Source{Kind: SourceCSV}, errMsg: "csvDir"},
		{name: "postgres without url", source: Source{Kind: SourcePostgres}, errMsg: "databaseURL"},
		{name: "unknown kind", source: Source{Kind: "excel"}, errMsg: "validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Source = tt.source

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_InvalidRRules(t *testing.T) {
	cfg := validConfig()
	cfg.AvailabilityOverrides = []AvailabilityOverride{
		{Provider: "SMITH, JOHN", RRule: "FREQ=WEEKLY;BYDAY=MO"},
		{Provider: "JONES, KATE", RRule: "INVALID_RRULE"},
	}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule in availabilityOverrides[1]")

	cfg = validConfig()
	cfg.Holidays = []Holiday{{Name: "Broken", RRule: "INVALID_RRULE_SYNTAX"}}
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule in holidays[0]")
}

func TestLoadFromPath_FullConfig(t *testing.T) {
	path := writeConfig(t, `
block:
  start: "2026-03-02"
  end: "2026-06-28"
seeds: [42, 7, 99]
blocksPerYear: 4
maxConsecutiveDays: 10
stretchSoftLimit: 6
maxSwapRounds: 5
weightDifficultyByCapacity: true
sites:
  - name: Cooper
    group: cooper
    tier: zero-gap
  - name: Mullica Hill
    group: inspira
    tier: limited-gap
conflictPairs:
  - ["SMITH, J", "JONES, K"]
nameAliases:
  "SMYTHE, JOHN": "SMITH, JOHN"
availabilityOverrides:
  - provider: "SMITH, JOHN"
    rrule: "FREQ=WEEKLY;BYDAY=MO"
    reason: clinic day
holidays:
  - name: Memorial Day
    rrule: "FREQ=YEARLY;BYMONTH=5;BYDAY=-1MO"
source:
  kind: sheets
  sheetID: sheet123
  providersTab: Roster
availabilityDir: availability
outputDir: out
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-02", cfg.Block.Start)
	assert.Equal(t, []uint64{42, 7, 99}, cfg.Seeds)
	assert.Equal(t, 4, cfg.BlocksPerYear)
	assert.Equal(t, 10, cfg.MaxConsecutiveDays)
	assert.Equal(t, 6, cfg.StretchSoftLimit)
	assert.Equal(t, 5, cfg.MaxSwapRounds)
	assert.True(t, cfg.WeightDifficultyByCapacity)

	require.Len(t, cfg.Sites, 2)
	assert.Equal(t, Site{Name: "Mullica Hill", Group: "inspira", Tier: TierLimitedGap}, cfg.Sites[1])
	assert.Equal(t, [][]string{{"SMITH, J", "JONES, K"}}, cfg.ConflictPairs)
	assert.Equal(t, "SMITH, JOHN", cfg.NameAliases["SMYTHE, JOHN"])
	require.Len(t, cfg.AvailabilityOverrides, 1)
	assert.Equal(t, "clinic day", cfg.AvailabilityOverrides[0].Reason)
	require.Len(t, cfg.Holidays, 1)

	assert.Equal(t, "Roster", cfg.Source.ProvidersTab)
	assert.Equal(t, "Provider Tags", cfg.Source.TagsTab)
	assert.Equal(t, "Sites", cfg.Source.SitesTab)
	assert.Equal(t, "availability", cfg.AvailabilityDir)
	assert.Equal(t, "out", cfg.OutputDir)
}

func TestLoadFromPath_Defaults(t *testing.T) {
	path := writeConfig(t, `
block:
  start: "2026-03-02"
  end: "2026-03-15"
sites:
  - name: Cooper
    group: cooper
    tier: zero-gap
source:
  kind: csv
  csvDir: tables
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, []uint64{DefaultSeed}, cfg.Seeds)
	assert.Zero(t, cfg.BlocksPerYear)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Empty(t, cfg.Holidays)
}

func TestLoadFromPath_ExpandsEnvironment(t *testing.T) {
	t.Setenv("BLOCK_DATABASE_URL", "postgres://scheduler@localhost:5432/blocks")

	path := writeConfig(t, `
block:
  start: "2026-03-02"
  end: "2026-03-15"
sites:
  - name: Cooper
    group: cooper
    tier: zero-gap
source:
  kind: postgres
  databaseURL: "${BLOCK_DATABASE_URL}"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://scheduler@localhost:5432/blocks", cfg.Source.DatabaseURL)
}

func TestLoadFromPath_UnsetVariableFailsValidation(t *testing.T) {
	path := writeConfig(t, `
block:
  start: "2026-03-02"
  end: "2026-03-15"
sites:
  - name: Cooper
    group: cooper
    tier: zero-gap
source:
  kind: sheets
  sheetID: "${BLOCK_SHEET_ID_NOT_SET_IN_TESTS}"
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheetID")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
block:
  start: "2026-03-02"
    invalid indentation
sites: []
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/block_config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("BLOCK_SHEET_ID", "from-environment")

	require.NoError(t, os.WriteFile(".env.test", []byte("BLOCK_SHEET_ID=from-file\nBLOCK_TEST_ONLY_VALUE=loaded\n"), 0644))

	require.NoError(t, LoadDotEnv("test"))
	t.Cleanup(func() { os.Unsetenv("BLOCK_TEST_ONLY_VALUE") })

	assert.Equal(t, "from-environment", os.Getenv("BLOCK_SHEET_ID"))
	assert.Equal(t, "loaded", os.Getenv("BLOCK_TEST_ONLY_VALUE"))
}

func TestLoadDotEnv_MissingFilesAreIgnored(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, LoadDotEnv("nothing"))
}

func TestLoadOAuthClientFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), OAuthClientFileName("test"))
	contents := `{"installed": {
		"client_id": "id.apps.googleusercontent.com",
		"project_id": "block-scheduler",
		"auth_uri": "https://accounts.google.com/o/oauth2/auth",
		"token_uri": "https://oauth2.googleapis.com/token",
		"auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
		"client_secret": "secret",
		"redirect_uris": ["http://localhost"]
	}}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	cfg, err := LoadOAuthClientFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "block-scheduler", cfg.Installed.ProjectID)
}

func TestLoadOAuthClientFromPath_MissingSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oauthClient.json")
	contents := `{"installed": {
		"client_id": "id",
		"project_id": "p",
		"auth_uri": "https://accounts.google.com/o/oauth2/auth",
		"token_uri": "https://oauth2.googleapis.com/token",
		"auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
		"redirect_uris": ["http://localhost"]
	}}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	_, err := LoadOAuthClientFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oauth client validation failed")
}

func TestOAuthClientFileName(t *testing.T) {
	assert.Equal(t, "oauthClient.json", OAuthClientFileName(""))
	assert.Equal(t, "oauthClient.prod.json", OAuthClientFileName("prod"))
}
