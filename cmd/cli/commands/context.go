package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/block-scheduler/internal/config"
	"github.com/jakechorley/block-scheduler/pkg/clients/availabilityclient"
	"github.com/jakechorley/block-scheduler/pkg/clients/csvclient"
	"github.com/jakechorley/block-scheduler/pkg/clients/sheetsclient"
	"github.com/jakechorley/block-scheduler/pkg/core/services"
	"github.com/jakechorley/block-scheduler/pkg/db"
	"github.com/jakechorley/block-scheduler/pkg/postgres"
	"github.com/jakechorley/block-scheduler/pkg/sheetssql"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg          *config.Config
	Env          string
	Source       db.InputSource
	Availability db.AvailabilitySource
	Postgres     *postgres.DB // set only for source kind postgres
	Logger       *zap.Logger
	Ctx          context.Context
}

// ConnectSources opens the input source named in the config, plus the
// availability source: the document directory when one is configured,
// otherwise the postgres tables when postgres is the source.
func (app *AppContext) ConnectSources() error {
	src := app.Cfg.Source
	tabs := db.Tabs{Providers: src.ProvidersTab, Tags: src.TagsTab, Sites: src.SitesTab}

	switch src.Kind {
	case config.SourceSheets:
		app.Logger.Info("Loading OAuth client configuration")
		oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
		if err != nil {
			return fmt.Errorf("failed to load OAuth client config: %w", err)
		}

		app.Logger.Info("Initializing sheets client")
		client, err := sheetsclient.NewClient(app.Ctx, oauthCfg, app.Env, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to create sheets client: %w", err)
		}
		app.Source = db.NewDB(sheetssql.NewDB(client, src.SheetID), tabs)
		app.Logger.Debug("Sheets source ready", zap.String("spreadsheet_id", src.SheetID))

	case config.SourceCSV:
		app.Source = db.NewDB(sheetssql.NewDB(csvclient.NewClient(src.CSVDir), src.CSVDir), tabs)
		app.Logger.Debug("CSV source ready", zap.String("dir", src.CSVDir))

	case config.SourcePostgres:
		app.Logger.Info("Connecting to database")
		pg, err := postgres.NewDB(app.Ctx, src.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.Postgres = pg
		app.Source = pg
		app.Availability = pg

	default:
		return fmt.Errorf("unknown source kind %q", src.Kind)
	}

	if app.Cfg.AvailabilityDir != "" {
		app.Availability = services.NewDocumentAvailability(availabilityclient.NewClient(app.Cfg.AvailabilityDir))
		app.Logger.Debug("Availability documents", zap.String("dir", app.Cfg.AvailabilityDir))
	}

	return nil
}

// LoadInputs reads every input table for the configured block
func (app *AppContext) LoadInputs() (*services.Inputs, error) {
	return services.LoadInputs(app.Ctx, app.Source, app.Availability, app.Cfg, app.Logger)
}

// Close releases the database pool, if any
func (app *AppContext) Close() {
	if app.Postgres != nil {
		app.Postgres.Close()
	}
}
