package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/block-scheduler/cmd/cli/commands"
	"github.com/jakechorley/block-scheduler/internal/config"
	"github.com/jakechorley/block-scheduler/pkg/utils/logging"
)

var (
	env        string
	configPath string
	app        = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Block Scheduler CLI - Draft provider block schedules",
		Long: `A CLI tool for drafting provider block schedules across sites:
per-seed draft schedules, gap reports and input validation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Explicit config file path (defaults to block_config.<env>.yaml)")

	// Add all commands
	rootCmd.AddCommand(commands.GenerateBlockCmd(app))
	rootCmd.AddCommand(commands.ValidateInputsCmd(app))
	rootCmd.AddCommand(commands.ListProvidersCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config and input sources
func initApp() error {
	var err error
	app.Ctx = context.Background()
	app.Env = env

	// Initialize logger
	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	if configPath != "" {
		if err := config.LoadDotEnv(env); err != nil {
			return fmt.Errorf("failed to load env files: %w", err)
		}
		app.Cfg, err = config.LoadFromPath(configPath)
	} else {
		app.Cfg, err = config.LoadWithEnv(env)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("source", app.Cfg.Source.Kind),
		zap.Int("sites", len(app.Cfg.Sites)))

	if err := app.ConnectSources(); err != nil {
		return err
	}
	app.Logger.Info("Input sources ready")

	return nil
}
