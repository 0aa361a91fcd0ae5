package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/k4sper1love/school-service/internal/config"
	"github.com/k4sper1love/school-service/internal/utils"
	"github.com/k4sper1love/school-service/pkg"
)

var rootCmd = &cobra.Command{
	Use:   "schoolctl",
	Short: "Operational commands for the school service",
	Long: `schoolctl runs maintenance tasks against the school service database
and queue: schema migration, bootstrap admin accounts and a standalone
notification worker. Configuration is read from the environment and .env.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.AddCommand(migrateCmd, createAdminCmd, workerCmd)
}

// environment bundles what every subcommand needs.
type environment struct {
	cfg    *config.Config
	logger utils.Logger
	db     *gorm.DB
}

func loadEnvironment() (*environment, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := utils.NewJSONLogger(os.Stderr, cfg.LogLevel)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, logger: logger, db: db}, nil
}

func (e *environment) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
