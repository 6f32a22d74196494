// Package commands wires the propman CLI.
package commands

import (
	"context"
	"fmt"

	"property-service/internal/model"
	"property-service/pkg/config"
	"property-service/pkg/database"
	"property-service/pkg/jwtutil"
	"property-service/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds what every subcommand needs once configuration is loaded
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	closeDB func() error
}

// bootstrap prepares the app for a subcommand. Tests swap it for a
// preconfigured database.
var bootstrap = loadApp

// loadApp loads configuration, the logger and the database connection
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.GetLogger()
	log.Info("Configuration loaded", cfg.LogConfig()...)

	jwtutil.Initialize(&cfg.JWT)

	db, err := database.InitDB(cfg, log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, db: db, closeDB: database.Close}, nil
}

func (a *app) close() {
	if a.closeDB != nil {
		if err := a.closeDB(); err != nil {
			a.log.Warn("Failed to close database", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

// NewRootCmd builds the propman command tree; serve runs when no subcommand is given
func NewRootCmd() *cobra.Command {
	serve := ServeCmd()
	root := &cobra.Command{
		Use:           "propman",
		Short:         "Property management back-office API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, MigrateCmd(), SeedCmd(), EscalateCmd())
	return root
}

// MigrateCmd creates or updates every table
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			if err := database.MigrateModels(model.All()...); err != nil {
				return err
			}
			a.log.Info("Database migrated")
			return nil
		},
	}
}

func withContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
