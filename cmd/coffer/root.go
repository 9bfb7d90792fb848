package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loganross/coffer/internal/audit"
	"github.com/loganross/coffer/internal/authenticator"
	"github.com/loganross/coffer/internal/config"
	"github.com/loganross/coffer/internal/configstore"
	"github.com/loganross/coffer/internal/events"
	"github.com/loganross/coffer/internal/pipeline"
	"github.com/loganross/coffer/internal/secretstore"
	"github.com/loganross/coffer/internal/vaultmanager"
)

var (
	cfgFile    string
	jsonOutput bool

	cfg     *config.Config
	logger  *events.Logger
	manager *vaultmanager.Manager
	auditDB *audit.Log
)

var rootCmd = &cobra.Command{
	Use:   "coffer",
	Short: "Encrypt and lock local folders with a password or biometrics",
	Long: `coffer turns a folder into a vault: locking it encrypts every file in
place with AES-256-GCM under a key gated by a password (and optionally
device biometrics); unlocking reverses it.`,
	SilenceUsage:      true,
	PersistentPreRunE: bootstrap,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if auditDB != nil {
			return auditDB.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/coffer/app.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")
	rootCmd.PersistentFlags().String("data-dir", "", "override the application data directory")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func bootstrap(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	loaded, err := config.LoadWithViper(v, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := loaded.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare data directory: %w", err)
	}
	cfg = loaded

	loggerCfg := &config.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Color:  cfg.Log.Color,
	}
	l, err := events.NewLogger(loggerCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = l

	secrets := secretstore.NewKeyringStore()
	bio := authenticator.NewUnsupportedEvaluator()
	auth := authenticator.New(secrets, bio, logger)
	pipe := pipeline.New(pipeline.NewExecRunner(), logger)

	store, err := configstore.New(cfg.ConfigFilePath(), logger)
	if err != nil {
		return fmt.Errorf("init config store: %w", err)
	}

	if cfg.Audit.Enabled {
		db, err := audit.Open(cfg.Audit.DBPath, logger)
		if err != nil {
			logger.WithError(err).Warn("audit log unavailable, continuing without it")
		} else {
			auditDB = db
		}
	}

	manager = vaultmanager.New(store, auth, pipe, secrets, auditDB, logger)
	return nil
}
