/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/iqac-smarttrack/apiserver/internal/logging"
	"github.com/iqac-smarttrack/apiserver/internal/server"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed empty collections with the default dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		repo, err := server.OpenRepository(cmd.Context(), cfg, logging.Component(logger, "repository"))
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := repo.Initialize(cmd.Context()); err != nil {
			return err
		}
		logger.WithField("mode", cfg.Store.Mode).Info("store initialized")
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard all tasks, files and the session and restore the default dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		repo, err := server.OpenRepository(cmd.Context(), cfg, logging.Component(logger, "repository"))
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := repo.Initialize(cmd.Context()); err != nil {
			return err
		}
		if err := repo.Reset(cmd.Context()); err != nil {
			return err
		}
		logger.WithField("mode", cfg.Store.Mode).Info("store reset to defaults")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(resetCmd)
}
