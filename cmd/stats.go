package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	config "taskhub.com/taskhub/internal/configs"
	"taskhub.com/taskhub/internal/registry"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print task statistics",
	Long:  "Prints a one-shot per-status breakdown of the task table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Info().Msg(".env file not found, using environment variables")
		}

		cfg := config.Load()

		table, err := config.TableForEnvironment(cfg.EnvironmentsFile, cfg.Environment)
		if err != nil {
			return err
		}

		hub, err := registry.Init(config.NewDatabase(cfg.DatabaseDSN, table), table)
		if err != nil {
			return err
		}

		stats, err := hub.Statistics(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("table:      %s\n", hub.Table())
		fmt.Printf("total:      %d\n", stats.Total)
		fmt.Printf("pending:    %d\n", stats.Pending)
		fmt.Printf("processing: %d\n", stats.Processing)
		fmt.Printf("success:    %d\n", stats.Success)
		fmt.Printf("failed:     %d\n", stats.Failed)
		fmt.Printf("deleted:    %d\n", stats.Deleted)
		fmt.Printf("other:      %d\n", stats.Other)
		fmt.Printf("active:     %d\n", stats.Active)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
