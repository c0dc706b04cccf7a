package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	config "taskhub.com/taskhub/internal/configs"
	"taskhub.com/taskhub/internal/queue"
	"taskhub.com/taskhub/internal/registry"
	"taskhub.com/taskhub/internal/services"
)

// worker runs the pool without the HTTP API, for scaling the download side
// independently of the registration side. It does not reseed the slot pool:
// the serve process owns that.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start a worker pool process",
	Long:  "Polls the shared table for pending tasks and processes them",
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

		redisClient := config.NewRedisClient(cfg.RedisAddr)
		defer redisClient.Close()

		slots := queue.NewRedisSlotManager(redisClient, cfg.RedisSlotKey)

		pool := services.NewPoolService(
			hub,
			services.SimulatedDownloader{},
			slots,
			cfg.Workers,
			cfg.QueueSize,
			time.Duration(cfg.PollIntervalSeconds)*time.Second,
			cfg.PollBatchSize,
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()

		pool.Shutdown(ctx)

		log.Info().Msg("worker pool shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
