package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	config "taskhub.com/taskhub/internal/configs"
	httpapi "taskhub.com/taskhub/internal/http"
	"taskhub.com/taskhub/internal/queue"
	"taskhub.com/taskhub/internal/registry"
	"taskhub.com/taskhub/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and worker pool",
	Long:  "Starts the task hub HTTP API plus a polling worker pool against the shared table",
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
		if err := slots.InitializeSlots(context.Background(), cfg.DownloadSlots); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize download slots")
		}

		pool := services.NewPoolService(
			hub,
			services.SimulatedDownloader{},
			slots,
			cfg.Workers,
			cfg.QueueSize,
			time.Duration(cfg.PollIntervalSeconds)*time.Second,
			cfg.PollBatchSize,
		)

		e := echo.New()
		e.HideBanner = true

		handler := httpapi.NewHandler(hub)
		httpapi.Register(e, handler, cfg.RateLimit)

		go func() {
			log.Info().Str("addr", cfg.AppURL).Msg("HTTP server listening")
			if err := e.Start(cfg.AppURL); err != nil {
				log.Info().Err(err).Msg("server stopped")
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()

		_ = e.Shutdown(ctx)
		pool.Shutdown(ctx)

		log.Info().Msg("HTTP server and worker pool shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
