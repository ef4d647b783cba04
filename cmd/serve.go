package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "techtrack.com/techtrack/internal/configs"
	httpapi "techtrack.com/techtrack/internal/http"
	middleware "techtrack.com/techtrack/internal/http/middlewares"
	"techtrack.com/techtrack/internal/mailer"
	repository "techtrack.com/techtrack/internal/repositories"
	"techtrack.com/techtrack/internal/services"
	"techtrack.com/techtrack/internal/stash"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the project tracking HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()

		logger, err := zap.NewProduction()
		if err != nil {
			return err
		}
		defer logger.Sync()

		database := config.New(cfg.DatabaseDSN)

		redisClient := config.NewRedisClient(cfg.RedisAddr)
		defer redisClient.Close()

		projectRepo := repository.NewProjectRepository(database)
		vistaRepo := repository.NewVistaRepository(database)
		technicianRepo := repository.NewTechnicianRepository(database)
		statusRepo := repository.NewStatusRepository(database)

		pending := stash.NewRedisStash(redisClient, time.Duration(cfg.StashTTLSeconds)*time.Second)
		mail := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, logger)

		projectService := services.NewProjectService(
			projectRepo, technicianRepo, statusRepo,
			mail, logger, cfg.MailFrom, cfg.BaseURL,
		)
		listService := services.NewListService(
			projectRepo, vistaRepo, statusRepo,
			pending, logger, cfg.DefaultPageSize,
		)
		technicianService := services.NewTechnicianService(technicianRepo)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e := echo.New()
		handler := httpapi.NewHandler(projectService, listService, technicianService, statusRepo, logger)
		checker := middleware.NewTechnicianPermissions(technicianRepo)
		httpapi.Register(e, handler, checker, cfg.RateLimit)

		go func() {
			logger.Info("HTTP server listening", zap.String("addr", cfg.AppURL))
			if err := e.Start(cfg.AppURL); err != nil {
				logger.Info("server stopped", zap.Error(err))
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)

		logger.Info("HTTP server shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
