package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowbaker/sortinghat/internal/server"
	"github.com/flowbaker/sortinghat/internal/version"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  `Start the sorting HTTP API. The server shuts down gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	container, err := loadContainer(ctx, cmd)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build sorting dependencies")
		return err
	}

	cfg := container.GetConfig()

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		SortingController: container.GetSortingController(),
		MaxUploadBytes:    cfg.MaxUploadBytes,
	})

	log.Info().
		Str("address", cfg.HTTPAddress).
		Str("version", version.GetVersion()).
		Msg("The Sorting Hat is ready")

	if err := app.Listen(cfg.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}

	log.Info().Msg("Sorting service stopped")
	return nil
}
