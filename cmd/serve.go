package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/infra/db"
	"github.com/Builder-Lawyers/site-provisioner/internal/presentation/rest"
	"github.com/Builder-Lawyers/site-provisioner/internal/presentation/scheduler"
	"github.com/Builder-Lawyers/site-provisioner/pkg/env"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the provisioning API and the stale provision reconciler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var level slog.Level
			_ = level.UnmarshalText([]byte(opts.logLevel))
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
			return serve(cmd.Context(), opts, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply database migrations before serving")

	return cmd
}

func serve(ctx context.Context, opts *globalOptions, migrate bool) error {
	app, err := Init(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	if migrate && app.Pool != nil {
		if err = db.Migrate(ctx, app.Pool); err != nil {
			return err
		}
	}

	handler := rest.NewServer(app.Handlers)
	server := fiber.New(fiber.Config{
		IdleTimeout:  5 * time.Second,
		ErrorHandler: rest.ErrorHandler,
	})
	server.Use(recover.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: env.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000"),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	server.Static("/docs", "./api")
	rest.RegisterOps(server, app.Registry)
	rest.RegisterHandlers(server, handler)

	reconciler := scheduler.NewReconciler(app.Handlers, app.Repo, scheduler.NewReconcilerConfig())
	go reconciler.Start()

	addr := env.GetEnv("HTTP_ADDR", ":8080")
	listenErr := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		listenErr <- server.Listen(addr)
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case <-c:
	case err = <-listenErr:
		reconciler.Stop()
		return fmt.Errorf("server stopped: %w", err)
	}

	slog.Info("Gracefully shutting down...")
	_ = server.ShutdownWithTimeout(30 * time.Second)
	reconciler.Stop()

	slog.Info("Running cleanup tasks...")
	return nil
}
