package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shelfwise/circulation/circulation/api"
	"github.com/shelfwise/circulation/circulation/api/httpapi"
	"github.com/shelfwise/circulation/circulation/auth"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var inMemory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the periodic overdue sweep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, inMemory)
			if err != nil {
				return err
			}

			return errors.Join(serve(ctx, a), a.close(context.WithoutCancel(ctx)))
		},
	}

	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "keep events in memory instead of PostgreSQL")

	return cmd
}

func serve(ctx context.Context, a *app) error {
	resolver, err := auth.NewJWTResolver(a.cfg.Auth.JWTSecret, auth.WithIssuer(a.cfg.Auth.Issuer))
	if err != nil {
		return err
	}

	service := api.NewService(a.ledger.Handlers, a.ledger.Catalog)
	server := &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      httpapi.NewRouter(httpapi.NewHandler(service), resolver, a.logger),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.logger.InfoContext(groupCtx, "http server listening", "addr", server.Addr)

		if serveErr := server.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}

		return nil
	})

	group.Go(func() error {
		a.ledger.NewRunner(a.cfg.Fines.SweepInterval, a.logger).Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()

		a.logger.InfoContext(shutdownCtx, "http server shutting down")

		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
