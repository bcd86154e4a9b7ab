package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"cdr.dev/slog"
	"github.com/spf13/cobra"

	"lc_accountability/internal/api"
	"lc_accountability/internal/api/handler"
	"lc_accountability/internal/app/worker"
	"lc_accountability/internal/common/security"
	"lc_accountability/internal/domain/repository"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the report API and refresh the report in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := c.cfg
			if err := cfg.ValidateAPI(); err != nil {
				return err
			}

			comps, err := c.build(ctx, true)
			if err != nil {
				return err
			}
			defer comps.Close()

			snapshots := repository.NewRedisSnapshotRepository(comps.rdb, cfg.ReportSnapshotKey, 2*cfg.ReportRefresh)
			reportWorker := worker.NewReportWorker(comps.rdb, comps.accountability, comps.users, snapshots, worker.ReportWorkerOptions{
				Interval:     cfg.ReportRefresh,
				LockKey:      cfg.ReportLockKey,
				LockTTL:      cfg.ReportLockTTL,
				LookbackDays: cfg.LookbackDays,
			}, c.logger)

			workerCtx, workerCancel := context.WithCancel(ctx)
			defer workerCancel()
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				reportWorker.Start(workerCtx)
			}()

			tokens := security.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp)
			reports := handler.NewReportHandler(reportWorker, comps.users, comps.journal, comps.submissions, cfg.MinGap, cfg.LookbackDays)
			server := &http.Server{
				Addr:         ":" + cfg.APIPort,
				Handler:      api.NewRouter(tokens, reports, c.logger),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 90 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				c.logger.Info(ctx, "server starting", slog.F("port", cfg.APIPort))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case <-ctx.Done():
			case err := <-serveErr:
				if err != nil {
					workerCancel()
					wg.Wait()
					return err
				}
			}

			c.logger.Info(ctx, "shutting down server")
			workerCancel()

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			wg.Wait()
			c.logger.Info(shutdownCtx, "server and worker stopped")
			return nil
		},
	}
}
