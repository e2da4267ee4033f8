package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesflow/gridsync/internal/mockmes"
	"github.com/mesflow/gridsync/pkg/configuration"
)

type serveOptions struct {
	addr string
	seed bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the in-memory production backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":3200", "Listen address")
	cmd.Flags().BoolVar(&opts.seed, "seed", true, "Seed demo records on startup")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	conf := configuration.Use()
	log := conf.Logger()

	backend := mockmes.New(log)
	if opts.seed {
		if err := seedDemoData(backend); err != nil {
			return withCode(exitUsage, err)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    opts.addr,
		Handler: backend.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("mockmes listening on %s", opts.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return withCode(exitGateway, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return withCode(exitGateway, fmt.Errorf("shutdown: %w", err))
	}
	log.Info("mockmes stopped")
	return nil
}

func seedDemoData(backend *mockmes.Server) error {
	seeds := map[string][]map[string]any{
		"materials": {
			{"matnr": "M-100", "maktx": "Hex bolt M8", "uom": "EA", "plant": "1000", "safetyStock": 200, "price": 0.12},
			{"matnr": "M-200", "maktx": "Hex nut M8", "uom": "EA", "plant": "1000", "safetyStock": 400, "price": 0.05},
			{"matnr": "M-300", "maktx": "Washer 8mm", "uom": "EA", "plant": "2000", "safetyStock": 0, "price": 0.02},
		},
		"bomItems": {
			{"parent": "A-100", "component": "M-100", "qty": 4, "minQty": 1, "maxQty": 8, "position": 10},
			{"parent": "A-100", "component": "M-200", "qty": 4, "minQty": 1, "maxQty": 8, "position": 20},
		},
		"workOrders": {
			{"matnr": "A-100", "qty": 50, "plant": "1000", "status": "REL", "startDate": "2026-08-20", "endDate": "2026-08-30"},
		},
		"defects": {
			{"orderNo": "WO-0001", "code": "SCRATCH", "qty": 2, "note": "surface scratch on housing"},
		},
	}
	for entity, records := range seeds {
		if err := backend.Seed(entity, records); err != nil {
			return err
		}
	}
	return nil
}
