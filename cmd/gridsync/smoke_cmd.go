package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesflow/gridsync/modules/production"
	"github.com/mesflow/gridsync/pkg/configuration"
	"github.com/mesflow/gridsync/pkg/eventbus"
	"github.com/mesflow/gridsync/pkg/graphql"
	"github.com/mesflow/gridsync/pkg/gridsync"
)

type smokeOptions struct {
	entity   string
	endpoint string
	keep     bool
}

func newSmokeCmd() *cobra.Command {
	var opts smokeOptions

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run a full editing session (search, add, save, delete) against a backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmoke(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.entity, "entity", "materials", "Entity screen to exercise")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "Backend endpoint (defaults to GRIDSYNC_ENDPOINT)")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "Leave the created record in place instead of deleting it")
	return cmd
}

// smokeSamples holds one valid creation per entity. Keys assigned by the
// backend stay empty here; the material number is natural and gets a
// unique suffix at runtime.
var smokeSamples = map[string]map[string]any{
	"materials": {
		"maktx": "Smoke test item", "uom": "EA", "plant": "1000",
		"safetyStock": "5", "price": "1.5",
	},
	"bom-items": {
		"parent": "A-100", "component": "M-100", "qty": "2",
		"minQty": "1", "maxQty": "4", "position": "99",
	},
	"work-orders": {
		"matnr": "M-100", "qty": "10", "startDate": "2026-08-27",
	},
	"defects": {
		"orderNo": "WO-0001", "code": "SCRATCH", "note": "smoke run",
	},
}

func runSmoke(ctx context.Context, opts smokeOptions) error {
	conf := configuration.Use()
	log := conf.Logger()

	cfg, err := production.Config(opts.entity)
	if err != nil {
		return withCode(exitUsage, err)
	}
	sample, ok := smokeSamples[opts.entity]
	if !ok {
		return withCode(exitUsage, fmt.Errorf("no smoke sample for entity %q", opts.entity))
	}

	endpoint := opts.endpoint
	if endpoint == "" {
		endpoint = conf.Gateway.Endpoint
	}
	client, err := graphql.NewClient(endpoint,
		graphql.WithAuthorization(conf.Gateway.Authorization),
		graphql.WithRequestIDHeader(conf.Gateway.RequestIDHeader),
		graphql.WithTimeout(conf.Gateway.Timeout),
		graphql.WithLogger(log),
	)
	if err != nil {
		return withCode(exitUsage, err)
	}

	notifier := &cliNotifier{log: log, autoConfirm: conf.AutoConfirm, in: os.Stdin, out: os.Stdout}
	ctrl, err := gridsync.New(cfg, client,
		gridsync.WithNotifier(notifier),
		gridsync.WithLogger(log),
		gridsync.WithEventBus(eventbus.NewEventPublisher(log)),
	)
	if err != nil {
		return withCode(exitUsage, err)
	}
	defer ctrl.Close()

	before := ctrl.Search(ctx, nil)
	searched := len(before)
	known := make(map[string]struct{}, searched)
	for _, row := range before {
		known[gridsync.CoerceString(row.Get(cfg.KeyField))] = struct{}{}
	}

	row := ctrl.Add()
	for field, value := range sample {
		row = row.With(field, value)
	}
	if opts.entity == "materials" {
		row = row.With("matnr", fmt.Sprintf("SMOKE-%d", time.Now().Unix()))
	}
	ctrl.Edit(row)

	if err := ctrl.Save(ctx); err != nil {
		if errors.Is(err, gridsync.ErrValidationFailed) {
			return withCode(exitValidation, err)
		}
		return withCode(exitGateway, err)
	}

	// The backend assigns the key for most entities; re-identify the
	// created record as the one that was not there before.
	var created gridsync.Row
	for _, r := range ctrl.Rows() {
		key := gridsync.CoerceString(r.Get(cfg.KeyField))
		if _, seen := known[key]; !seen {
			created = r
			break
		}
	}

	deleted := 0
	if !opts.keep && !created.ID.IsZero() {
		ctrl.Select([]string{created.ID.String()})
		if err := ctrl.Delete(ctx); err != nil {
			return withCode(exitGateway, err)
		}
		deleted = 1
	}

	type smokeSummary struct {
		Status   string `json:"status"`
		Entity   string `json:"entity"`
		Searched int    `json:"searched"`
		Created  string `json:"created"`
		Deleted  int    `json:"deleted"`
	}
	return writeJSONLine(smokeSummary{
		Status:   "ok",
		Entity:   opts.entity,
		Searched: searched,
		Created:  gridsync.CoerceString(created.Get(cfg.KeyField)),
		Deleted:  deleted,
	})
}

func writeJSONLine(v any) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(v)
}
