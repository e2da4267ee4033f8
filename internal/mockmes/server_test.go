package mockmes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mesflow/gridsync/internal/mockmes"
	"github.com/mesflow/gridsync/modules/production"
	"github.com/mesflow/gridsync/pkg/graphql"
	"github.com/mesflow/gridsync/pkg/gridsync"
)

func newBackend(t *testing.T) (*mockmes.Server, *httptest.Server) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	srv := mockmes.New(log)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func post(t *testing.T, ts *httptest.Server, query string, variables map[string]any) map[string]any {
	t.Helper()
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func TestRead_FiltersByVariables(t *testing.T) {
	srv, ts := newBackend(t)
	require.NoError(t, srv.Seed("materials", []map[string]any{
		{"matnr": "M-100", "maktx": "Bolt", "plant": "1000"},
		{"matnr": "M-200", "maktx": "Nut", "plant": "2000"},
	}))

	envelope := post(t, ts, `query { materials(plant: $plant) { matnr } }`, map[string]any{"plant": "2000"})
	data := envelope["data"].(map[string]any)
	records := data["materials"].([]any)
	require.Len(t, records, 1)
	require.Equal(t, "M-200", records[0].(map[string]any)["matnr"])

	// An empty filter value means "no filter".
	envelope = post(t, ts, `query { materials(plant: $plant) { matnr } }`, map[string]any{"plant": ""})
	require.Len(t, envelope["data"].(map[string]any)["materials"], 2)
}

func TestSave_MintsKeysForServerKeyedEntities(t *testing.T) {
	_, ts := newBackend(t)

	envelope := post(t, ts, `mutation { saveWorkOrders(created: $created, updated: $updated) }`, map[string]any{
		"created": []any{
			map[string]any{"matnr": "M-100", "qty": 10},
			map[string]any{"matnr": "M-200", "qty": 5},
		},
		"updated": []any{},
	})
	require.Nil(t, envelope["errors"])

	envelope = post(t, ts, `query { workOrders(plant: $plant) { orderNo } }`, map[string]any{})
	records := envelope["data"].(map[string]any)["workOrders"].([]any)
	require.Len(t, records, 2)
	require.Equal(t, "WO-0001", records[0].(map[string]any)["orderNo"])
	require.Equal(t, "WO-0002", records[1].(map[string]any)["orderNo"])
}

func TestSave_RejectsDuplicateNaturalKey(t *testing.T) {
	srv, ts := newBackend(t)
	require.NoError(t, srv.Seed("materials", []map[string]any{{"matnr": "M-100"}}))

	envelope := post(t, ts, `mutation { saveMaterials(created: $created, updated: $updated) }`, map[string]any{
		"created": []any{map[string]any{"matnr": "M-100"}},
		"updated": []any{},
	})
	errs := envelope["errors"].([]any)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].(map[string]any)["message"], "duplicate key M-100")

	// The rejected batch must not have been applied.
	envelope = post(t, ts, `query { materials(plant: $plant) { matnr } }`, map[string]any{})
	require.Len(t, envelope["data"].(map[string]any)["materials"], 1)
}

func TestDelete_UnknownKeyFails(t *testing.T) {
	srv, ts := newBackend(t)
	require.NoError(t, srv.Seed("defects", []map[string]any{{"code": "SCRATCH", "qty": 1}}))

	envelope := post(t, ts, `mutation { deleteDefects(deleted: $deleted) }`, map[string]any{
		"deleted": []any{map[string]any{"defectId": "DEF-9999"}},
	})
	require.NotNil(t, envelope["errors"])

	envelope = post(t, ts, `mutation { deleteDefects(deleted: $deleted) }`, map[string]any{
		"deleted": []any{map[string]any{"defectId": "DEF-0001"}},
	})
	require.Nil(t, envelope["errors"])
}

type autoNotifier struct{}

func (autoNotifier) ShowSuccess(string)       {}
func (autoNotifier) ShowWarning(string)       {}
func (autoNotifier) ShowError(string)         {}
func (autoNotifier) Confirm(_, _ string) bool { return true }

// TestController_RoundTrip drives a full editing session through the real
// HTTP client against the mock backend.
func TestController_RoundTrip(t *testing.T) {
	srv, ts := newBackend(t)
	require.NoError(t, srv.Seed("materials", []map[string]any{
		{"matnr": "M-100", "maktx": "Bolt", "uom": "EA", "plant": "1000", "safetyStock": 10, "price": 0.5},
	}))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	client, err := graphql.NewClient(ts.URL+"/query", graphql.WithLogger(log))
	require.NoError(t, err)

	ctrl, err := gridsync.New(production.Materials(), client,
		gridsync.WithNotifier(autoNotifier{}), gridsync.WithLogger(log))
	require.NoError(t, err)

	ctx := context.Background()
	ctrl.Search(ctx, nil)
	require.Len(t, ctrl.Rows(), 1)

	added := ctrl.Add()
	ctrl.Edit(added.
		With("matnr", "M-200").
		With("maktx", "Washer").
		With("uom", "EA").
		With("plant", "1000").
		With("safetyStock", "25").
		With("price", "0.1"))
	require.True(t, ctrl.Dirty())

	require.NoError(t, ctrl.Save(ctx))
	require.False(t, ctrl.Dirty())
	require.Len(t, ctrl.Rows(), 2)

	// Delete the persisted original through confirmation.
	var target gridsync.Row
	for _, row := range ctrl.Rows() {
		if gridsync.CoerceString(row.Get("matnr")) == "M-100" {
			target = row
		}
	}
	ctrl.Select([]string{target.ID.String()})
	require.NoError(t, ctrl.Delete(ctx))
	require.Len(t, ctrl.Rows(), 1)
	require.Equal(t, "M-200", gridsync.CoerceString(ctrl.Rows()[0].Get("matnr")))
}
