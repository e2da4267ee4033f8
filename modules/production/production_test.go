package production

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesflow/gridsync/pkg/gridsync"
)

func TestRegistry_AllConfigsAreComplete(t *testing.T) {
	for name, cfg := range Registry() {
		require.NoError(t, cfg.Validate(), "config %q", name)
	}
}

func TestConfig_UnknownEntity(t *testing.T) {
	_, err := Config("inventory")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown entity")

	cfg, err := Config("materials")
	require.NoError(t, err)
	require.Equal(t, "materials", cfg.Name)
}

func TestNames_Stable(t *testing.T) {
	require.Equal(t, []string{"bom-items", "defects", "materials", "work-orders"}, Names())
}

func TestBomItemRule(t *testing.T) {
	row := gridsync.NewRow(gridsync.NewRowID(), map[string]any{
		"parent": "M-100", "component": "M-100", "minQty": 5, "maxQty": 2,
	})
	errs := bomItemRule(row)
	require.Len(t, errs, 2)
	require.Contains(t, errs["component"], "must differ")
	require.Contains(t, errs["minQty"], "min quantity")

	ok := gridsync.NewRow(gridsync.NewRowID(), map[string]any{
		"parent": "M-100", "component": "M-200", "minQty": 1, "maxQty": 2,
	})
	require.Nil(t, bomItemRule(ok))

	// A zero max means "no upper bound"; min alone is fine.
	unbounded := gridsync.NewRow(gridsync.NewRowID(), map[string]any{
		"parent": "M-100", "component": "M-200", "minQty": 10,
	})
	require.Nil(t, bomItemRule(unbounded))
}

func TestWorkOrderRule_DateOrdering(t *testing.T) {
	bad := gridsync.NewRow(gridsync.NewRowID(), map[string]any{
		"startDate": "2026-09-01", "endDate": "2026-08-01",
	})
	require.NotNil(t, workOrderRule(bad))

	good := gridsync.NewRow(gridsync.NewRowID(), map[string]any{
		"startDate": "2026-08-01", "endDate": "2026-09-01",
	})
	require.Nil(t, workOrderRule(good))

	open := gridsync.NewRow(gridsync.NewRowID(), map[string]any{
		"startDate": "2026-08-01", "endDate": "",
	})
	require.Nil(t, workOrderRule(open))
}

func TestWorkOrders_CreateTransformDropsStatus(t *testing.T) {
	cfg := WorkOrders()
	row := gridsync.NewRow(gridsync.NewRowID(), map[string]any{
		"matnr": "M-100", "qty": "10", "plant": "1000", "status": "CRTD",
		"startDate": "2026-08-01",
	})
	payload := cfg.Transforms.Create(row)
	require.NotContains(t, payload, "status")
	require.NotContains(t, payload, "orderNo")
	require.Equal(t, float64(10), payload["qty"])
}

func TestWorkOrders_UpdateTransformCarriesOrderNo(t *testing.T) {
	cfg := WorkOrders()
	row := gridsync.NewRow(gridsync.PersistedRowID("WO-0001"), map[string]any{
		"matnr": "M-100", "qty": 10, "plant": "1000", "startDate": "2026-08-01",
	})
	payload := cfg.Transforms.Update(row)
	require.Equal(t, "WO-0001", payload["orderNo"])
	require.NotContains(t, payload, "status")
}

func TestMaterials_NegativeSafetyStockRejected(t *testing.T) {
	cfg := Materials()
	errs := cfg.CustomRule(gridsync.NewRow(gridsync.NewRowID(), map[string]any{
		"safetyStock": "-5",
	}))
	require.Contains(t, errs["safetyStock"], "must not be negative")
}

func TestDefects_NewRowDefaultsToOnePiece(t *testing.T) {
	cfg := Defects()
	row := cfg.NewRow()
	require.Equal(t, 1, row.Get("qty"))
	require.True(t, row.ID.IsStagedNew())
}
