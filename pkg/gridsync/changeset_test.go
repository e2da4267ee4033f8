package gridsync

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func keyByMatnr(row Row) string {
	if row.ID.IsPersisted() {
		return row.ID.Key()
	}
	return ""
}

func TestChangeSet_RecordAdd_PrependsToBothCollections(t *testing.T) {
	cs := NewChangeSet(keyByMatnr)
	displayed := []Row{NewRow(PersistedRowID("M-1"), map[string]any{"matnr": "M-1"})}

	row, out := cs.RecordAdd(func() Row {
		return NewRow(NewRowID(), map[string]any{"qty": ""})
	}, displayed)

	require.True(t, row.ID.IsStagedNew())
	require.Len(t, out, 2)
	require.Equal(t, row.ID, out[0].ID)
	require.Len(t, cs.StagedNew(), 1)
	require.True(t, cs.HasChanges())
}

func TestChangeSet_RecordEdit_StagedNewUpsertIsIdempotent(t *testing.T) {
	cs := NewChangeSet(keyByMatnr)
	row, displayed := cs.RecordAdd(func() Row {
		return NewRow(NewRowID(), map[string]any{"qty": 1})
	}, nil)

	_, displayed = cs.RecordEdit(row.With("qty", 2), displayed)
	merged, displayed := cs.RecordEdit(row.With("qty", 3), displayed)

	staged := cs.StagedNew()
	require.Len(t, staged, 1)
	require.Equal(t, 3, staged[0].Get("qty"))
	require.Equal(t, 3, merged.Get("qty"))
	require.Equal(t, 3, displayed[0].Get("qty"))
	require.Empty(t, cs.StagedUpdated())
}

func TestChangeSet_RecordEdit_PersistedCollapsesByBusinessKey(t *testing.T) {
	cs := NewChangeSet(keyByMatnr)
	displayed := []Row{NewRow(PersistedRowID("M-1"), map[string]any{"matnr": "M-1", "qty": 5})}

	_, displayed = cs.RecordEdit(displayed[0].With("qty", 6), displayed)
	_, displayed = cs.RecordEdit(displayed[0].With("qty", 7), displayed)

	updated := cs.StagedUpdated()
	require.Len(t, updated, 1)
	require.Equal(t, 7, updated[0].Get("qty"))
	require.Equal(t, 7, displayed[0].Get("qty"))
	require.Empty(t, cs.StagedNew())
}

func TestChangeSet_RecordEdit_KeepsPrefixInvariant(t *testing.T) {
	cs := NewChangeSet(keyByMatnr)
	row, displayed := cs.RecordAdd(func() Row {
		return NewRow(NewRowID(), nil)
	}, nil)

	merged, _ := cs.RecordEdit(row.With("qty", 9), displayed)
	require.True(t, merged.ID.IsStagedNew())
	for _, r := range cs.StagedNew() {
		require.True(t, r.ID.IsStagedNew())
	}
}

func TestChangeSet_Select_ReplacesNotAdds(t *testing.T) {
	cs := NewChangeSet(keyByMatnr)
	displayed := []Row{
		NewRow(PersistedRowID("M-1"), map[string]any{"matnr": "M-1"}),
		NewRow(PersistedRowID("M-2"), map[string]any{"matnr": "M-2"}),
		NewRow(PersistedRowID("M-3"), map[string]any{"matnr": "M-3"}),
	}

	first := cs.Select([]string{"M-1", "M-2"}, displayed)
	require.Len(t, first, 2)

	second := cs.Select([]string{"M-3"}, displayed)
	require.Len(t, second, 1)
	require.Equal(t, "M-3", second[0].ID.String())
	require.Len(t, cs.Selected(), 1)

	// Ids not present in the collection are ignored.
	third := cs.Select([]string{"M-404"}, displayed)
	require.Empty(t, third)
}

func TestChangeSet_BuildSavePayload_RoutesByVariant(t *testing.T) {
	cs := NewChangeSet(keyByMatnr)
	transforms := DefaultTransforms([]Column{
		{Field: "matnr"},
		{Field: "qty", Type: ColumnNumber},
	}, "matnr")

	_, displayed := cs.RecordAdd(func() Row {
		return NewRow(NewRowID(), map[string]any{"matnr": "M-9", "qty": "2"})
	}, []Row{NewRow(PersistedRowID("M-1"), map[string]any{"matnr": "M-1", "qty": 5})})
	_, _ = cs.RecordEdit(displayed[1].With("qty", 7), displayed)

	payload := cs.BuildSavePayload(transforms)
	require.Len(t, payload.Created, 1)
	require.Len(t, payload.Updated, 1)
	require.Equal(t, float64(2), payload.Created[0]["qty"])
	require.Equal(t, float64(7), payload.Updated[0]["qty"])
	require.Equal(t, "M-1", payload.Updated[0]["matnr"])
}

func TestChangeSet_BuildDeletePayload_PartitionsByVariant(t *testing.T) {
	cs := NewChangeSet(keyByMatnr)
	transforms := DefaultTransforms([]Column{{Field: "matnr"}}, "matnr")

	stagedA := NewRow(NewRowID(), map[string]any{"matnr": ""})
	stagedB := NewRow(NewRowID(), map[string]any{"matnr": ""})
	persisted := NewRow(PersistedRowID("M-1"), map[string]any{"matnr": "M-1"})
	displayed := []Row{stagedA, stagedB, persisted}

	cs.Select([]string{stagedA.ID.String(), stagedB.ID.String(), "M-1"}, displayed)
	plan := cs.BuildDeletePayload(transforms)

	require.Len(t, plan.Staged, 2)
	require.Len(t, plan.Persisted, 1)
	require.Len(t, plan.Payloads, 1)
	require.Equal(t, "M-1", plan.Payloads[0]["matnr"])
}

func TestChangeSet_ClearStaged_KeepsSelection(t *testing.T) {
	cs := NewChangeSet(keyByMatnr)
	displayed := []Row{NewRow(PersistedRowID("M-1"), map[string]any{"matnr": "M-1", "qty": 5})}
	_, displayed = cs.RecordEdit(displayed[0].With("qty", 6), displayed)
	cs.Select([]string{"M-1"}, displayed)

	cs.ClearStaged()
	require.False(t, cs.HasChanges())
	require.Len(t, cs.Selected(), 1)

	cs.Reset()
	require.Empty(t, cs.Selected())
}

func TestChangeSet_StagedRowIndependentOfSelection(t *testing.T) {
	cs := NewChangeSet(keyByMatnr)
	row, displayed := cs.RecordAdd(func() Row {
		return NewRow(NewRowID(), map[string]any{"qty": 1})
	}, nil)

	cs.Select([]string{row.ID.String()}, displayed)
	require.Len(t, cs.Selected(), 1)
	require.Len(t, cs.StagedNew(), 1)

	// Editing a selected row keeps the selection snapshot current.
	merged, _ := cs.RecordEdit(row.With("qty", 4), displayed)
	require.Equal(t, 4, cs.Selected()[0].Get("qty"))
	require.Equal(t, 4, merged.Get("qty"))
}
