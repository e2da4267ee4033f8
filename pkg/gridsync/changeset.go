package gridsync

// orderedRows is an insertion-ordered row map. Upsert replaces in place
// when the key is already present and prepends otherwise, so the newest
// staged rows surface first while repeated edits keep their slot.
type orderedRows struct {
	order []string
	byKey map[string]Row
}

func newOrderedRows() *orderedRows {
	return &orderedRows{byKey: map[string]Row{}}
}

func (o *orderedRows) upsert(key string, row Row) {
	if _, ok := o.byKey[key]; ok {
		o.byKey[key] = row
		return
	}
	o.order = append([]string{key}, o.order...)
	o.byKey[key] = row
}

func (o *orderedRows) remove(key string) bool {
	if _, ok := o.byKey[key]; !ok {
		return false
	}
	delete(o.byKey, key)
	for i, k := range o.order {
		if k == key {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

func (o *orderedRows) rows() []Row {
	out := make([]Row, 0, len(o.order))
	for _, k := range o.order {
		out = append(out, o.byKey[k])
	}
	return out
}

func (o *orderedRows) len() int { return len(o.byKey) }

func (o *orderedRows) clear() {
	o.order = nil
	o.byKey = map[string]Row{}
}

// ChangeSet is the in-memory record of pending creates, updates and the
// current selection for one screen. Staged-new rows are keyed by grid id;
// staged updates are keyed by the row's persisted business key so repeated
// edits to the same record collapse to one entry. All operations are local
// and never fail; errors only arise in transforms and the gateway.
type ChangeSet struct {
	keyOf         func(Row) string
	stagedNew     *orderedRows
	stagedUpdated *orderedRows
	selected      []Row
}

// NewChangeSet builds an empty change set. keyOf extracts the persisted
// business key used to dedup updates; rows it cannot key (e.g. TEMP_ rows)
// fall back to the grid id.
func NewChangeSet(keyOf func(Row) string) *ChangeSet {
	if keyOf == nil {
		keyOf = func(Row) string { return "" }
	}
	return &ChangeSet{
		keyOf:         keyOf,
		stagedNew:     newOrderedRows(),
		stagedUpdated: newOrderedRows(),
	}
}

func (c *ChangeSet) updateKey(row Row) string {
	if k := c.keyOf(row); k != "" {
		return k
	}
	return row.ID.String()
}

// Select replaces the selection with the displayed rows whose ids are in
// selectedIDs. The selection is recomputed, not additive.
func (c *ChangeSet) Select(selectedIDs []string, displayed []Row) []Row {
	wanted := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		wanted[id] = struct{}{}
	}
	picked := make([]Row, 0, len(selectedIDs))
	for _, row := range displayed {
		if _, ok := wanted[row.ID.String()]; ok {
			picked = append(picked, row)
		}
	}
	c.selected = picked
	return cloneRows(picked)
}

// RecordEdit replaces the matching row in the displayed collection and
// stages the change: staged-new rows upsert into the staged-new set keyed
// by grid id, persisted rows upsert into the staged-updated set keyed by
// business key. Returns the merged row and the updated collection.
func (c *ChangeSet) RecordEdit(updated Row, displayed []Row) (Row, []Row) {
	merged := updated.Clone()
	out := cloneRows(displayed)
	gridID := merged.ID.String()
	for i, row := range out {
		if row.ID.String() == gridID {
			out[i] = merged
			break
		}
	}

	if merged.ID.IsStagedNew() {
		c.stagedNew.upsert(gridID, merged)
	} else {
		c.stagedUpdated.upsert(c.updateKey(merged), merged)
	}

	// The selection holds row values; keep an edited selected row current.
	for i, row := range c.selected {
		if row.ID.String() == gridID {
			c.selected[i] = merged
		}
	}
	return merged, out
}

// RecordAdd synthesizes a new row and prepends it to both the displayed
// collection and the staged-new set.
func (c *ChangeSet) RecordAdd(create func() Row, displayed []Row) (Row, []Row) {
	row := create()
	if row.ID.IsZero() {
		row.ID = NewRowID()
	}
	if row.Fields == nil {
		row.Fields = map[string]any{}
	}
	c.stagedNew.upsert(row.ID.String(), row)
	out := append([]Row{row}, cloneRows(displayed)...)
	return row, out
}

// SavePayload carries both mutation arrays of one save call. The backend
// treats both as unordered.
type SavePayload struct {
	Created []WirePayload
	Updated []WirePayload
}

func (p SavePayload) Empty() bool {
	return len(p.Created) == 0 && len(p.Updated) == 0
}

// BuildSavePayload projects the staged sets through the entity transforms.
func (c *ChangeSet) BuildSavePayload(t Transforms) SavePayload {
	payload := SavePayload{}
	for _, row := range c.stagedNew.rows() {
		payload.Created = append(payload.Created, t.Create(row))
	}
	for _, row := range c.stagedUpdated.rows() {
		payload.Updated = append(payload.Updated, t.Update(row))
	}
	return payload
}

// DeletePlan partitions the selection for a delete: staged rows are
// removed locally with no network call, persisted rows need one delete
// mutation carrying their business keys.
type DeletePlan struct {
	Staged    []Row
	Persisted []Row
	Payloads  []WirePayload
}

// BuildDeletePayload partitions the current selection by row identity.
func (c *ChangeSet) BuildDeletePayload(t Transforms) DeletePlan {
	plan := DeletePlan{}
	for _, row := range c.selected {
		if row.ID.IsStagedNew() {
			plan.Staged = append(plan.Staged, row)
			continue
		}
		plan.Persisted = append(plan.Persisted, row)
		plan.Payloads = append(plan.Payloads, t.Delete(row))
	}
	return plan
}

// RemoveStagedNew drops a staged-new row (local-only delete path).
func (c *ChangeSet) RemoveStagedNew(gridID string) bool {
	return c.stagedNew.remove(gridID)
}

// DropUpdated discards staged updates for the given rows, used after the
// backend confirmed their deletion.
func (c *ChangeSet) DropUpdated(rows []Row) {
	for _, row := range rows {
		c.stagedUpdated.remove(c.updateKey(row))
	}
}

func (c *ChangeSet) StagedNew() []Row     { return c.stagedNew.rows() }
func (c *ChangeSet) StagedUpdated() []Row { return c.stagedUpdated.rows() }
func (c *ChangeSet) Selected() []Row      { return cloneRows(c.selected) }

func (c *ChangeSet) HasChanges() bool {
	return c.stagedNew.len() > 0 || c.stagedUpdated.len() > 0
}

// ClearStaged empties both staged sets after a successful save; the
// selection survives so a save-then-delete flow keeps working.
func (c *ChangeSet) ClearStaged() {
	c.stagedNew.clear()
	c.stagedUpdated.clear()
}

// ClearSelection empties the selection only.
func (c *ChangeSet) ClearSelection() {
	c.selected = nil
}

// Reset discards everything; a fresh search deliberately drops unsaved
// edits along with the stale selection.
func (c *ChangeSet) Reset() {
	c.stagedNew.clear()
	c.stagedUpdated.clear()
	c.selected = nil
}
