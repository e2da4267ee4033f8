package gridsync

// Row is one record of the displayed collection: a grid id plus a
// schemaless field map. Rows are treated as values; mutation happens by
// building a replacement and routing it through the change set.
type Row struct {
	ID     RowID
	Fields map[string]any
}

func NewRow(id RowID, fields map[string]any) Row {
	if fields == nil {
		fields = map[string]any{}
	}
	return Row{ID: id, Fields: fields}
}

func (r Row) Get(field string) any {
	return r.Fields[field]
}

// With returns a copy of the row with one field replaced.
func (r Row) With(field string, value any) Row {
	c := r.Clone()
	c.Fields[field] = value
	return c
}

func (r Row) Clone() Row {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Row{ID: r.ID, Fields: fields}
}

// cloneRows copies the slice; the field maps are shared because grid rows
// are replaced, never edited in place.
func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}
