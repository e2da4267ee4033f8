package production

import (
	"github.com/mesflow/gridsync/pkg/gridsync"
)

const (
	defectsQuery = `query Defects($orderNo: String) {
  defects(orderNo: $orderNo) { defectId orderNo code qty note }
}`
	saveDefectsMutation = `mutation SaveDefects($created: [DefectInput!]!, $updated: [DefectUpdateInput!]!) {
  saveDefects(created: $created, updated: $updated)
}`
	deleteDefectsMutation = `mutation DeleteDefects($deleted: [DefectKeyInput!]!) {
  deleteDefects(deleted: $deleted)
}`
)

// Defects is the quality-notification screen attached to a work order.
// New rows default to a single piece so quick tally entry only needs the
// defect code.
func Defects() gridsync.EntityConfig {
	return gridsync.EntityConfig{
		Name: "defects",
		Columns: []gridsync.Column{
			{Field: "defectId", Title: "Defect", UIOnly: true},
			{Field: "orderNo", Title: "Order", Required: true},
			{Field: "code", Title: "Defect code", Required: true},
			{Field: "qty", Title: "Quantity", Type: gridsync.ColumnNumber, Required: true},
			{Field: "note", Title: "Note"},
		},
		KeyField:       "defectId",
		ReadQuery:      defectsQuery,
		SaveMutation:   saveDefectsMutation,
		DeleteMutation: deleteDefectsMutation,
		DefaultFilter:  map[string]any{"orderNo": ""},
		NewRow: func() gridsync.Row {
			return gridsync.NewRow(gridsync.NewRowID(), map[string]any{
				"qty": 1,
			})
		},
	}
}
