package production

import (
	"github.com/mesflow/gridsync/pkg/gridsync"
)

const (
	workOrdersQuery = `query WorkOrders($plant: String, $status: String) {
  workOrders(plant: $plant, status: $status) { orderNo matnr qty plant status startDate endDate }
}`
	saveWorkOrdersMutation = `mutation SaveWorkOrders($created: [WorkOrderInput!]!, $updated: [WorkOrderUpdateInput!]!) {
  saveWorkOrders(created: $created, updated: $updated)
}`
	deleteWorkOrdersMutation = `mutation DeleteWorkOrders($deleted: [WorkOrderKeyInput!]!) {
  deleteWorkOrders(deleted: $deleted)
}`
)

var workOrderColumns = []gridsync.Column{
	{Field: "orderNo", Title: "Order", UIOnly: true},
	{Field: "matnr", Title: "Material", Required: true},
	{Field: "qty", Title: "Quantity", Type: gridsync.ColumnNumber, Required: true},
	{Field: "plant", Title: "Plant", Required: true},
	{Field: "status", Title: "Status"},
	{Field: "startDate", Title: "Start date", Type: gridsync.ColumnDate, Required: true},
	{Field: "endDate", Title: "End date", Type: gridsync.ColumnDate},
}

// WorkOrders is the production-order screen. The status field is owned by
// the backend, so the create transform drops it instead of sending the
// grid's display value.
func WorkOrders() gridsync.EntityConfig {
	defaults := gridsync.DefaultTransforms(workOrderColumns, "orderNo")
	create := func(row gridsync.Row) gridsync.WirePayload {
		payload := defaults.Create(row)
		delete(payload, "status")
		return payload
	}
	return gridsync.EntityConfig{
		Name:           "work-orders",
		Columns:        workOrderColumns,
		KeyField:       "orderNo",
		ReadQuery:      workOrdersQuery,
		SaveMutation:   saveWorkOrdersMutation,
		DeleteMutation: deleteWorkOrdersMutation,
		DefaultFilter:  map[string]any{"plant": "1000", "status": ""},
		Transforms: gridsync.Transforms{
			Create: create,
			Update: func(row gridsync.Row) gridsync.WirePayload {
				payload := create(row)
				payload["orderNo"] = row.ID.Key()
				return payload
			},
			Delete: defaults.Delete,
		},
		CustomRule: workOrderRule,
		NewRow: func() gridsync.Row {
			return gridsync.NewRow(gridsync.NewRowID(), map[string]any{
				"plant":  "1000",
				"status": "CRTD",
				"qty":    "",
			})
		},
	}
}

// workOrderRule checks date ordering; dates arrive as ISO yyyy-mm-dd
// strings, so lexical comparison is date comparison.
func workOrderRule(row gridsync.Row) map[string]string {
	start := gridsync.CoerceString(row.Get("startDate"))
	end := gridsync.CoerceString(row.Get("endDate"))
	if start != "" && end != "" && start > end {
		return map[string]string{"startDate": "start date must not be after end date"}
	}
	return nil
}
