package production

import (
	"github.com/mesflow/gridsync/pkg/gridsync"
)

const (
	bomItemsQuery = `query BomItems($parent: String) {
  bomItems(parent: $parent) { bomId parent component qty uom minQty maxQty position }
}`
	saveBomItemsMutation = `mutation SaveBomItems($created: [BomItemInput!]!, $updated: [BomItemUpdateInput!]!) {
  saveBomItems(created: $created, updated: $updated)
}`
	deleteBomItemsMutation = `mutation DeleteBomItems($deleted: [BomItemKeyInput!]!) {
  deleteBomItems(deleted: $deleted)
}`
)

// BomItems is the bill-of-material maintenance screen. The bomId key is
// assigned by the backend on creation, so staged-new rows leave it empty.
func BomItems() gridsync.EntityConfig {
	return gridsync.EntityConfig{
		Name: "bom-items",
		Columns: []gridsync.Column{
			{Field: "bomId", Title: "BOM item", UIOnly: true},
			{Field: "parent", Title: "Parent material", Required: true},
			{Field: "component", Title: "Component", Required: true},
			{Field: "qty", Title: "Quantity", Type: gridsync.ColumnNumber, Required: true},
			{Field: "uom", Title: "Unit"},
			{Field: "minQty", Title: "Min quantity", Type: gridsync.ColumnNumber},
			{Field: "maxQty", Title: "Max quantity", Type: gridsync.ColumnNumber},
			{Field: "position", Title: "Position", Type: gridsync.ColumnNumber},
		},
		KeyField:       "bomId",
		ReadQuery:      bomItemsQuery,
		SaveMutation:   saveBomItemsMutation,
		DeleteMutation: deleteBomItemsMutation,
		DefaultFilter:  map[string]any{"parent": ""},
		CustomRule:     bomItemRule,
	}
}

func bomItemRule(row gridsync.Row) map[string]string {
	errs := map[string]string{}
	parent := gridsync.CoerceString(row.Get("parent"))
	component := gridsync.CoerceString(row.Get("component"))
	if parent != "" && parent == component {
		errs["component"] = "component must differ from parent material"
	}
	minQty := gridsync.CoerceDecimal(row.Get("minQty"))
	maxQty := gridsync.CoerceDecimal(row.Get("maxQty"))
	if !maxQty.IsZero() && minQty.GreaterThan(maxQty) {
		errs["minQty"] = "min quantity must be ≤ max quantity"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
