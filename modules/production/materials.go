// Package production supplies the entity configurations for the
// production-management screens: materials, BOM items, work orders and
// defects. Each configuration binds one screen's wire operations, column
// schema and business rules to the grid controller.
package production

import (
	"github.com/mesflow/gridsync/pkg/gridsync"
)

const (
	materialsQuery = `query Materials($plant: String) {
  materials(plant: $plant) { matnr maktx uom plant safetyStock price }
}`
	saveMaterialsMutation = `mutation SaveMaterials($created: [MaterialInput!]!, $updated: [MaterialUpdateInput!]!) {
  saveMaterials(created: $created, updated: $updated)
}`
	deleteMaterialsMutation = `mutation DeleteMaterials($deleted: [MaterialKeyInput!]!) {
  deleteMaterials(deleted: $deleted)
}`
)

// Materials is the master-data screen for plant materials. The material
// number is the natural key and is entered by the user, not assigned by
// the backend.
func Materials() gridsync.EntityConfig {
	return gridsync.EntityConfig{
		Name: "materials",
		Columns: []gridsync.Column{
			{Field: "matnr", Title: "Material", Required: true},
			{Field: "maktx", Title: "Description", Required: true},
			{Field: "uom", Title: "Unit"},
			{Field: "plant", Title: "Plant", Required: true},
			{Field: "safetyStock", Title: "Safety stock", Type: gridsync.ColumnNumber},
			{Field: "price", Title: "Price", Type: gridsync.ColumnNumber},
		},
		KeyField:       "matnr",
		ReadQuery:      materialsQuery,
		SaveMutation:   saveMaterialsMutation,
		DeleteMutation: deleteMaterialsMutation,
		DefaultFilter:  map[string]any{"plant": "1000"},
		CustomRule: func(row gridsync.Row) map[string]string {
			if gridsync.CoerceDecimal(row.Get("safetyStock")).IsNegative() {
				return map[string]string{"safetyStock": "safety stock must not be negative"}
			}
			return nil
		},
	}
}
