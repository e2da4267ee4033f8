package gridsync

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// WirePayload is a backend-bound projection of a row.
type WirePayload map[string]any

// Transforms are the per-entity pure projections from a UI row to the
// three wire shapes. They must be total: coercion failures degrade to a
// safe default instead of propagating, and no transform performs I/O.
type Transforms struct {
	// Create strips UI-only fields and coerces values for a creation call.
	Create func(Row) WirePayload
	// Update is the creation payload plus the persisted business key.
	Update func(Row) WirePayload
	// Delete carries the business key only.
	Delete func(Row) WirePayload
}

// DefaultTransforms derives the three projections from the column schema:
// every non-UI column is copied (numbers coerced), the business key rides
// under keyField for updates and deletes.
func DefaultTransforms(columns []Column, keyField string) Transforms {
	create := func(row Row) WirePayload {
		payload := WirePayload{}
		for _, col := range columns {
			if col.UIOnly {
				continue
			}
			v := row.Get(col.Field)
			if col.Type == ColumnNumber {
				payload[col.Field] = CoerceNumber(v)
				continue
			}
			if v == nil {
				payload[col.Field] = ""
				continue
			}
			payload[col.Field] = v
		}
		return payload
	}
	return Transforms{
		Create: create,
		Update: func(row Row) WirePayload {
			payload := create(row)
			payload[keyField] = businessKey(row, keyField)
			return payload
		},
		Delete: func(row Row) WirePayload {
			return WirePayload{keyField: businessKey(row, keyField)}
		},
	}
}

func businessKey(row Row, keyField string) string {
	if v := row.Get(keyField); v != nil {
		if s := CoerceString(v); s != "" {
			return s
		}
	}
	return row.ID.Key()
}

// CoerceNumber turns grid cell values into numbers. Strings tolerate
// thousands separators and surrounding space; anything unparsable
// degrades to 0. Silent defaulting matches the data-entry screens this
// serves; see the data-quality note in DESIGN.md.
func CoerceNumber(v any) float64 {
	d := CoerceDecimal(v)
	f, _ := d.Float64()
	return f
}

// CoerceDecimal is CoerceNumber without the float round trip, for rules
// that compare quantities exactly.
func CoerceDecimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case float64:
		return decimal.NewFromFloat(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt32(x)
	case int64:
		return decimal.NewFromInt(x)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// CoerceString renders any cell value for a string-typed wire field.
func CoerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return decimal.NewFromFloat(x).String()
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
