package gridsync

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ColumnType drives default cell formatting and payload coercion.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnNumber
	ColumnDate
)

// Column declares one grid field: its wire name, the label shown in
// validation summaries, its type and whether a value is mandatory.
type Column struct {
	Field    string
	Title    string
	Type     ColumnType
	Required bool
	// UIOnly fields are stripped from wire payloads by the default
	// transforms (grid id, display-only derived values).
	UIOnly bool
}

func (c Column) label() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Field
}

// ErrorKind distinguishes missing required values from business-rule
// violations.
type ErrorKind int

const (
	ErrorRequired ErrorKind = iota
	ErrorCustom
)

// FieldError is one validation failure on one field of one row. For
// required-field errors the message equals the field name; callers
// translate it to a label for display.
type FieldError struct {
	Field   string
	Kind    ErrorKind
	Message string
}

// CustomRule is an injectable per-row business rule returning violations
// keyed by field name.
type CustomRule func(Row) map[string]string

// RowResult is the outcome of validating a single row.
type RowResult struct {
	Valid  bool
	Errors map[string]FieldError
}

// BatchResult aggregates a whole-batch validation. Either the entire batch
// passes or the save is blocked; there is no per-row partial commit.
type BatchResult struct {
	Valid  bool
	ByRow  map[string]map[string]FieldError
	errors []FieldError
	labels map[string]string
}

// Engine validates rows against declarative required-column rules plus an
// optional custom rule.
type Engine struct {
	columns []Column
	custom  CustomRule
}

func NewEngine(columns []Column, custom CustomRule) *Engine {
	return &Engine{columns: columns, custom: custom}
}

// ValidateRow checks required columns and then merges custom-rule
// violations. A required field holding any empty value fails, including a
// numeric zero. Screens that allow zero quantities rely on defaulting the
// field, so "0 means missing" is load-bearing behavior, not an oversight
// to fix here.
func (e *Engine) ValidateRow(row Row) RowResult {
	errs := map[string]FieldError{}
	for _, col := range e.columns {
		if !col.Required {
			continue
		}
		if isEmptyValue(row.Get(col.Field)) {
			errs[col.Field] = FieldError{Field: col.Field, Kind: ErrorRequired, Message: col.Field}
		}
	}
	if e.custom != nil {
		for field, message := range e.custom(row) {
			errs[field] = FieldError{Field: field, Kind: ErrorCustom, Message: message}
		}
	}
	return RowResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateRows validates each row independently and aggregates failures
// for a single user-facing summary. An empty batch passes vacuously.
func (e *Engine) ValidateRows(rows []Row) BatchResult {
	result := BatchResult{
		Valid:  true,
		ByRow:  map[string]map[string]FieldError{},
		labels: map[string]string{},
	}
	for _, col := range e.columns {
		result.labels[col.Field] = col.label()
	}
	for _, row := range rows {
		rr := e.ValidateRow(row)
		if rr.Valid {
			continue
		}
		result.Valid = false
		result.ByRow[row.ID.String()] = rr.Errors
		appended := map[string]struct{}{}
		for _, col := range e.columns {
			if fe, ok := rr.Errors[col.Field]; ok {
				result.errors = append(result.errors, fe)
				appended[col.Field] = struct{}{}
			}
		}
		for _, field := range sortedKeys(rr.Errors) {
			if _, ok := appended[field]; ok {
				continue
			}
			result.errors = append(result.errors, rr.Errors[field])
		}
	}
	return result
}

// Summary renders all failures of the batch as one message: required
// fields are grouped into a single "X, Y are required" sentence so a
// fifty-row paste produces one dialog, custom violations follow deduped.
func (b BatchResult) Summary() string {
	if b.Valid {
		return ""
	}
	var required []string
	var custom []string
	seenRequired := map[string]struct{}{}
	seenCustom := map[string]struct{}{}
	for _, fe := range b.errors {
		switch fe.Kind {
		case ErrorRequired:
			label := b.labels[fe.Field]
			if label == "" {
				label = fe.Field
			}
			if _, ok := seenRequired[label]; ok {
				continue
			}
			seenRequired[label] = struct{}{}
			required = append(required, label)
		case ErrorCustom:
			if _, ok := seenCustom[fe.Message]; ok {
				continue
			}
			seenCustom[fe.Message] = struct{}{}
			custom = append(custom, fe.Message)
		}
	}

	var parts []string
	if len(required) > 0 {
		verb := "are"
		if len(required) == 1 {
			verb = "is"
		}
		parts = append(parts, strings.Join(required, ", ")+" "+verb+" required")
	}
	if len(custom) > 0 {
		parts = append(parts, strings.Join(custom, "; "))
	}
	return strings.Join(parts, ". ")
}

func sortedKeys(m map[string]FieldError) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// isEmptyValue mirrors the permissive falsy check the screens rely on:
// nil, empty or blank strings, false and numeric zero all count as empty.
func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	case int:
		return x == 0
	case int32:
		return x == 0
	case int64:
		return x == 0
	case float32:
		return x == 0
	case float64:
		return x == 0
	case decimal.Decimal:
		return x.IsZero()
	default:
		return false
	}
}
