package gridsync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mesflow/gridsync/pkg/eventbus"
	"github.com/mesflow/gridsync/pkg/graphql"
	"github.com/mesflow/gridsync/pkg/logging"
)

// EntityConfig is everything one screen supplies to get a fully wired
// editable-collection controller: the wire operations, the column schema,
// the projections and the business rules. One parameterized controller
// replaces the per-screen copies of the same save/delete/validate shape.
type EntityConfig struct {
	// Name identifies the entity in events and log lines.
	Name string
	// Columns double as validation schema and default-transform schema.
	Columns []Column
	// KeyField is the wire name of the server-assigned business key.
	KeyField string

	ReadQuery      string
	SaveMutation   string
	DeleteMutation string

	// DefaultFilter seeds the first search.
	DefaultFilter map[string]any

	// FormatData projects a read response into rows. Nil selects the
	// generic projector keyed by KeyField.
	FormatData FormatFunc
	// Transforms project rows into wire payloads. Zero-valued fields fall
	// back to DefaultTransforms over Columns and KeyField.
	Transforms Transforms
	// CustomRule adds per-row business validation on top of required
	// columns.
	CustomRule CustomRule
	// NewRow synthesizes a staged-new row for the add operation. Nil
	// produces an empty row.
	NewRow func() Row
	// OnSaveSuccess runs after a successful save, before the refresh.
	OnSaveSuccess func(ctx context.Context)
}

func (c EntityConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("entity config: Name must not be empty")
	}
	if len(c.Columns) == 0 {
		return fmt.Errorf("entity config %q: Columns must not be empty", c.Name)
	}
	if c.KeyField == "" {
		return fmt.Errorf("entity config %q: KeyField must not be empty", c.Name)
	}
	if c.ReadQuery == "" || c.SaveMutation == "" || c.DeleteMutation == "" {
		return fmt.Errorf("entity config %q: read query and save/delete mutations are required", c.Name)
	}
	return nil
}

// DefaultFormatData unwraps the single top-level field of the read
// response, decodes its array of objects and assigns grid ids: the
// business key when present, a generated TEMP_ id otherwise.
func DefaultFormatData(keyField string) FormatFunc {
	return func(data json.RawMessage) ([]Row, error) {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("decode read response: %w", err)
		}
		if len(envelope) != 1 {
			return nil, fmt.Errorf("expected one top-level read field, got %d", len(envelope))
		}
		var records []map[string]any
		for _, raw := range envelope {
			if err := json.Unmarshal(raw, &records); err != nil {
				return nil, fmt.Errorf("decode read records: %w", err)
			}
		}
		rows := make([]Row, 0, len(records))
		for _, record := range records {
			id := TempRowID()
			if key := CoerceString(record[keyField]); key != "" {
				id = PersistedRowID(key)
			}
			rows = append(rows, NewRow(id, record))
		}
		return rows, nil
	}
}

// Option configures optional controller collaborators.
type Option func(*Controller)

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithLogger(log *logrus.Logger) Option {
	return func(c *Controller) { c.log = log }
}

func WithEventBus(bus eventbus.EventBus) Option {
	return func(c *Controller) { c.bus = bus }
}

// Controller owns the displayed collection and the change set for one
// screen. It is the single mutator of both; everything else reads
// snapshots or dispatches operations to it.
type Controller struct {
	cfg        EntityConfig
	transforms Transforms
	format     FormatFunc
	engine     *Engine
	changes    *ChangeSet
	gateway    *Gateway
	notifier   Notifier
	bus        eventbus.EventBus
	log        *logrus.Logger

	mu     sync.Mutex
	rows   []Row
	filter map[string]any
}

// New builds the controller for one entity configuration.
func New(cfg EntityConfig, exec graphql.Executor, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:    cfg,
		filter: cfg.DefaultFilter,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logging.ConsoleLogger(logrus.WarnLevel)
	}
	if c.notifier == nil {
		c.notifier = noopNotifier{log: c.log}
	}

	c.transforms = cfg.Transforms
	defaults := DefaultTransforms(cfg.Columns, cfg.KeyField)
	if c.transforms.Create == nil {
		c.transforms.Create = defaults.Create
	}
	if c.transforms.Update == nil {
		c.transforms.Update = defaults.Update
	}
	if c.transforms.Delete == nil {
		c.transforms.Delete = defaults.Delete
	}

	c.format = cfg.FormatData
	if c.format == nil {
		c.format = DefaultFormatData(cfg.KeyField)
	}

	c.engine = NewEngine(cfg.Columns, cfg.CustomRule)
	c.changes = NewChangeSet(func(row Row) string {
		if row.ID.IsPersisted() {
			return row.ID.Key()
		}
		return CoerceString(row.Get(cfg.KeyField))
	})
	c.gateway = NewGateway(exec, c.notifier, c.log)
	return c, nil
}

// Rows returns a snapshot of the displayed collection.
func (c *Controller) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRows(c.rows)
}

// Dirty reports whether any unsaved creates or updates are staged.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changes.HasChanges()
}

func (c *Controller) Loading() bool { return c.gateway.Loading() }

// ChangeView is a point-in-time copy of the change set for screen glue
// and tests. The controller stays the only mutator of the live set.
type ChangeView struct {
	StagedNew     []Row
	StagedUpdated []Row
	Selected      []Row
}

// Changes snapshots the pending creates, updates and selection.
func (c *Controller) Changes() ChangeView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ChangeView{
		StagedNew:     c.changes.StagedNew(),
		StagedUpdated: c.changes.StagedUpdated(),
		Selected:      c.changes.Selected(),
	}
}

// Close marks the screen as torn down. In-flight network calls finish but
// no further notifications or collection updates are applied.
func (c *Controller) Close() { c.gateway.Close() }

// Search replaces the displayed collection from the backend. A search
// that ran always discards unsaved edits and the stale selection; one
// rejected by the submission gate never started, so the collection and
// the staged edits stay exactly as they were.
func (c *Controller) Search(ctx context.Context, filter map[string]any) []Row {
	if filter == nil {
		filter = c.cfg.DefaultFilter
	}

	rows, err := c.gateway.Fetch(ctx, c.cfg.ReadQuery, filter, c.format)
	if err != nil {
		return nil
	}
	if !c.gateway.alive() {
		return nil
	}

	c.mu.Lock()
	c.filter = filter
	c.changes.Reset()
	c.rows = rows
	c.mu.Unlock()

	c.publish(&SearchedEvent{Entity: c.cfg.Name, Count: len(rows)})
	return cloneRows(rows)
}

// Refresh re-fetches the authoritative collection with the current filter
// without touching the change set. Save and delete call it after success.
func (c *Controller) Refresh(ctx context.Context) []Row {
	c.mu.Lock()
	filter := c.filter
	c.mu.Unlock()

	rows, err := c.gateway.Fetch(ctx, c.cfg.ReadQuery, filter, c.format)
	if err != nil || !c.gateway.alive() {
		return nil
	}

	c.mu.Lock()
	c.rows = rows
	c.mu.Unlock()
	return cloneRows(rows)
}

// Select recomputes the selection from the grid's checked ids.
func (c *Controller) Select(selectedIDs []string) []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changes.Select(selectedIDs, c.rows)
}

// Add synthesizes a staged-new row and prepends it to the collection.
func (c *Controller) Add() Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	create := c.cfg.NewRow
	if create == nil {
		create = func() Row { return NewRow(NewRowID(), map[string]any{}) }
	}
	row, rows := c.changes.RecordAdd(create, c.rows)
	c.rows = rows
	return row
}

// Edit routes a changed row into the displayed collection and the change
// set, and returns the merged row.
func (c *Controller) Edit(updated Row) Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged, rows := c.changes.RecordEdit(updated, c.rows)
	c.rows = rows
	return merged
}

// Save validates the staged batch, sends one mutation carrying both
// arrays and, on success, clears the staged sets and re-fetches the
// authoritative collection. On failure the change set is left intact so
// the user can retry without re-entering data.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if !c.changes.HasChanges() {
		c.mu.Unlock()
		c.notifier.ShowWarning("No changes to save")
		return nil
	}
	batch := append(c.changes.StagedNew(), c.changes.StagedUpdated()...)
	result := c.engine.ValidateRows(batch)
	if !result.Valid {
		c.mu.Unlock()
		summary := result.Summary()
		c.notifier.ShowWarning(summary)
		c.publish(&ValidationFailedEvent{Entity: c.cfg.Name, Summary: summary})
		return ErrValidationFailed.WithDetails(summary)
	}
	payload := c.changes.BuildSavePayload(c.transforms)
	c.mu.Unlock()

	if err := c.gateway.Save(ctx, c.cfg.SaveMutation, payload); err != nil {
		return err
	}

	c.mu.Lock()
	c.changes.ClearStaged()
	c.mu.Unlock()

	if c.cfg.OnSaveSuccess != nil {
		c.cfg.OnSaveSuccess(ctx)
	}
	c.Refresh(ctx)
	c.publish(&SavedEvent{Entity: c.cfg.Name, Created: len(payload.Created), Updated: len(payload.Updated)})
	return nil
}

// Delete removes the selected rows: staged-new rows vanish locally with
// no network call, persisted rows go through one confirmed delete
// mutation followed by a refresh. A declined confirmation or a backend
// failure leaves all state untouched.
func (c *Controller) Delete(ctx context.Context) error {
	c.mu.Lock()
	plan := c.changes.BuildDeletePayload(c.transforms)
	c.mu.Unlock()

	if len(plan.Staged) == 0 && len(plan.Persisted) == 0 {
		c.notifier.ShowWarning("No rows selected")
		return nil
	}

	if len(plan.Persisted) > 0 {
		deleted, err := c.gateway.Delete(ctx, c.cfg.DeleteMutation, plan.Payloads)
		if err != nil {
			return err
		}
		if !deleted {
			return nil
		}
	}

	c.mu.Lock()
	for _, row := range plan.Staged {
		c.changes.RemoveStagedNew(row.ID.String())
	}
	c.changes.DropUpdated(plan.Persisted)
	c.changes.ClearSelection()
	c.rows = removeRows(c.rows, append(plan.Staged, plan.Persisted...))
	c.mu.Unlock()

	if len(plan.Persisted) > 0 {
		c.Refresh(ctx)
	}
	c.publish(&DeletedEvent{Entity: c.cfg.Name, Staged: len(plan.Staged), Persisted: len(plan.Persisted)})
	return nil
}

func (c *Controller) publish(event any) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(event)
}

func removeRows(rows []Row, victims []Row) []Row {
	doomed := make(map[string]struct{}, len(victims))
	for _, row := range victims {
		doomed[row.ID.String()] = struct{}{}
	}
	out := rows[:0:0]
	for _, row := range rows {
		if _, ok := doomed[row.ID.String()]; !ok {
			out = append(out, row)
		}
	}
	return out
}

// noopNotifier logs outcomes and declines confirmations; real screens
// install their own sink.
type noopNotifier struct {
	log *logrus.Logger
}

func (n noopNotifier) ShowSuccess(text string)  { n.log.Infof("gridsync: %s", text) }
func (n noopNotifier) ShowWarning(text string)  { n.log.Warnf("gridsync: %s", text) }
func (n noopNotifier) ShowError(message string) { n.log.Errorf("gridsync: %s", message) }
func (n noopNotifier) Confirm(title, text string) bool {
	n.log.Warnf("gridsync: %s: %s (declined, no notifier installed)", title, text)
	return false
}
