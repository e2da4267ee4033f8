package gridsync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mesflow/gridsync/pkg/graphql"
	"github.com/mesflow/gridsync/pkg/serrors"
)

// Notifier is the screen-side sink for user-facing outcomes. All methods
// are fire-and-forget; Confirm blocks for the user's answer.
type Notifier interface {
	ShowSuccess(text string)
	ShowWarning(text string)
	ShowError(message string)
	Confirm(title, text string) bool
}

var (
	// ErrSubmissionInFlight rejects a second mutation while one is running.
	ErrSubmissionInFlight = serrors.NewError("GRIDSYNC_BUSY", "a submission is already in flight", "")
	// ErrClosed rejects operations after the owning screen tore down.
	ErrClosed = serrors.NewError("GRIDSYNC_CLOSED", "the controller has been closed", "")
	// ErrValidationFailed blocks a save before any network call.
	ErrValidationFailed = serrors.NewError("GRIDSYNC_VALIDATION", "validation failed", "")
)

// State is the gateway submission state. There is no cancel transition;
// in-flight calls run to completion even after Close.
type State int

const (
	StateIdle State = iota
	StateSubmitting
)

// FormatFunc projects a raw read response into grid rows.
type FormatFunc func(data json.RawMessage) ([]Row, error)

// Gateway wraps the remote query/mutation executor. Reads swallow failures
// behind a generic notification; writes surface the first backend error
// message and also return it so screen code can keep unsaved state
// visible.
type Gateway struct {
	exec     graphql.Executor
	notifier Notifier
	log      *logrus.Logger

	mu     sync.Mutex
	state  State
	closed bool
}

func NewGateway(exec graphql.Executor, notifier Notifier, log *logrus.Logger) *Gateway {
	return &Gateway{exec: exec, notifier: notifier, log: log}
}

func (g *Gateway) Loading() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == StateSubmitting
}

// Close marks the consumer as gone. The current call finishes but no
// further notifications or state updates are delivered.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}

func (g *Gateway) alive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed
}

func (g *Gateway) begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	if g.state == StateSubmitting {
		return ErrSubmissionInFlight
	}
	g.state = StateSubmitting
	return nil
}

func (g *Gateway) end() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateIdle
}

// Fetch runs the read query and projects the response. A fetch rejected
// by the submission gate never started, so the rejection is returned and
// surfaced as a warning; the caller must leave its collection untouched.
// Failures of a fetch that did run never escape this boundary: the result
// is nil and the user sees one generic notification.
func (g *Gateway) Fetch(ctx context.Context, query string, variables map[string]any, format FormatFunc) ([]Row, error) {
	if err := g.begin(); err != nil {
		g.log.Warnf("gridsync: fetch rejected: %v", err)
		if g.alive() {
			g.notifier.ShowWarning("Another operation is in progress")
		}
		return nil, err
	}
	defer g.end()

	resp, err := g.exec.Execute(ctx, query, variables)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		g.log.Errorf("gridsync: fetch failed: %v", err)
		if g.alive() {
			g.notifier.ShowError("Failed to load data")
		}
		return nil, nil
	}

	rows, err := format(resp.Data)
	if err != nil {
		g.log.Errorf("gridsync: fetch response rejected: %v", err)
		if g.alive() {
			g.notifier.ShowError("Failed to load data")
		}
		return nil, nil
	}
	return rows, nil
}

// Save issues one mutation carrying both arrays. Unlike reads, failures
// are rethrown after notifying, so the caller can keep the change set
// intact for retry.
func (g *Gateway) Save(ctx context.Context, mutation string, payload SavePayload) error {
	if err := g.begin(); err != nil {
		return err
	}
	defer g.end()

	variables := map[string]any{
		"created": emptyIfNil(payload.Created),
		"updated": emptyIfNil(payload.Updated),
	}
	resp, err := g.exec.Execute(ctx, mutation, variables)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		g.log.Errorf("gridsync: save failed: %v", err)
		if g.alive() {
			g.notifier.ShowError(err.Error())
		}
		return fmt.Errorf("save: %w", err)
	}

	if g.alive() {
		g.notifier.ShowSuccess("Saved successfully")
	}
	return nil
}

// Delete asks for confirmation, then issues one delete mutation for the
// given persisted-row payloads. Returns false when the user declined.
// Staged-row removal is local and must not come through here.
func (g *Gateway) Delete(ctx context.Context, mutation string, payloads []WirePayload) (bool, error) {
	if !g.alive() {
		return false, ErrClosed
	}
	prompt := fmt.Sprintf("Delete %d record(s)? This cannot be undone.", len(payloads))
	if !g.notifier.Confirm("Confirm deletion", prompt) {
		return false, nil
	}

	if err := g.begin(); err != nil {
		return false, err
	}
	defer g.end()

	resp, err := g.exec.Execute(ctx, mutation, map[string]any{"deleted": payloads})
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		g.log.Errorf("gridsync: delete failed: %v", err)
		if g.alive() {
			g.notifier.ShowError(err.Error())
		}
		return false, fmt.Errorf("delete: %w", err)
	}

	if g.alive() {
		g.notifier.ShowSuccess("Deleted successfully")
	}
	return true, nil
}

func emptyIfNil(payloads []WirePayload) []WirePayload {
	if payloads == nil {
		return []WirePayload{}
	}
	return payloads
}
