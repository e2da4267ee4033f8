package gridsync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mesflow/gridsync/pkg/graphql"
	"github.com/mesflow/gridsync/pkg/logging"
)

type execCall struct {
	query     string
	variables map[string]any
}

// fakeExecutor records calls and answers them through a pluggable handler.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   []execCall
	handler func(query string, variables map[string]any) (*graphql.Response, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, query string, variables map[string]any) (*graphql.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, execCall{query: query, variables: variables})
	handler := f.handler
	f.mu.Unlock()
	if handler == nil {
		return &graphql.Response{Data: json.RawMessage(`{}`)}, nil
	}
	return handler(query, variables)
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExecutor) callsFor(query string) []execCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []execCall
	for _, c := range f.calls {
		if c.query == query {
			out = append(out, c)
		}
	}
	return out
}

// recordingNotifier captures user-facing outcomes.
type recordingNotifier struct {
	successes []string
	warnings  []string
	errors    []string
	confirms  []string
	answer    bool
}

func (n *recordingNotifier) ShowSuccess(text string)  { n.successes = append(n.successes, text) }
func (n *recordingNotifier) ShowWarning(text string)  { n.warnings = append(n.warnings, text) }
func (n *recordingNotifier) ShowError(message string) { n.errors = append(n.errors, message) }
func (n *recordingNotifier) Confirm(title, text string) bool {
	n.confirms = append(n.confirms, fmt.Sprintf("%s: %s", title, text))
	return n.answer
}

func testLogger() *logrus.Logger {
	return logging.ConsoleLogger(logrus.PanicLevel)
}

const (
	testReadQuery      = "query Materials($plant: String) { materials(plant: $plant) { matnr qty note } }"
	testSaveMutation   = "mutation SaveMaterials($created: [MaterialInput!]!, $updated: [MaterialUpdateInput!]!) { saveMaterials(created: $created, updated: $updated) }"
	testDeleteMutation = "mutation DeleteMaterials($deleted: [MaterialKeyInput!]!) { deleteMaterials(deleted: $deleted) }"
)

func testEntityConfig() EntityConfig {
	return EntityConfig{
		Name: "materials",
		Columns: []Column{
			{Field: "matnr", Title: "Material", Required: true},
			{Field: "qty", Title: "Quantity", Type: ColumnNumber, Required: true},
			{Field: "note", Title: "Note"},
		},
		KeyField:       "matnr",
		ReadQuery:      testReadQuery,
		SaveMutation:   testSaveMutation,
		DeleteMutation: testDeleteMutation,
		DefaultFilter:  map[string]any{"plant": "1000"},
	}
}

func materialsResponse(records string) *graphql.Response {
	return &graphql.Response{Data: json.RawMessage(`{"materials":` + records + `}`)}
}
