// Package mockmes is an in-memory stand-in for the production-management
// backend. It speaks the same query/mutation envelope the grid controller
// expects and exists for demos and integration tests; it is not a real
// GraphQL server and dispatches on operation field names, not a parsed
// schema.
package mockmes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type entity struct {
	readField   string
	saveField   string
	deleteField string
	keyField    string
	// keyPrefix is used to mint keys for created records. Empty means the
	// key is natural and must arrive with the creation payload.
	keyPrefix string
}

type store struct {
	entity
	seq     int
	records []map[string]any
}

func (s *store) nextKey() string {
	s.seq++
	return fmt.Sprintf("%s-%04d", s.keyPrefix, s.seq)
}

func (s *store) indexOf(key string) int {
	for i, record := range s.records {
		if asString(record[s.keyField]) == key {
			return i
		}
	}
	return -1
}

// Server holds one store per production entity behind a POST /query
// endpoint.
type Server struct {
	log    *logrus.Logger
	router *mux.Router

	mu     sync.Mutex
	stores []*store
}

func New(log *logrus.Logger) *Server {
	s := &Server{
		log: log,
		stores: []*store{
			{entity: entity{readField: "materials", saveField: "saveMaterials", deleteField: "deleteMaterials", keyField: "matnr"}},
			{entity: entity{readField: "bomItems", saveField: "saveBomItems", deleteField: "deleteBomItems", keyField: "bomId", keyPrefix: "BOM"}},
			{entity: entity{readField: "workOrders", saveField: "saveWorkOrders", deleteField: "deleteWorkOrders", keyField: "orderNo", keyPrefix: "WO"}},
			{entity: entity{readField: "defects", saveField: "saveDefects", deleteField: "deleteDefects", keyField: "defectId", keyPrefix: "DEF"}},
		},
	}
	s.router = mux.NewRouter()
	s.router.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Seed loads records into one entity store, minting keys where absent.
func (s *Server) Seed(readField string, records []map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.storeFor(readField)
	if st == nil {
		return fmt.Errorf("mockmes: unknown entity %q", readField)
	}
	for _, record := range records {
		if asString(record[st.keyField]) == "" && st.keyPrefix != "" {
			record[st.keyField] = st.nextKey()
		}
		st.records = append(st.records, record)
	}
	return nil
}

func (s *Server) storeFor(readField string) *store {
	for _, st := range s.stores {
		if st.readField == readField {
			return st
		}
	}
	return nil
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.stores {
		switch {
		case strings.Contains(req.Query, st.readField+"("):
			s.handleRead(w, st, req.Variables)
			return
		case strings.Contains(req.Query, st.saveField+"("):
			s.handleSave(w, st, req.Variables)
			return
		case strings.Contains(req.Query, st.deleteField+"("):
			s.handleDelete(w, st, req.Variables)
			return
		}
	}
	writeErrors(w, "unknown operation")
}

func (s *Server) handleRead(w http.ResponseWriter, st *store, variables map[string]any) {
	out := make([]map[string]any, 0, len(st.records))
	for _, record := range st.records {
		if matches(record, variables) {
			out = append(out, record)
		}
	}
	writeData(w, map[string]any{st.readField: out})
}

func (s *Server) handleSave(w http.ResponseWriter, st *store, variables map[string]any) {
	created := asRecords(variables["created"])
	updated := asRecords(variables["updated"])

	for _, record := range created {
		key := asString(record[st.keyField])
		if key == "" {
			if st.keyPrefix == "" {
				writeErrors(w, fmt.Sprintf("%s is required", st.keyField))
				return
			}
			key = st.nextKey()
			record[st.keyField] = key
		}
		if st.indexOf(key) >= 0 {
			writeErrors(w, fmt.Sprintf("duplicate key %s", key))
			return
		}
	}
	for _, record := range updated {
		key := asString(record[st.keyField])
		if st.indexOf(key) < 0 {
			writeErrors(w, fmt.Sprintf("%s %s not found", st.keyField, key))
			return
		}
	}

	// Validated; apply the whole batch so a rejected save changes nothing.
	st.records = append(st.records, created...)
	for _, record := range updated {
		idx := st.indexOf(asString(record[st.keyField]))
		for k, v := range record {
			st.records[idx][k] = v
		}
	}

	s.log.Infof("mockmes: %s created=%d updated=%d", st.saveField, len(created), len(updated))
	writeData(w, map[string]any{st.saveField: true})
}

func (s *Server) handleDelete(w http.ResponseWriter, st *store, variables map[string]any) {
	payloads := asRecords(variables["deleted"])
	indexes := make([]int, 0, len(payloads))
	for _, payload := range payloads {
		key := asString(payload[st.keyField])
		idx := st.indexOf(key)
		if idx < 0 {
			writeErrors(w, fmt.Sprintf("%s %s not found", st.keyField, key))
			return
		}
		indexes = append(indexes, idx)
	}

	kept := st.records[:0:0]
	doomed := make(map[int]struct{}, len(indexes))
	for _, idx := range indexes {
		doomed[idx] = struct{}{}
	}
	for i, record := range st.records {
		if _, ok := doomed[i]; !ok {
			kept = append(kept, record)
		}
	}
	st.records = kept

	s.log.Infof("mockmes: %s deleted=%d", st.deleteField, len(payloads))
	writeData(w, map[string]any{st.deleteField: true})
}

// matches applies equality filtering for every non-empty variable that
// names a record field.
func matches(record map[string]any, variables map[string]any) bool {
	for k, v := range variables {
		want := asString(v)
		if want == "" {
			continue
		}
		if _, ok := record[k]; !ok {
			continue
		}
		if asString(record[k]) != want {
			return false
		}
	}
	return true
}

func asRecords(v any) []map[string]any {
	switch x := v.(type) {
	case []map[string]any:
		return x
	case []any:
		out := make([]map[string]any, 0, len(x))
		for _, item := range x {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		// JSON numbers decode as float64; render integral values without
		// the trailing ".0" so keys compare cleanly.
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%v", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func writeData(w http.ResponseWriter, data map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeErrors(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":   nil,
		"errors": []map[string]any{{"message": message}},
	})
}
