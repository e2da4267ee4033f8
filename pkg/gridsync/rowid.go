// Package gridsync keeps an editable grid collection in sync with a
// remote query/mutation backend: staged changes, validation, wire
// transforms and the save/delete round trips.
package gridsync

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Reserved grid id prefixes. A row's lifecycle variant is determined solely
// by the shape of its id: NEW_ marks a row staged in this session and not
// yet persisted, TEMP_ marks a fetched record that arrived without a
// natural key. Everything else is a server-assigned business key.
const (
	NewIDPrefix  = "NEW_"
	TempIDPrefix = "TEMP_"
)

// RowKind is the explicit tag behind the prefix convention.
type RowKind int

const (
	KindPersisted RowKind = iota
	KindNew
	KindTemp
)

// RowID is a tagged row identifier. The string form keeps the reserved
// prefixes so ids survive a round trip through grid components that only
// understand strings.
type RowID struct {
	kind  RowKind
	value string
}

// NewRowID mints an id for a row created in this session.
func NewRowID() RowID {
	return RowID{kind: KindNew, value: generateID()}
}

// TempRowID mints a fallback id for a fetched record lacking a natural key.
func TempRowID() RowID {
	return RowID{kind: KindTemp, value: generateID()}
}

// PersistedRowID wraps a server-assigned business key.
func PersistedRowID(key string) RowID {
	return RowID{kind: KindPersisted, value: key}
}

// ParseRowID recovers the tagged form from a string id by prefix shape.
func ParseRowID(s string) RowID {
	switch {
	case strings.HasPrefix(s, NewIDPrefix):
		return RowID{kind: KindNew, value: strings.TrimPrefix(s, NewIDPrefix)}
	case strings.HasPrefix(s, TempIDPrefix):
		return RowID{kind: KindTemp, value: strings.TrimPrefix(s, TempIDPrefix)}
	default:
		return RowID{kind: KindPersisted, value: s}
	}
}

func (id RowID) Kind() RowKind { return id.kind }

// IsStagedNew reports whether the row was created in this session and has
// not been sent to the backend.
func (id RowID) IsStagedNew() bool { return id.kind == KindNew }

func (id RowID) IsPersisted() bool { return id.kind == KindPersisted }

// Key returns the server-assigned business key for persisted ids and the
// raw generated value otherwise.
func (id RowID) Key() string { return id.value }

func (id RowID) String() string {
	switch id.kind {
	case KindNew:
		return NewIDPrefix + id.value
	case KindTemp:
		return TempIDPrefix + id.value
	default:
		return id.value
	}
}

func (id RowID) IsZero() bool { return id.kind == KindPersisted && id.value == "" }

const randomSuffixLen = 9

// generateID produces a millisecond timestamp plus a random base-36 suffix.
// The suffix is long enough that collisions within one editing session are
// negligible.
func generateID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "_" + randomBase36(randomSuffixLen)
}

var base36Max = new(big.Int).Exp(big.NewInt(36), big.NewInt(randomSuffixLen), nil)

func randomBase36(n int) string {
	v, err := rand.Int(rand.Reader, base36Max)
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken;
		// fall back to the clock rather than crash an edit session.
		v = big.NewInt(time.Now().UnixNano())
	}
	s := v.Text(36)
	for len(s) < n {
		s = "0" + s
	}
	return s
}
