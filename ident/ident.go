// Package ident generates the ids that correlate one retry chain across
// logs, metrics, traces and published events. ULIDs are the default because
// they sort by creation time; a UUID generator and fully custom generators
// are available for callers with other conventions.
package ident

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var _ulidGenerator = func() string {
	var (
		entropy = rand.New(rand.NewSource(time.Now().UnixNano()))
		ms      = ulid.Timestamp(time.Now())
		id, _   = ulid.New(ms, entropy)
	)
	return id.String()
}

var _uuidGenerator = func() string {
	return uuid.New().String()
}

var _generator = _ulidGenerator

// New returns a fresh chain id from the active generator.
func New() string {
	return _generator()
}

// UseULID makes New return ULIDs. This is the default.
func UseULID() {
	_generator = _ulidGenerator
}

// UseUUID makes New return UUIDv4s.
func UseUUID() {
	_generator = _uuidGenerator
}

// Use installs a custom generator, typically a deterministic one in tests.
func Use(fn func() string) {
	_generator = fn
}
