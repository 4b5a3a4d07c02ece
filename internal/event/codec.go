package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"budgie/internal/core"
)

// ErrUnknownType is returned when a record carries a type tag this package
// does not know.
var ErrUnknownType = errors.New("unknown event type")

// Record is the persisted shape of an event: one flat JSON object with
// "type" and "version" alongside the type-specific fields.
type Record map[string]json.RawMessage

// Key identifies a (type, version) pair.
type Key struct {
	Type    Type
	Version int
}

func (k Key) String() string {
	return fmt.Sprintf("%s__%d", k.Type, k.Version)
}

// ParseRecord reads a single JSON object.
func ParseRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse event record: %w", err)
	}
	if rec == nil {
		return nil, errors.New("parse event record: null record")
	}
	return rec, nil
}

// Key returns the record's type and version. A missing version is treated as 1.
func (r Record) Key() (Key, error) {
	var k Key
	raw, ok := r["type"]
	if !ok {
		return k, errors.New("event record has no type")
	}
	var t string
	if err := json.Unmarshal(raw, &t); err != nil {
		return k, fmt.Errorf("event record type: %w", err)
	}
	k.Type = Type(t)
	k.Version = 1
	if raw, ok := r["version"]; ok {
		if err := json.Unmarshal(raw, &k.Version); err != nil {
			return k, fmt.Errorf("event record version: %w", err)
		}
	}
	return k, nil
}

// Get decodes a single field into v. Missing fields leave v untouched.
func (r Record) Get(field string, v any) error {
	raw, ok := r[field]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	return nil
}

// Set encodes v into a field.
func (r Record) Set(field string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	r[field] = b
	return nil
}

// Has reports whether a field is present.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Encode serializes an event to its persisted record form.
func Encode(e Event) ([]byte, error) {
	if e == nil {
		return nil, errors.New("encode event: nil event")
	}
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Type(), err)
	}
	rec, err := ParseRecord(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Type(), err)
	}
	if err := rec.Set("type", e.Type()); err != nil {
		return nil, err
	}
	if err := rec.Set("version", e.Version()); err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// Decode converts a record at its current version into an Event.
// Records must already be upgraded; see Migrations.Upgrade.
func Decode(rec Record) (Event, error) {
	key, err := rec.Key()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	var (
		evt     Event
		current int
	)
	switch key.Type {
	case TypeCreateAccount:
		var e CreateAccount
		err, current = json.Unmarshal(body, &e), VersionCreateAccount
		evt = e
	case TypeTransact:
		var e Transact
		err, current = json.Unmarshal(body, &e), VersionTransact
		evt = e
	case TypeTransfer:
		var e Transfer
		err, current = json.Unmarshal(body, &e), VersionTransfer
		evt = e
	case TypeCreateTarget:
		var e CreateTarget
		err, current = json.Unmarshal(body, &e), VersionCreateTarget
		evt = e
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, key.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if key.Version != current {
		return nil, fmt.Errorf("decode %s: no migration to version %d", key, current)
	}
	return evt, nil
}

// Unmarshal parses, upgrades and decodes one persisted record.
func Unmarshal(data []byte, migrations *Migrations) (Event, error) {
	rec, err := ParseRecord(data)
	if err != nil {
		return nil, err
	}
	if migrations != nil {
		if rec, err = migrations.Upgrade(rec); err != nil {
			return nil, err
		}
	}
	e, err := Decode(rec)
	if err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrInvalidEvent, e.Type(), err)
	}
	return e, nil
}
