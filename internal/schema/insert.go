package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/roomview/internal/apperror"
)

// Violation codes reported per field.
const (
	CodeRequired          = "required"
	CodeNotAllowed        = "not_allowed"
	CodeUnknownField      = "unknown_field"
	CodeExpectedString    = "expected_string"
	CodeExpectedNumber    = "expected_number"
	CodeExpectedTimestamp = "expected_timestamp"
)

// ErrNotObject is returned by Validate when the payload is not a JSON object.
// It is kept apart from Violations because "" is a legal JSON key.
var ErrNotObject = errors.New("schema: payload must be a JSON object")

// Violations maps a payload key to the reason it failed validation.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Field is one caller-supplied field admitted by an InsertSchema.
//
// NonBlank marks required text fields: "" and whitespace-only strings are
// rejected as missing, not accepted as a value.
type Field struct {
	Key      string `json:"key"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
	NonBlank bool   `json:"nonBlank"`
}

// InsertSchema is the caller-facing shape for inserting a row into a table.
// It admits a subset of the table's columns; every other column, in
// particular the system-assigned id and timestamps, is rejected.
type InsertSchema struct {
	table    *Table
	admitted map[string]bool
}

// CreateInsertSchema derives an insert schema admitting every column of t.
// Narrow it with Pick or Omit.
//
// A field is required when its column is NOT NULL and has no default.
func CreateInsertSchema(t *Table) *InsertSchema {
	admitted := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		admitted[c.Key] = true
	}
	return &InsertSchema{table: t, admitted: admitted}
}

// Pick returns a schema admitting only the given keys. It panics if a key is
// not a column of the table.
func (s *InsertSchema) Pick(keys ...string) *InsertSchema {
	admitted := make(map[string]bool, len(keys))
	for _, k := range keys {
		s.mustHave(k)
		admitted[k] = true
	}
	return &InsertSchema{table: s.table, admitted: admitted}
}

// Omit returns a schema admitting everything s admits except the given keys.
// It panics if a key is not a column of the table.
func (s *InsertSchema) Omit(keys ...string) *InsertSchema {
	admitted := make(map[string]bool, len(s.admitted))
	for k := range s.admitted {
		admitted[k] = true
	}
	for _, k := range keys {
		s.mustHave(k)
		delete(admitted, k)
	}
	return &InsertSchema{table: s.table, admitted: admitted}
}

func (s *InsertSchema) mustHave(key string) {
	if _, ok := s.table.Column(key); !ok {
		panic(fmt.Sprintf("schema: table %s has no column %q", s.table.Name, key))
	}
}

// Table returns the table the schema was derived from.
func (s *InsertSchema) Table() *Table { return s.table }

// Fields lists the admitted fields in column order.
func (s *InsertSchema) Fields() []Field {
	fields := make([]Field, 0, len(s.admitted))
	for _, c := range s.table.Columns {
		if !s.admitted[c.Key] {
			continue
		}
		fields = append(fields, Field{
			Key:      c.Key,
			Kind:     c.Kind.String(),
			Required: isRequired(c),
			NonBlank: isRequired(c) && isText(c),
		})
	}
	return fields
}

func isRequired(c Column) bool {
	return c.notNull && !c.HasDefault()
}

// Validate checks a JSON payload against the schema and returns every
// field violation found. It returns ErrNotObject, and no violations, when
// the payload is not a JSON object at all.
func (s *InsertSchema) Validate(payload []byte) (Violations, error) {
	var obj map[string]json.RawMessage
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, ErrNotObject
	}

	v := Violations{}

	for key, raw := range obj {
		col, ok := s.table.Column(key)
		if !ok {
			v[key] = CodeUnknownField
			continue
		}
		if !s.admitted[key] {
			v[key] = CodeNotAllowed
			continue
		}
		if code := checkKind(col, raw); code != "" {
			v[key] = code
		}
	}

	for _, c := range s.table.Columns {
		if !s.admitted[c.Key] || !isRequired(c) {
			continue
		}
		if _, failed := v[c.Key]; failed {
			continue
		}
		raw, present := obj[c.Key]
		if !present || isNull(raw) || isBlankString(c, raw) {
			v[c.Key] = CodeRequired
		}
	}

	return v, nil
}

// Decode validates payload and, if it passes, unmarshals it into dst.
// A failing payload yields an *apperror.AppError wrapping
// apperror.ErrValidation with one entry per failing field.
func (s *InsertSchema) Decode(payload []byte, dst any) error {
	if err := s.check(payload); err != nil {
		return err
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return apperror.ValidationFailed("", fmt.Sprintf("decoding %s payload: %v", s.table.Name, err))
	}
	return nil
}

// Check validates an already-typed value by its JSON form. It is the entry
// point for callers that never saw a raw payload.
func (s *InsertSchema) Check(value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("schema: encoding %s value: %w", s.table.Name, err)
	}
	return s.check(payload)
}

// check turns the result of Validate into an apperror validation error.
func (s *InsertSchema) check(payload []byte) error {
	v, err := s.Validate(payload)
	if err != nil {
		return apperror.ValidationFailed("", "payload must be a JSON object")
	}
	if !v.Empty() {
		return apperror.InvalidFields(v)
	}
	return nil
}

// checkKind reports a type mismatch between a JSON value and a column.
// null passes here; nullability is handled by the required check.
func checkKind(c Column, raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	switch c.Kind {
	case KindVarchar, KindText:
		if jsonType(raw) != '"' {
			return CodeExpectedString
		}
	case KindReal:
		if jsonType(raw) != '0' {
			return CodeExpectedNumber
		}
	case KindTimestamp:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return CodeExpectedTimestamp
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return CodeExpectedTimestamp
		}
	case KindJSONB:
		// any JSON value
	}
	return ""
}

// jsonType classifies a raw JSON value by its first byte:
// '"' string, '0' number, '{' object, '[' array, 't' bool, 'n' null.
func jsonType(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	switch c := raw[0]; {
	case c == '-' || (c >= '0' && c <= '9'):
		return '0'
	case c == 'f':
		return 't'
	default:
		return c
	}
}

func isNull(raw json.RawMessage) bool {
	return jsonType(raw) == 'n'
}

func isText(c Column) bool {
	return c.Kind == KindVarchar || c.Kind == KindText
}

func isBlankString(c Column, raw json.RawMessage) bool {
	if !isText(c) {
		return false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return strings.TrimSpace(s) == ""
}
