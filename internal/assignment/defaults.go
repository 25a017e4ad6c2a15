package assignment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RawDefaults is the untrusted shape of the shared default values applied to
// every generated assignment. Numeric fields arrive as raw JSON so that
// sloppy client payloads (string-wrapped numbers, null, "NaN") degrade to an
// omitted field instead of failing the whole request body.
type RawDefaults struct {
	SequenceStart   json.RawMessage `json:"sequenceStart"`
	AutoIncrement   *bool           `json:"autoIncrement"`
	FactoryPrice    json.RawMessage `json:"factoryPrice"`
	CalculatedPrice json.RawMessage `json:"calculatedPrice"`
	QuantityLimit1  json.RawMessage `json:"quantityLimit1"`
	QuantityLimit2  json.RawMessage `json:"quantityLimit2"`
	IsFinalStep     *bool           `json:"isFinalStep"`
	IsVtStep        *bool           `json:"isVtStep"`
	IsParkingStep   *bool           `json:"isParkingStep"`
}

// Defaults is the cleaned configuration the executor stamps onto each row.
// Nil optionals are omitted at insert time, never written as zero.
type Defaults struct {
	SequenceStart   int
	AutoIncrement   bool
	FactoryPrice    *decimal.Decimal
	CalculatedPrice *decimal.Decimal
	QuantityLimit1  *int
	QuantityLimit2  *int
	IsFinalStep     bool
	IsVtStep        bool
	IsParkingStep   bool
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// NormalizeDefaults validates and cleans the raw config. Missing optional
// fields never fail; only structurally invalid values (non-integer or
// negative sequenceStart, negative quantity limits) come back as
// field-scoped errors inside a *ValidationError.
func NormalizeDefaults(raw RawDefaults) (Defaults, error) {
	out := Defaults{
		SequenceStart: 1,
		AutoIncrement: true,
	}
	var fields []FieldError

	if present(raw.SequenceStart) {
		n, ok := rawToInt(raw.SequenceStart)
		switch {
		case !ok:
			fields = append(fields, FieldError{Field: "sequenceStart", Message: "must be an integer"})
		case n < 1:
			fields = append(fields, FieldError{Field: "sequenceStart", Message: "must be at least 1"})
		default:
			out.SequenceStart = n
		}
	}

	if raw.AutoIncrement != nil {
		out.AutoIncrement = *raw.AutoIncrement
	}

	out.FactoryPrice = rawToPrice(raw.FactoryPrice)
	out.CalculatedPrice = rawToPrice(raw.CalculatedPrice)

	out.QuantityLimit1 = rawToLimit(raw.QuantityLimit1, "quantityLimit1", &fields)
	out.QuantityLimit2 = rawToLimit(raw.QuantityLimit2, "quantityLimit2", &fields)

	if raw.IsFinalStep != nil {
		out.IsFinalStep = *raw.IsFinalStep
	}
	if raw.IsVtStep != nil {
		out.IsVtStep = *raw.IsVtStep
	}
	if raw.IsParkingStep != nil {
		out.IsParkingStep = *raw.IsParkingStep
	}

	if len(fields) > 0 {
		return Defaults{}, &ValidationError{Fields: fields}
	}
	return out, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// rawScalar unwraps a JSON string or returns the raw token text unchanged.
func rawScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func rawToInt(raw json.RawMessage) (int, bool) {
	s := strings.TrimSpace(rawScalar(raw))
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// rawToPrice parses a decimal price. Blank, whitespace-only and unparsable
// values are omitted, never coerced to zero.
func rawToPrice(raw json.RawMessage) *decimal.Decimal {
	if !present(raw) {
		return nil
	}
	s := strings.TrimSpace(rawScalar(raw))
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// rawToLimit parses a quantity limit. Unparsable values (including NaN) are
// omitted; a parsed negative value is a field error.
func rawToLimit(raw json.RawMessage, field string, fields *[]FieldError) *int {
	if !present(raw) {
		return nil
	}
	n, ok := rawToInt(raw)
	if !ok {
		return nil
	}
	if n < 0 {
		*fields = append(*fields, FieldError{Field: field, Message: "must not be negative"})
		return nil
	}
	return &n
}
