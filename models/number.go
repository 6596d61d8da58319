package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a lenient JSON number. Browsers post quantities and prices both as
// numbers and as form strings, so "2" and 2 decode the same way. A value that
// is present but not numeric decodes with Set true and Valid false rather than
// failing the whole request body.
type Number struct {
	Value float64
	Set   bool
	Valid bool
}

// NumberOf returns a set, valid Number.
func NumberOf(v float64) Number {
	return Number{Value: v, Set: true, Valid: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	n.Set = true

	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		n.Value, n.Valid = v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			n.Set = false
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			n.Value, n.Valid = f, true
		}
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set || !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Positive reports whether the number is usable as a price or quantity.
func (n Number) Positive() bool {
	return n.Set && n.Valid && n.Value > 0
}
