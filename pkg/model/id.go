package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ID is a string-coercible record identifier.
//
// The search API emits identifiers as JSON strings, while raw dataset exports
// use numbers. Both decode to the same textual form so that edge endpoints
// always compare equal to node keys.
type ID string

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is missing.
func (id ID) IsZero() bool { return id == "" }

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*id = ID(strconv.FormatBool(b))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: unsupported JSON value %s", data)
	}
	*id = numberID(n)
	return nil
}

// numberID spells a number the way the web client does, so 1, 1.0 and 1e0
// are the same identifier. Magnitudes from 1e21 keep their JSON spelling.
func numberID(n json.Number) ID {
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.Abs(f) >= 1e21 {
		return ID(n.String())
	}
	if f == 0 {
		f = 0 // -0
	}
	return ID(strconv.FormatFloat(f, 'f', -1, 64))
}

// MarshalJSON always emits the identifier as a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}
