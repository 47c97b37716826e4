package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a JSON-RPC request identifier. The protocol allows both integer and
// string identifiers; equality is structural, so an ID is usable directly as
// a map key. The zero value is not a valid identifier.
type ID struct {
	num      int64
	str      string
	isString bool
	valid    bool
}

// NewIntID returns an integer request identifier.
func NewIntID(n int64) ID {
	return ID{num: n, valid: true}
}

// NewStringID returns a string request identifier.
func NewStringID(s string) ID {
	return ID{str: s, isString: true, valid: true}
}

// IsValid reports whether the ID was produced by one of the constructors or
// decoded from the wire, as opposed to being the zero value.
func (id ID) IsValid() bool {
	return id.valid
}

// IsString reports whether the identifier is the string variant.
func (id ID) IsString() bool {
	return id.isString
}

// Int returns the integer value. It is only meaningful when IsString is false.
func (id ID) Int() int64 {
	return id.num
}

// String renders the identifier for logs and error messages.
func (id ID) String() string {
	switch {
	case !id.valid:
		return "<invalid>"
	case id.isString:
		return strconv.Quote(id.str)
	default:
		return strconv.FormatInt(id.num, 10)
	}
}

// MarshalJSON encodes the identifier as a JSON number or string.
func (id ID) MarshalJSON() ([]byte, error) {
	if !id.valid {
		return nil, fmt.Errorf("protocol: cannot marshal invalid request id")
	}
	if id.isString {
		return json.Marshal(id.str)
	}
	return json.Marshal(id.num)
}

// UnmarshalJSON decodes a JSON number or string identifier. Fractional
// numbers are rejected; the protocol only permits integers. Numbers are
// decoded as json.Number so the full int64 range survives.
func (id *ID) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*id = NewStringID(v)
		return nil
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("protocol: request id %s is not an integer", v)
		}
		*id = NewIntID(n)
		return nil
	default:
		return fmt.Errorf("protocol: request id must be a number or string, got %T", raw)
	}
}
