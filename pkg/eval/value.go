package eval

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// Value is the result of an evaluation. It is nil if the statement produced
// no value, a Record for pseudo-namespaces, a Tuple for expressions with
// multiple values, and a single decoded value otherwise.
type Value = any

// Record is a keyed record whose keys keep their order.
type Record struct {
	Keys   []string
	Values []any
}

// Len returns the number of keys.
func (r Record) Len() int { return len(r.Keys) }

// Index returns the value of a key.
func (r Record) Index(key string) (any, bool) {
	for i, k := range r.Keys {
		if k == key {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON implements json.Marshaler. Keys are written in order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(JSONValue(r.Values[i]))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Tuple is the result of an expression with multiple values.
type Tuple []any

// MarshalJSON implements json.Marshaler.
func (t Tuple) MarshalJSON() ([]byte, error) {
	values := make([]any, len(t))
	for i, v := range t {
		values[i] = JSONValue(v)
	}
	return json.Marshal(values)
}

type hexer interface{ Hex() string }

// JSONValue converts a value to one that encoding/json encodes in a useful
// way: big integers become decimal strings, and byte sequences and addresses
// become 0x-prefixed hex strings. Other values are returned unchanged.
func JSONValue(v Value) any {
	switch v := v.(type) {
	case *big.Int:
		return v.String()
	case []byte:
		return "0x" + hex.EncodeToString(v)
	case hexer:
		return v.Hex()
	}
	if b, ok := byteArray(v); ok {
		return "0x" + hex.EncodeToString(b)
	}
	return v
}

// Returns the content of a fixed-size byte array, like the [4]byte that
// bytes4 values are decoded to.
func byteArray(v any) ([]byte, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Array || rv.Type().Elem().Kind() != reflect.Uint8 {
		return nil, false
	}
	b := make([]byte, rv.Len())
	reflect.Copy(reflect.ValueOf(b), rv)
	return b, true
}

// Repr returns the representation of a Value for display. It returns an empty
// string for nil.
func Repr(v Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case Record:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprint(v.Values...)
		}
		return string(data)
	case Tuple:
		parts := make([]string, len(v))
		for i, elem := range v {
			parts[i] = Repr(elem)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *big.Int:
		return v.String()
	case string:
		return strconv.Quote(v)
	case []byte:
		return "0x" + hex.EncodeToString(v)
	case hexer:
		return v.Hex()
	}
	if b, ok := byteArray(v); ok {
		return "0x" + hex.EncodeToString(b)
	}
	return fmt.Sprint(v)
}
