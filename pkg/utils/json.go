package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"reflect"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompileSchemas compiles one or more JSON Schema documents. The first
// schema is the root; the schema at index i can be referenced from it as
// "schema<i>.json".
func CompileSchemas(schemas ...json.RawMessage) (*jsonschema.Schema, error) {
	if len(schemas) == 0 {
		return nil, fmt.Errorf("no schema provided")
	}

	compiler := jsonschema.NewCompiler()
	for i, schema := range schemas {
		name := fmt.Sprintf("schema%d.json", i)
		if err := compiler.AddResource(name, bytes.NewReader(schema)); err != nil {
			return nil, fmt.Errorf("failed to load schema %d: %w", i, err)
		}
	}

	compiled, err := compiler.Compile("schema0.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

// ValidateAgainstSchema validates data against a JSON schema
func ValidateAgainstSchema(data json.RawMessage, schemas ...json.RawMessage) error {
	compiled, err := CompileSchemas(schemas...)
	if err != nil {
		return err
	}
	return ValidateCompiled(compiled, data)
}

// ValidateCompiled validates data against a schema compiled with CompileSchemas.
// Numbers keep their literal form, so integers beyond 2^53 are checked exactly.
func ValidateCompiled(schema *jsonschema.Schema, data json.RawMessage) error {
	doc, err := decodeJSON(data)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return err
	}
	return nil
}

// EqualJSON reports whether two documents are structurally equal, ignoring
// whitespace and object key order. Numbers compare by exact value, so 1.0
// equals 1 while 9007199254740993 does not equal 9007199254740992.
func EqualJSON(a, b json.RawMessage) (bool, error) {
	va, err := decodeJSON(a)
	if err != nil {
		return false, fmt.Errorf("invalid JSON: %w", err)
	}
	vb, err := decodeJSON(b)
	if err != nil {
		return false, fmt.Errorf("invalid JSON: %w", err)
	}
	return reflect.DeepEqual(normalizeNumbers(va), normalizeNumbers(vb)), nil
}

// CanonicalJSON re-encodes a document with sorted keys and two-space
// indentation so that line diffs between documents are stable. Input that is
// not valid JSON is returned as-is.
func CanonicalJSON(data json.RawMessage) string {
	v, err := decodeJSON(data)
	if err != nil {
		return string(data)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(data)
	}
	return string(out)
}

// decodeJSON decodes a single document, keeping numbers as json.Number
func decodeJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return v, nil
}

// exactNumber is the normalized form of a json.Number
type exactNumber string

func normalizeNumbers(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		r, ok := new(big.Rat).SetString(string(val))
		if !ok {
			return exactNumber(val)
		}
		return exactNumber(r.RatString())
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, e := range val {
			out[k] = normalizeNumbers(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = normalizeNumbers(e)
		}
		return out
	default:
		return v
	}
}

// CompactJSON strips insignificant whitespace from a document
func CompactJSON(data json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return strings.TrimSpace(string(data))
	}
	return buf.String()
}
