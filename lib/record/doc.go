// Package record defines the trace data model and its wire codec.
//
// A Record is one complete trace result: an ordered list of Entry
// values, each measuring the memory dominated by one named top-level
// attribute of one module. The wire format is a single JSON document
// with one field, "entries", holding the entry objects in scan order.
//
// The codec is a pair of explicit functions, EncodeJSON and
// DecodeJSON, with per-field schema validation on decode. Two error
// types separate the failure modes: *ParseError when the bytes are
// not JSON at all, *SchemaError when the document is valid JSON with
// the wrong shape. DecodeJSON(EncodeJSON(r)) reconstructs a record
// structurally equal to r.
package record
