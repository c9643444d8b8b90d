package record

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Types
// --------------------------------------------------------------------------

// ParseError reports that a document is not valid JSON at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("record document is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports a structurally valid document whose shape does
// not match the record format: a required field is absent or has the
// wrong type. Entry is the zero-based index of the offending entry, or
// -1 when the problem is at document level.
type SchemaError struct {
	Field  string
	Entry  int
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Entry < 0 {
		return fmt.Sprintf("record document field %q %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("record entry %d field %q %s", e.Entry, e.Field, e.Reason)
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// EncodeJSON serializes a record to its wire document:
//
//	{"entries":[{"module_name":...,"name":...,"obj_type":...,"dominated_size":...},...]}
//
// Entries appear in insertion order. Non-ASCII strings round-trip
// unmodified through the standard JSON escaping rules.
func EncodeJSON(r *Record) ([]byte, error) {
	entries := r.Entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(&Record{Entries: entries})
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// required fields of every wire entry, validated one by one so a
// schema violation names the exact field
var stringFields = []string{"module_name", "name", "obj_type"}

// DecodeJSON parses a wire document and reconstructs the record with
// entries in source order.
//
// It fails with *ParseError if data is not valid JSON and with
// *SchemaError if the document shape is wrong: missing entries list,
// an entry that is not an object, a missing required field, or a field
// of the wrong type.
func DecodeJSON(data []byte) (*Record, error) {
	if !json.Valid(data) {
		err := json.Unmarshal(data, new(interface{}))
		return nil, &ParseError{Err: err}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Field: "entries", Entry: -1, Reason: "container is not an object"}
	}

	rawEntries, ok := doc["entries"]
	if !ok {
		return nil, &SchemaError{Field: "entries", Entry: -1, Reason: "is missing"}
	}

	var entryList []json.RawMessage
	if err := json.Unmarshal(rawEntries, &entryList); err != nil {
		return nil, &SchemaError{Field: "entries", Entry: -1, Reason: "is not a list"}
	}

	result := &Record{Entries: make([]Entry, 0, len(entryList))}
	for i, rawEntry := range entryList {
		entry, err := decodeEntry(i, rawEntry)
		if err != nil {
			return nil, err
		}
		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

// decodeEntry validates and decodes a single wire entry.
func decodeEntry(index int, data json.RawMessage) (Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Entry{}, &SchemaError{Field: "entries", Entry: index, Reason: "is not an object"}
	}

	values := make(map[string]string, len(stringFields))
	for _, field := range stringFields {
		raw, ok := fields[field]
		if !ok {
			return Entry{}, &SchemaError{Field: field, Entry: index, Reason: "is missing"}
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Entry{}, &SchemaError{Field: field, Entry: index, Reason: "is not a string"}
		}
		values[field] = s
	}

	rawSize, ok := fields["dominated_size"]
	if !ok {
		return Entry{}, &SchemaError{Field: "dominated_size", Entry: index, Reason: "is missing"}
	}
	var size uint64
	if err := json.Unmarshal(rawSize, &size); err != nil {
		return Entry{}, &SchemaError{Field: "dominated_size", Entry: index, Reason: "is not a non-negative integer"}
	}

	return Entry{
		ModuleName:    values["module_name"],
		Name:          values["name"],
		ObjType:       values["obj_type"],
		DominatedSize: size,
	}, nil
}
