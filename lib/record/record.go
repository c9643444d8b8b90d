package record

// --------------------------------------------------------------------------
// Data Model
// --------------------------------------------------------------------------

// Entry is a single measurement: the memory dominated by one named
// top-level attribute of one module. Entries are immutable once
// constructed.
type Entry struct {
	ModuleName    string `json:"module_name"`    // Name of the module
	Name          string `json:"name"`           // The attribute name within the module
	ObjType       string `json:"obj_type"`       // Display name of the attribute's runtime type
	DominatedSize uint64 `json:"dominated_size"` // Bytes that would become free if the attribute alone were released
}

// Record is one complete trace result: an ordered sequence of entries.
// The order reflects the module-then-attribute scan order and is
// meaningful; a Record is never mutated after it has been encoded.
type Record struct {
	Entries []Entry `json:"entries"`
}

// New creates an empty Record ready to be filled by a scan pass.
func New() *Record {
	return &Record{Entries: []Entry{}}
}

// Append adds an entry to the record, preserving insertion order.
func (r *Record) Append(e Entry) {
	r.Entries = append(r.Entries, e)
}

// Len returns the number of entries in the record.
func (r *Record) Len() int {
	return len(r.Entries)
}
