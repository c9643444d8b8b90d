package recorder

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

const (
	// DefaultIndexKey is the cache key holding the snapshot counter.
	DefaultIndexKey = "memtrace_index"

	// DefaultRecordPrefix is prepended to the decimal index to form the
	// cache key of a stored snapshot.
	DefaultRecordPrefix = "memtrace_record_"
)

// Config controls what a Recorder measures and where it stores the
// result. All fields are plain external inputs; a zero Config traces
// nothing but is valid.
type Config struct {
	// Modules lists the module names to scan, in order. Names with no
	// registration are skipped.
	Modules []string

	// IgnoreNames holds attribute names excluded from every module's
	// scan, for attributes that are known noise.
	IgnoreNames []string

	// IndexKey is the cache key of the snapshot counter. Empty means
	// DefaultIndexKey.
	IndexKey string

	// RecordPrefix is the cache key prefix for stored snapshots. Empty
	// means DefaultRecordPrefix.
	RecordPrefix string
}

// withDefaults fills in the default key names.
func (c Config) withDefaults() Config {
	if c.IndexKey == "" {
		c.IndexKey = DefaultIndexKey
	}
	if c.RecordPrefix == "" {
		c.RecordPrefix = DefaultRecordPrefix
	}
	return c
}
