package recorder

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog"

	"github.com/vkoehler/memtrace/lib/cache"
	"github.com/vkoehler/memtrace/lib/inspect"
	"github.com/vkoehler/memtrace/lib/record"
	"github.com/vkoehler/memtrace/lib/registry"
)

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

var (
	tracesTotal    = metrics.GetOrCreateCounter("memtrace_traces_total")
	recordsDropped = metrics.GetOrCreateCounter("memtrace_records_dropped_total")
	recordsMissing = metrics.GetOrCreateCounter("memtrace_records_missing_total")
)

// --------------------------------------------------------------------------
// Error Types
// --------------------------------------------------------------------------

// MissingSnapshotError reports that the snapshot for one index has been
// evicted from the cache. It occupies that snapshot's position in a
// retrieval result; the neighbouring positions stay usable.
type MissingSnapshotError struct {
	Index uint64
}

func (e *MissingSnapshotError) Error() string {
	return fmt.Sprintf("snapshot %d is no longer in the cache", e.Index)
}

// --------------------------------------------------------------------------
// Recorder
// --------------------------------------------------------------------------

// Recorder captures memory snapshots of registered modules and stores
// them in a shared cache under strictly increasing indices.
//
// Thread-safety: a Recorder holds no mutable state of its own. All
// atomicity is delegated to the cache backend, so methods may be called
// concurrently; concurrent Trace calls allocate distinct indices.
type Recorder struct {
	cache     cache.Cache
	inspector inspect.Inspector
	registry  *registry.Registry
	cfg       Config
	ignore    map[string]struct{}
	logger    zerolog.Logger
}

// Options bundles the dependencies of a Recorder. Only Cache is
// required; the other fields have working defaults.
type Options struct {
	// Cache is the shared backend snapshots are stored in (required).
	Cache cache.Cache

	// Inspector measures attribute sizes. Defaults to inspect.NewSizer().
	Inspector inspect.Inspector

	// Registry is the scan source. Defaults to registry.Default().
	Registry *registry.Registry

	// Config selects modules, ignore names and key names.
	Config Config

	// Logger receives structured trace and drop events. Defaults to a
	// no-op logger.
	Logger *zerolog.Logger
}

// New creates a Recorder from the given options.
func New(opts Options) (*Recorder, error) {
	if opts.Cache == nil {
		return nil, fmt.Errorf("recorder requires a cache backend")
	}

	required := cache.FeatureAdd | cache.FeatureIncr | cache.FeatureGet | cache.FeatureGetMulti
	if !opts.Cache.SupportsFeature(required) {
		return nil, fmt.Errorf("cache backend does not support the required operations")
	}

	inspector := opts.Inspector
	if inspector == nil {
		inspector = inspect.NewSizer()
	}

	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	cfg := opts.Config.withDefaults()

	ignore := make(map[string]struct{}, len(cfg.IgnoreNames))
	for _, name := range cfg.IgnoreNames {
		ignore[name] = struct{}{}
	}

	return &Recorder{
		cache:     opts.Cache,
		inspector: inspector,
		registry:  reg,
		cfg:       cfg,
		ignore:    ignore,
		logger:    logger,
	}, nil
}

// --------------------------------------------------------------------------
// Tracing
// --------------------------------------------------------------------------

// Trace captures one snapshot and stores it in the cache. It returns
// the index allocated for the snapshot.
//
// The runtime is garbage collected before measuring so that transient
// garbage does not inflate the result; very recently allocated data may
// read artificially small.
//
// If the counter was evicted and re-allocated, the write may collide
// with a surviving older snapshot. The colliding snapshot is dropped
// silently: the event is logged and counted, never returned as an
// error.
func (rc *Recorder) Trace() (uint64, error) {
	runtime.GC()

	rec := rc.scan()

	data, err := record.EncodeJSON(rec)
	if err != nil {
		return 0, err
	}

	index, err := rc.nextIndex()
	if err != nil {
		return 0, err
	}

	stored, err := rc.cache.Add(rc.recordKey(index), data)
	if err != nil {
		return 0, err
	}
	if !stored {
		recordsDropped.Inc()
		rc.logger.Warn().
			Uint64("index", index).
			Msg("snapshot slot already occupied, dropping record")
	}

	tracesTotal.Inc()
	rc.logger.Debug().
		Uint64("index", index).
		Int("entries", rec.Len()).
		Msg("captured snapshot")

	return index, nil
}

// scan walks the configured modules and measures every attribute that
// is not on the ignore list, in ascending attribute-name order.
func (rc *Recorder) scan() *record.Record {
	rec := record.New()

	for _, moduleName := range rc.cfg.Modules {
		provider, ok := rc.registry.Lookup(moduleName)
		if !ok {
			continue
		}

		attrs := provider.Attributes()

		names := make([]string, 0, len(attrs))
		for name := range attrs {
			if _, skip := rc.ignore[name]; skip {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			value := attrs[name]
			rec.Append(record.Entry{
				ModuleName:    moduleName,
				Name:          name,
				ObjType:       typeName(value),
				DominatedSize: rc.inspector.DominatedSize(value),
			})
		}
	}

	return rec
}

// nextIndex allocates the next snapshot index. The first allocation
// claims the counter key with a write-once Add; every later allocation
// increments it atomically. Indices are strictly increasing only while
// the backend keeps the counter key alive.
func (rc *Recorder) nextIndex() (uint64, error) {
	stored, err := rc.cache.Add(rc.cfg.IndexKey, []byte("1"))
	if err != nil {
		return 0, err
	}
	if stored {
		return 1, nil
	}
	return rc.cache.Incr(rc.cfg.IndexKey)
}

// recordKey builds the cache key for a snapshot index.
func (rc *Recorder) recordKey(index uint64) string {
	return rc.cfg.RecordPrefix + strconv.FormatUint(index, 10)
}

// typeName returns the display name of a value's runtime type.
func typeName(v interface{}) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

// --------------------------------------------------------------------------
// Retrieval
// --------------------------------------------------------------------------

// RawSnapshot is one position of a raw retrieval result: the snapshot
// index plus either its serialized document or the error explaining
// why the document is unavailable.
type RawSnapshot struct {
	Index uint64
	Data  []byte
	Err   error
}

// Snapshot is one position of a decoded retrieval result.
type Snapshot struct {
	Index  uint64
	Record *record.Record
	Err    error
}

// GetRawRecords returns up to limit serialized snapshots, newest first,
// skipping the offset most recent ones. An absent counter key yields an
// empty result. Snapshots evicted from the cache occupy their position
// with a *MissingSnapshotError instead of aborting the whole retrieval.
//
// With offset > 0 the result holds min(limit, current) - offset
// positions, not limit.
func (rc *Recorder) GetRawRecords(limit, offset uint64) ([]RawSnapshot, error) {
	raw, loaded, err := rc.cache.Get(rc.cfg.IndexKey)
	if err != nil {
		return nil, err
	}
	if !loaded {
		return []RawSnapshot{}, nil
	}

	current, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("counter key %q holds a non-numeric value: %w", rc.cfg.IndexKey, err)
	}

	effLimit := limit
	if current < effLimit {
		effLimit = current
	}
	if offset >= effLimit {
		return []RawSnapshot{}, nil
	}

	indices := make([]uint64, 0, effLimit-offset)
	keys := make([]string, 0, effLimit-offset)
	for i := offset; i < effLimit; i++ {
		index := current - i
		indices = append(indices, index)
		keys = append(keys, rc.recordKey(index))
	}

	values, err := rc.cache.GetMulti(keys)
	if err != nil {
		return nil, err
	}

	result := make([]RawSnapshot, 0, len(indices))
	for pos, index := range indices {
		data, ok := values[keys[pos]]
		if !ok {
			recordsMissing.Inc()
			result = append(result, RawSnapshot{
				Index: index,
				Err:   &MissingSnapshotError{Index: index},
			})
			continue
		}
		result = append(result, RawSnapshot{Index: index, Data: data})
	}

	return result, nil
}

// GetRecords returns up to limit decoded snapshots, newest first,
// skipping the offset most recent ones. Per-position errors from the
// raw retrieval are preserved; a stored document that fails to decode
// carries the decode error in its position.
func (rc *Recorder) GetRecords(limit, offset uint64) ([]Snapshot, error) {
	rawSnapshots, err := rc.GetRawRecords(limit, offset)
	if err != nil {
		return nil, err
	}

	result := make([]Snapshot, 0, len(rawSnapshots))
	for _, rawSnap := range rawSnapshots {
		if rawSnap.Err != nil {
			result = append(result, Snapshot{Index: rawSnap.Index, Err: rawSnap.Err})
			continue
		}
		rec, err := record.DecodeJSON(rawSnap.Data)
		if err != nil {
			result = append(result, Snapshot{Index: rawSnap.Index, Err: err})
			continue
		}
		result = append(result, Snapshot{Index: rawSnap.Index, Record: rec})
	}

	return result, nil
}
