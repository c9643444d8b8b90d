package cache

import "fmt"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplRowan     Implementation = "rowan"
	ImplMemcached Implementation = "memcached"
)

// Feature represents cache features as bit flags
type Feature uint64

const (
	FeatureAdd      Feature = 1 << iota // Support for write-once Add operations
	FeatureIncr                         // Support for atomic counter increments
	FeatureGet                          // Support for Get operations
	FeatureGetMulti                     // Support for batched GetMulti operations
	FeatureDelete                       // Support for Delete operations
	FeatureEvict                        // Entries may vanish at any time (TTL or pressure)
)

func (f Feature) String() string {
	switch f {
	case FeatureAdd:
		return "Add"
	case FeatureIncr:
		return "Incr"
	case FeatureGet:
		return "Get"
	case FeatureGetMulti:
		return "GetMulti"
	case FeatureDelete:
		return "Delete"
	case FeatureEvict:
		return "Evict"
	default:
		return "Unknown"
	}
}

// CacheInfo holds metadata about the backend behind a Cache.
// It is not guaranteed that all fields are filled in or that the
// information is up-to-date.
type CacheInfo struct {
	Entries           int            `json:"entries"`
	CacheType         Implementation `json:"cache_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Cache Interface
// --------------------------------------------------------------------------

// Cache is the contract every backend must fulfil. It is intentionally
// small: the four primitives carry all the atomicity the callers rely
// on, so implementations must guarantee that Add and Incr are atomic
// with respect to all concurrent callers of the same backend (in the
// same process or not).
//
// A Cache holds no retention guarantee. Any key may vanish between two
// calls; callers must treat absence as a normal condition.
type Cache interface {
	// Add inserts a key-value pair only if the key is absent.
	// The boolean reports whether the value was stored: false means the
	// key was already occupied and the existing value is untouched.
	Add(key string, value []byte) (stored bool, err error)

	// Incr atomically increments the decimal counter stored under key
	// by one and returns the new value. It fails with RetCKeyNotFound
	// if the key is absent and RetCBadValue if the stored value is not
	// a decimal integer.
	Incr(key string) (value uint64, err error)

	// Get returns the value for a key. The boolean return value
	// indicates whether a value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)

	// GetMulti returns the values for all present keys. Absent keys are
	// simply omitted from the result map, they are never an error.
	GetMulti(keys []string) (values map[string][]byte, err error)

	// Delete removes a key-value pair. Deleting an absent key is a no-op.
	Delete(key string) (err error)

	// SupportsFeature checks if the backend supports the specified
	// feature. Multiple features can be checked at once using the
	// bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns metadata about the backend.
	GetInfo() (info CacheInfo, err error)

	// Close releases backend resources.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("CacheError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the backend.
	RetCKeyNotFound                         // 3: The operation requires the key to exist.
	RetCBadValue                            // 4: The stored value has the wrong shape for the operation.
	RetCUnavailable                         // 5: The backend could not be reached.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCKeyNotFound:
		return "KeyNotFound"
	case RetCBadValue:
		return "BadValue"
	case RetCUnavailable:
		return "Unavailable"
	default:
		return "Unknown"
	}
}

// IsUnavailable reports whether err is a backend transport failure.
// Such errors are never retried by this module and should be treated
// as fatal by the caller.
func IsUnavailable(err error) bool {
	if cErr, ok := err.(*Error); ok {
		return cErr.Code == RetCUnavailable
	}
	return false
}
