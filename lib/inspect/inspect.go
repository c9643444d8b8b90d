package inspect

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Inspector is the heap-inspection capability the recorder measures
// with: given a live value, it returns the number of bytes uniquely
// retained by it, i.e. the bytes that would become free if this value
// alone were released.
//
// Computing exact dominated sizes requires a dominator analysis over
// the full object graph and is the province of dedicated heap tooling;
// implementations of this interface are free to approximate. The
// recorder treats the result as an opaque measurement.
type Inspector interface {
	DominatedSize(v interface{}) uint64
}

// InspectorFunc adapts a function to the Inspector interface.
type InspectorFunc func(v interface{}) uint64

func (f InspectorFunc) DominatedSize(v interface{}) uint64 { return f(v) }
