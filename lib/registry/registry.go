package registry

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Provider Types
// --------------------------------------------------------------------------

// AttrProvider exposes the named top-level attributes of one module.
// The returned map is read once per scan; providers may rebuild it on
// every call to reflect live state.
type AttrProvider interface {
	Attributes() map[string]interface{}
}

// AttrMap adapts a plain attribute map to the AttrProvider interface.
// Useful when a module's attribute set is fixed at registration time.
type AttrMap map[string]interface{}

func (m AttrMap) Attributes() map[string]interface{} { return m }

// AttrFunc adapts a function to the AttrProvider interface for modules
// whose attribute set is computed on demand.
type AttrFunc func() map[string]interface{}

func (f AttrFunc) Attributes() map[string]interface{} { return f() }

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// Registry maps module names to their attribute providers. It is the
// scan source for the recorder: only registered modules can appear in
// a trace, and a configured module name with no registration is simply
// skipped.
type Registry struct {
	modules *xsync.MapOf[string, AttrProvider]
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		modules: xsync.NewMapOf[string, AttrProvider](),
	}
}

// Register adds or replaces the provider for a module name.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *Registry) Register(name string, provider AttrProvider) {
	r.modules.Store(name, provider)
}

// Unregister removes a module. Unknown names are a no-op.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *Registry) Unregister(name string) {
	r.modules.Delete(name)
}

// Lookup returns the provider for a module name. The boolean reports
// whether the module is registered.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *Registry) Lookup(name string) (AttrProvider, bool) {
	return r.modules.Load(name)
}

// Names returns the currently registered module names in no particular
// order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.modules.Size())
	r.modules.Range(func(name string, _ AttrProvider) bool {
		names = append(names, name)
		return true
	})
	return names
}

// --------------------------------------------------------------------------
// Default Registry
// --------------------------------------------------------------------------

// defaultRegistry serves the common case of one registry per process.
var defaultRegistry = New()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds or replaces a module in the process-wide registry.
func Register(name string, provider AttrProvider) {
	defaultRegistry.Register(name, provider)
}

// Unregister removes a module from the process-wide registry.
func Unregister(name string) {
	defaultRegistry.Unregister(name)
}
