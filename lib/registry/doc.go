// Package registry provides the module registration surface the
// recorder scans.
//
// Go has no runtime dictionary of loaded modules, so applications
// declare them explicitly: a module is a name plus an AttrProvider
// exposing its named top-level attributes. The recorder walks its
// configured module list against a Registry; names without a
// registration are silently skipped, mirroring a module that is not
// currently loaded.
//
// AttrMap and AttrFunc adapt the two common cases (a fixed map, a
// function computing the map per scan) to the AttrProvider interface.
// A process-wide default registry is available through Default and the
// package-level Register/Unregister helpers.
package registry
