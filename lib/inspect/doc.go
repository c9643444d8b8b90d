// Package inspect defines the heap-inspection capability used to
// measure how much memory a live value retains.
//
// The Inspector interface is deliberately minimal (one method,
// DominatedSize) so that dedicated heap tooling can be plugged in
// where exact dominator-style numbers matter. Sizer provides a
// reflect-based default that reports the reachable-subgraph size,
// with cycle and aliasing protection via a visited set.
package inspect
