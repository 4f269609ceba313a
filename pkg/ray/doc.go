// Package ray is the runtime half of marker-driven method interception.
//
// Methods tagged with a //ray::intercept comment are recorded in a Marks side
// table by the code that the ray generator emits. After the container builds
// a managed object, Registry.PostProcess scans it. Objects with marked
// methods are replaced by a generated forwarding proxy, which logs
// "start [name]" and "stop [name]" around each marked call. Unmarked methods
// pass straight through.
//
// Types built ahead of time can register an Initializer with
// Registry.Substitute. The initializer then runs instead of the scan.
package ray
