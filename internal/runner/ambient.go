package runner

// The ambient access context binds the accessor family to the registry of
// the pass currently executing. The expression does not receive its
// accessors as parameters, so they resolve through this indirection.
//
// The binding is a plain package variable with mandatory save/restore
// around every pass, never a naked mutation: a runner reading another
// runner's output nests cleanly, because the inner pass restores the outer
// installation before control returns.
//
// The runtime is single-threaded and cooperative - passes run synchronously
// inside emission delivery - so the variable needs no lock. Runners are not
// safe for concurrent use from multiple goroutines.
var ambient *Registry

// Ambient returns the registry of the pass currently executing, or nil when
// no pass is active.
func Ambient() *Registry { return ambient }

// install makes reg the ambient registry and returns the restore function.
// Callers must run the restore even when the pass fails.
func install(reg *Registry) (restore func()) {
	prev := ambient
	ambient = reg
	return func() { ambient = prev }
}
