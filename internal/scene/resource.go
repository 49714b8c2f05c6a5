package scene

// resource tracks disposal of GPU-backed data. Renderers register release
// callbacks when they upload.
type resource struct {
	disposed  bool
	onDispose []func()
}

// OnDispose registers fn to run when the resource is disposed.
func (r *resource) OnDispose(fn func()) {
	r.onDispose = append(r.onDispose, fn)
}

// Dispose runs release callbacks once.
func (r *resource) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	callbacks := r.onDispose
	r.onDispose = nil
	for _, fn := range callbacks {
		fn()
	}
}

// Disposed reports whether Dispose has run.
func (r *resource) Disposed() bool { return r.disposed }
