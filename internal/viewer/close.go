package viewer

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Close tears the viewer down whether or not the model finished loading:
// the load is cancelled, pointer capture released, the renderer disposed and
// every mesh in the scene released. Safe to call more than once.
func (v *Viewer) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	v.log.Debug("cleanup")

	if v.cancel != nil {
		v.cancel()
	}
	// Unblocks a Post waiting on a full queue before taking its lock.
	close(v.done)
	v.postMu.Lock()
	v.shutdown = true
	v.postMu.Unlock()
	// A result posted before close still needs releasing.
	v.drain()

	var err error
	err = multierr.Append(err, v.router.Cancel())
	if v.controls != nil {
		v.controls.Dispose()
	}
	err = multierr.Append(err, v.renderer.Dispose())
	v.model.Dispose()
	if v.root != nil {
		v.root.Dispose()
	}
	v.model = nil

	if err != nil {
		v.log.Warn("cleanup finished with errors", zap.Error(err))
	}
	return err
}
