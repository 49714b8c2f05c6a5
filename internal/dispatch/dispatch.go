// Package dispatch forwards resolved picks to the collaborating dashboard
// panels through an injected capability.
package dispatch

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/anatomy-viewer/internal/logger"
	"github.com/Faultbox/anatomy-viewer/internal/parts"
	"github.com/Faultbox/anatomy-viewer/internal/scene"
)

// PartHandler receives picked parts. Either method may fail without
// affecting the other or the viewer.
type PartHandler interface {
	PartInfoRequested(id int) error
	PartMediaRequested(query string, id int) error
}

// Funcs adapts plain functions to PartHandler. A nil field is a no-op.
type Funcs struct {
	Info  func(id int) error
	Media func(query string, id int) error
}

// PartInfoRequested calls f.Info when set.
func (f Funcs) PartInfoRequested(id int) error {
	if f.Info == nil {
		return nil
	}
	return f.Info(id)
}

// PartMediaRequested calls f.Media when set.
func (f Funcs) PartMediaRequested(query string, id int) error {
	if f.Media == nil {
		return nil
	}
	return f.Media(query, id)
}

// PickResult is a resolved pick.
type PickResult struct {
	PartName string
	PartID   int
	HasID    bool
	Query    string
	HasQuery bool
	Mesh     *scene.Node
}

// Resolve looks a part name up in the part registry. An unmapped name is a
// partial result, not an error.
func Resolve(name string, mesh *scene.Node) PickResult {
	r := PickResult{PartName: name, Mesh: mesh}
	if e, ok := parts.Lookup(name); ok {
		r.PartID, r.HasID = e.ID, true
		if e.Query != "" {
			r.Query, r.HasQuery = e.Query, true
		}
	}
	return r
}

// Dispatcher invokes a PartHandler for each pick.
type Dispatcher struct {
	handler PartHandler
	log     *zap.Logger
}

// New creates a dispatcher. handler may be nil.
func New(handler PartHandler) *Dispatcher {
	return &Dispatcher{handler: handler, log: logger.Named("dispatch")}
}

// Dispatch sends the info request when an id resolved and the media request
// when both query and id resolved. It returns how many handlers succeeded.
func (d *Dispatcher) Dispatch(r PickResult) int {
	if d.handler == nil || !r.HasID {
		return 0
	}
	ok := 0
	if err := d.guard("info", func() error { return d.handler.PartInfoRequested(r.PartID) }); err != nil {
		d.log.Warn("part info handler failed", zap.String("part", r.PartName), zap.Int("id", r.PartID), zap.Error(err))
	} else {
		d.log.Debug("part info dispatched", zap.String("part", r.PartName), zap.Int("id", r.PartID))
		ok++
	}

	if !r.HasQuery {
		return ok
	}
	if err := d.guard("media", func() error { return d.handler.PartMediaRequested(r.Query, r.PartID) }); err != nil {
		d.log.Warn("part media handler failed", zap.String("part", r.PartName), zap.String("query", r.Query), zap.Error(err))
	} else {
		d.log.Debug("part media dispatched", zap.String("part", r.PartName), zap.String("query", r.Query))
		ok++
	}
	return ok
}

// guard turns a handler panic into an error.
func (d *Dispatcher) guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s handler panic: %v", name, r)
		}
	}()
	return fn()
}
