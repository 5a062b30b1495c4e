// Package tagbus is an in-process, tag-based rendezvous service: a
// publisher deposits a single message at a (tag, level) coordinate and
// every subscriber currently blocked on that coordinate wakes and
// receives its own copy. Messages are never buffered for a future
// receiver; a publish that finds nobody waiting is simply discarded.
package tagbus

import (
	"io"

	"github.com/ehrlich-b/tagbus/internal/ctrl"
	"github.com/ehrlich-b/tagbus/internal/interfaces"
	"github.com/ehrlich-b/tagbus/internal/logging"
	"github.com/ehrlich-b/tagbus/internal/status"
)

// Command and Controller are aliased straight from internal/ctrl: the
// facade dispatcher lives there so it can construct tagbus.Error values
// without an import cycle, but its public shape is this package's API.
type (
	Command    = ctrl.Command
	Controller = ctrl.Controller
	Config     = ctrl.Config
)

const (
	CmdCreate   = ctrl.CmdCreate
	CmdOpen     = ctrl.CmdOpen
	CmdAwakeAll = ctrl.CmdAwakeAll
	CmdRemove   = ctrl.CmdRemove
)

// DefaultConfig returns the package's default capacity constants.
func DefaultConfig() Config {
	return ctrl.DefaultConfig()
}

// New builds a Controller. A zero-value Config gets every field defaulted
// from internal/constants.
func New(cfg Config) *Controller {
	return ctrl.New(cfg)
}

// Observer re-exports internal/interfaces.Observer for callers wiring a
// custom Metrics-like implementation into a Controller.
type Observer = interfaces.Observer

// Snapshot renders c's current registry state into a status.Snapshot,
// the input to WriteStatus.
func Snapshot(c *Controller) status.Snapshot {
	return status.BuildSnapshot(c.Snapshot())
}

// WriteStatus writes the fixed-width status export for c to w, in the
// format spec.md §6 assigns to the external status device.
func WriteStatus(w io.Writer, c *Controller) (int64, error) {
	return status.WriteTo(w, Snapshot(c))
}

// SetLogger replaces the package-wide default logger. A Controller takes
// the default logger when New builds it, so controllers built after this
// call use l; controllers that already exist keep the logger they have.
func SetLogger(l *logging.Logger) {
	logging.SetDefault(l)
}
