// Package ctrl implements the service facade: the four entry points
// (Get, Send, Receive, Ctl) that coordinate the tag registry and each
// tag's level table, copy message bytes across the boundary, and
// translate internal outcomes into the tagbus error taxonomy.
package ctrl

import (
	"context"

	"github.com/ehrlich-b/tagbus/internal/constants"
	"github.com/ehrlich-b/tagbus/internal/errs"
	"github.com/ehrlich-b/tagbus/internal/interfaces"
	"github.com/ehrlich-b/tagbus/internal/level"
	"github.com/ehrlich-b/tagbus/internal/logging"
	"github.com/ehrlich-b/tagbus/internal/registry"
)

type noopObserver struct{}

func (noopObserver) ObserveSend(int32, int32, int, bool)      {}
func (noopObserver) ObserveReceive(int32, int32, int, string) {}
func (noopObserver) ObserveWaiters(int32, int32, int64)       {}
func (noopObserver) ObserveTagCreated(int32)                  {}
func (noopObserver) ObserveTagRemoved(int32)                  {}

// Controller is the facade dispatcher generalized from the teacher's
// single-device Controller (AddDevice/SetParams/StartDevice/StopDevice/
// DeleteDevice) into a dispatcher over an arbitrary number of tags.
type Controller struct {
	reg      *registry.Registry
	cfg      Config
	logger   *logging.Logger
	observer interfaces.Observer
}

// New builds a Controller over a fresh registry sized per cfg.
func New(cfg Config) *Controller {
	if cfg.MaxTags <= 0 {
		cfg.MaxTags = constants.MaxTags
	}
	if cfg.MaxLevels <= 0 {
		cfg.MaxLevels = constants.MaxLevels
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = constants.MaxMessageSize
	}
	if cfg.MaxWaitersHint <= 0 {
		cfg.MaxWaitersHint = constants.MaxWaitersHint
	}
	return &Controller{
		reg:      registry.NewWithCapacity(cfg.MaxTags, cfg.MaxLevels),
		cfg:      cfg,
		logger:   logging.Default(),
		observer: noopObserver{},
	}
}

// SetLogger overrides the controller's logger; nil restores the default.
func (c *Controller) SetLogger(l *logging.Logger) {
	if l == nil {
		l = logging.Default()
	}
	c.logger = l
}

// SetObserver overrides the controller's metrics observer; nil installs a
// no-op observer.
func (c *Controller) SetObserver(o interfaces.Observer) {
	if o == nil {
		o = noopObserver{}
	}
	c.observer = o
}

// Get implements spec.md §4.4's get entry point: CREATE allocates a new
// tag, OPEN looks one up by key.
func (c *Controller) Get(key int32, cmd Command, uidArg int32) (int32, error) {
	switch cmd {
	case CmdCreate:
		if key < 0 && key != constants.PrivateSentinel {
			return -1, errs.NewError("GET", errs.CodeInvalidArgument)
		}
		private := key == constants.PrivateSentinel
		desc, err := c.reg.Insert(key, private, uidArg)
		if err != nil {
			return -1, translateRegistryErr("GET", -1, err)
		}
		c.logger.WithOp(desc, "CREATE").Debug("tag created", "key", key, "private", private)
		c.observer.ObserveTagCreated(desc)
		return desc, nil
	case CmdOpen:
		desc, err := c.reg.LookupByKey(key, uidArg)
		if err != nil {
			return -1, translateRegistryErr("GET", -1, err)
		}
		c.logger.WithOp(desc, "OPEN").Debug("tag opened", "key", key)
		return desc, nil
	default:
		return -1, errs.NewError("GET", errs.CodeInvalidArgument)
	}
}

// Send implements spec.md §4.4's send entry point.
func (c *Controller) Send(desc int32, lvl int32, buf []byte) error {
	if len(buf) > c.cfg.MaxMessageSize {
		return errs.NewLevelError("SEND", desc, lvl, errs.CodeMessageTooBig)
	}
	if lvl < 0 || int(lvl) >= c.cfg.MaxLevels {
		return errs.NewLevelError("SEND", desc, lvl, errs.CodeInvalidArgument)
	}

	tag, err := c.reg.Acquire(desc, registry.AnyUID)
	if err != nil {
		return translateRegistryErr("SEND", desc, err)
	}
	defer c.reg.Release(tag)

	// Publish only locates an existing level record: a level is created
	// lazily by the first Receive on it (spec.md §4.2), never by Send. A
	// Send to a level nobody has ever blocked on has nothing to wake;
	// the payload is discarded and the call still succeeds, matching the
	// original driver's wakeup_level ("message will be discarded") and
	// the "lost publication" non-buffering semantics (spec.md §8 scenario 4).
	data := append([]byte(nil), buf...)
	perr := tag.Levels.Publish(lvl, data)
	if perr == level.ErrNotFound {
		c.observer.ObserveSend(desc, lvl, len(data), false)
		c.logger.WithOp(desc, "SEND").Debug("level has no waiters, message discarded", "level", lvl)
		return nil
	}
	if perr != nil {
		c.observer.ObserveSend(desc, lvl, len(data), false)
		return translateLevelErr("SEND", desc, lvl, perr)
	}
	c.observer.ObserveSend(desc, lvl, len(data), true)
	c.logger.WithOp(desc, "SEND").Debug("message published", "level", lvl, "bytes", len(data))
	return nil
}

// Receive implements spec.md §4.4's receive entry point and §4.3's
// receiver protocol. ctx cancellation is the Go rendering of "external
// interruption".
func (c *Controller) Receive(ctx context.Context, desc int32, lvl int32, buf []byte) (int, error) {
	if lvl < 0 || int(lvl) >= c.cfg.MaxLevels {
		return 0, errs.NewLevelError("RECEIVE", desc, lvl, errs.CodeInvalidArgument)
	}

	tag, err := c.reg.Acquire(desc, registry.AnyUID)
	if err != nil {
		return 0, translateRegistryErr("RECEIVE", desc, err)
	}
	defer c.reg.Release(tag)

	lv, ierr := tag.Levels.FindOrInsert(lvl)
	if ierr != nil {
		return 0, translateLevelErr("RECEIVE", desc, lvl, ierr)
	}

	if w := lv.Waiters(); w >= int64(c.cfg.MaxWaitersHint) {
		c.logger.WithOp(desc, "RECEIVE").Warn("waiters exceed hint", "level", lvl, "waiters", w)
	}

	n, cancelled, werr := lv.Wait(ctx, buf)
	c.observer.ObserveWaiters(desc, lvl, lv.Waiters())
	if werr != nil {
		c.observer.ObserveReceive(desc, lvl, 0, "interrupted")
		return 0, errs.NewLevelError("RECEIVE", desc, lvl, errs.CodeInterrupted)
	}
	if cancelled {
		c.observer.ObserveReceive(desc, lvl, 0, "cancelled")
		return 0, errs.NewLevelError("RECEIVE", desc, lvl, errs.CodeInterrupted)
	}
	c.observer.ObserveReceive(desc, lvl, n, "ok")
	return n, nil
}

// Ctl implements spec.md §4.4's ctl entry point: AWAKE_ALL and the
// strict REMOVE (abort-and-restore on live waiters).
func (c *Controller) Ctl(desc int32, cmd Command) error {
	switch cmd {
	case CmdAwakeAll:
		tag, err := c.reg.Acquire(desc, registry.AnyUID)
		if err != nil {
			return translateRegistryErr("CTL", desc, err)
		}
		defer c.reg.Release(tag)
		tag.Levels.WakeAll()
		c.logger.WithOp(desc, "AWAKE_ALL").Debug("awoke all waiters")
		return nil
	case CmdRemove:
		tag, err := c.reg.BeginRemove(desc, registry.AnyUID)
		if err != nil {
			return translateRegistryErr("CTL", desc, err)
		}
		if cerr := tag.Levels.Cleanup(false); cerr != nil {
			c.reg.AbortRemove(tag)
			return translateLevelErr("CTL", desc, -1, cerr)
		}
		c.reg.FinalizeRemove(tag)
		c.observer.ObserveTagRemoved(desc)
		c.logger.WithOp(desc, "REMOVE").Debug("tag removed")
		return nil
	default:
		return errs.NewTagError("CTL", desc, errs.CodeInvalidArgument)
	}
}

// Shutdown implements spec.md §4.5: drain every live tag, unconditionally.
func (c *Controller) Shutdown() {
	for _, tag := range c.reg.DrainForShutdown() {
		tag.Levels.WakeAll()
		_ = tag.Levels.Cleanup(true)
		c.observer.ObserveTagRemoved(tag.Desc)
	}
	c.logger.Info("subsystem shutdown complete")
}

// Snapshot returns the registry's live tags and levels for status export.
func (c *Controller) Snapshot() []*registry.Tag {
	return c.reg.Snapshot()
}

func translateRegistryErr(op string, desc int32, err error) error {
	switch err {
	case registry.ErrKeyExists:
		return errs.NewTagError(op, desc, errs.CodeKeyExists)
	case registry.ErrCapacity:
		return errs.NewTagError(op, desc, errs.CodeCapacity)
	case registry.ErrNotFound:
		return errs.NewTagError(op, desc, errs.CodeNotFound)
	case registry.ErrPermission:
		return errs.NewTagError(op, desc, errs.CodePermission)
	case registry.ErrPrivateTag:
		return errs.NewTagError(op, desc, errs.CodePrivateTag)
	case registry.ErrRemoving:
		return errs.NewTagError(op, desc, errs.CodeRemoving)
	case registry.ErrBusy:
		return errs.NewTagError(op, desc, errs.CodeBusy)
	default:
		return errs.WrapError(op, desc, -1, err)
	}
}

func translateLevelErr(op string, desc int32, lvl int32, err error) error {
	switch err {
	case level.ErrNotFound:
		return errs.NewLevelError(op, desc, lvl, errs.CodeNotFound)
	case level.ErrBusy:
		return errs.NewLevelError(op, desc, lvl, errs.CodeBusy)
	case level.ErrCapacity:
		return errs.NewLevelError(op, desc, lvl, errs.CodeCapacity)
	default:
		return errs.WrapError(op, desc, lvl, err)
	}
}
