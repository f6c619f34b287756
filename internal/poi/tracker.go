// Package poi keeps a display-ready projection of every tracked point of
// interest and spends update work in proportion to proximity to a single
// observer.
//
// Everything in this package is driven from one loop goroutine through the
// systems returned by Tracker.Systems; no record is ever touched
// concurrently, so there are no locks.
package poi

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/l1jgo/poitrack/internal/config"
	"github.com/l1jgo/poitrack/internal/core/clock"
	"github.com/l1jgo/poitrack/internal/core/ecs"
	"github.com/l1jgo/poitrack/internal/core/event"
	"github.com/l1jgo/poitrack/internal/data"
	"github.com/l1jgo/poitrack/internal/host"
	"github.com/l1jgo/poitrack/internal/telemetry"
)

// Options configures a Tracker. Zero fields take defaults.
type Options struct {
	Clock     clock.Clock
	Logger    *zap.Logger
	Bands     Bands
	Transform host.Transform
	Styles    *data.StyleTable
	Policy    IconPolicy
	Metrics   *telemetry.Metrics

	SettleDelay time.Duration
	SweepPeriod time.Duration
	MaxSuspend  time.Duration
	MoveEpsilon float64
}

// WithConfig copies the tracker and band sections of cfg into o.
func (o Options) WithConfig(cfg *config.Config) Options {
	o.Bands = BandsFromConfig(cfg.Bands)
	o.SettleDelay = cfg.Tracker.SettleDelay
	o.SweepPeriod = cfg.Tracker.SweepPeriod
	o.MaxSuspend = cfg.Tracker.MaxSuspend
	o.MoveEpsilon = cfg.Tracker.MoveEpsilon
	return o
}

// Tracker is the owned context of one scene: registry, scheduler, sweep,
// and the observer and display surface references they share.
type Tracker struct {
	clock      clock.Clock
	log        *zap.Logger
	classifier *Classifier
	proj       *Projector
	styles     *data.StyleTable
	policy     IconPolicy
	metrics    *telemetry.Metrics

	registry *Registry
	sched    *Scheduler
	sweep    *Sweep

	settleDelay time.Duration
	maxSuspend  time.Duration
	moveEpsilon float64

	observer   host.Entity
	observerID ecs.EntityID
	surface    host.Surface
	active     map[ecs.EntityID]*Record
	degraded   bool

	scene     uuid.UUID
	sceneName string
}

func NewTracker(opts Options) (*Tracker, error) {
	defaults := config.Defaults().Tracker
	if opts.Bands == (Bands{}) {
		opts.Bands = DefaultBands()
	}
	classifier, err := NewClassifier(opts.Bands)
	if err != nil {
		return nil, fmt.Errorf("new tracker: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Styles == nil {
		opts.Styles = data.DefaultStyleTable()
	}
	if opts.Policy == nil {
		opts.Policy = DefaultIconPolicy{}
	}
	if opts.SweepPeriod <= 0 {
		opts.SweepPeriod = defaults.SweepPeriod
	}
	if opts.MaxSuspend <= 0 {
		opts.MaxSuspend = defaults.MaxSuspend
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.MoveEpsilon <= 0 {
		opts.MoveEpsilon = defaults.MoveEpsilon
	}

	t := &Tracker{
		clock:       opts.Clock,
		log:         opts.Logger,
		classifier:  classifier,
		proj:        NewProjector(opts.Transform, opts.Metrics),
		styles:      opts.Styles,
		policy:      opts.Policy,
		metrics:     opts.Metrics,
		sched:       newScheduler(),
		settleDelay: opts.SettleDelay,
		maxSuspend:  opts.MaxSuspend,
		moveEpsilon: opts.MoveEpsilon,
		active:      make(map[ecs.EntityID]*Record, 128),
		scene:       uuid.New(),
	}
	t.registry = newRegistry(t)
	t.sweep = &Sweep{t: t, period: opts.SweepPeriod}
	return t, nil
}

func (t *Tracker) Registry() *Registry   { return t.registry }
func (t *Tracker) Scheduler() *Scheduler { return t.sched }
func (t *Tracker) Sweep() *Sweep         { return t.sweep }
func (t *Tracker) Classifier() *Classifier {
	return t.classifier
}

// Scene identifies the current scene generation; it changes on Teardown.
func (t *Tracker) Scene() uuid.UUID { return t.scene }

// SceneName is the name passed to the last Teardown.
func (t *Tracker) SceneName() string { return t.sceneName }

func (t *Tracker) Register(e host.Entity) bool            { return t.registry.Register(e) }
func (t *Tracker) Unregister(id ecs.EntityID) bool        { return t.registry.Unregister(id) }
func (t *Tracker) Snapshot(id ecs.EntityID) (View, bool) { return t.registry.Snapshot(id) }
func (t *Tracker) ForceRefresh(id ecs.EntityID) bool      { return t.registry.ForceRefresh(id) }

// SetObserver replaces the entity distances are measured against. It must
// implement host.Locatable; nil clears it, which halts updates at the next sweep.
func (t *Tracker) SetObserver(e host.Entity) {
	t.observer = e
	t.observerID = 0
	if e != nil {
		t.guard(nil, "observer", func() { t.observerID = e.ID() })
	}
}

// SetSurface mounts the display surface; nil unmounts it.
func (t *Tracker) SetSurface(s host.Surface) {
	t.surface = s
}

func (t *Tracker) isObserver(id ecs.EntityID) bool {
	return t.observer != nil && t.observerID == id
}

func (t *Tracker) mirrored() bool {
	return t.surface != nil && t.surface.Mirrored()
}

// observerOrigin samples the observer position, failing when there is no
// usable observer.
func (t *Tracker) observerOrigin() (pos mgl64.Vec3, err error) {
	if t.observer == nil {
		return pos, ErrNoObserver
	}
	loc, ok := t.observer.(host.Locatable)
	if !ok {
		return pos, fmt.Errorf("%w: %w", ErrNoObserver, ErrMissingCapability)
	}
	valid := false
	if !t.guard(nil, "observer", func() {
		if valid = t.observer.Valid(); valid {
			pos = loc.Position()
		}
	}) || !valid {
		return pos, fmt.Errorf("%w: observer detached", ErrNoObserver)
	}
	return pos, nil
}

// Teardown cancels every task, then clears the active index and the
// registry. Used on scene change and shutdown.
func (t *Tracker) Teardown(scene string) {
	tasks := t.sched.Live()
	records := t.registry.Len()
	t.sched.CancelAll()
	clear(t.active)
	t.registry.clear()
	t.degraded = false
	t.scene = uuid.New()
	t.sceneName = scene
	t.publishStats()
	t.log.Info("tracker torn down",
		zap.String("scene", scene),
		zap.Stringer("generation", t.scene),
		zap.Int("tasks", tasks),
		zap.Int("records", records))
}

// Subscribe wires the host notifications on bus to the tracker.
func (t *Tracker) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(ev event.EntityRegistered) { t.Register(ev.Entity) })
	event.Subscribe(bus, func(ev event.EntityUnregistered) { t.Unregister(ev.ID) })
	event.Subscribe(bus, func(ev event.SceneChanged) { t.Teardown(ev.Scene) })
	event.Subscribe(bus, func(ev event.SurfaceChanged) { t.SetSurface(ev.Surface) })
	event.Subscribe(bus, func(ev event.ObserverChanged) { t.SetObserver(ev.Observer) })
}

// guard runs fn, recovering a panic from host accessors. The failure is
// logged with the record identity, fields written before the failure keep
// their new values and the record is retried on its next cycle.
func (t *Tracker) guard(r *Record, stage string, fn func()) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			ok = false
			fields := []zap.Field{zap.String("stage", stage), zap.Any("panic", p)}
			if r != nil {
				fields = append(fields, zap.Stringer("id", r.ID), zap.Stringer("class", r.Class))
			}
			t.log.Error("record update failed", fields...)
			t.metrics.RecordError(stage)
		}
	}()
	fn()
	return true
}
