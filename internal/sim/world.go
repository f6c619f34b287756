// Package sim is a small host simulation: wandering entities in one map
// region, spawning, despawning and toggling active, with an observer walking
// through them. It drives the tracker the way a game host would, through
// the host contracts and bus notifications.
package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/l1jgo/poitrack/internal/config"
	"github.com/l1jgo/poitrack/internal/core/clock"
	"github.com/l1jgo/poitrack/internal/core/ecs"
	"github.com/l1jgo/poitrack/internal/core/event"
	"github.com/l1jgo/poitrack/internal/host"
)

// World owns the simulated entities. Accessed only from the loop goroutine.
type World struct {
	cfg   config.SimConfig
	clock clock.Clock
	bus   *event.Bus
	log   *zap.Logger
	rng   *rand.Rand

	ecs    *ecs.World
	bodies *ecs.PtrComponentStore[Body]
	lives  *ecs.PtrComponentStore[Life]
	infos  *ecs.PtrComponentStore[Info]

	observer  ecs.EntityID
	surface   *Surface
	transform *Transform

	spawned   int
	despawned int
}

func NewWorld(cfg config.SimConfig, clk clock.Clock, bus *event.Bus, log *zap.Logger) *World {
	w := &World{
		cfg:    cfg,
		clock:  clk,
		bus:    bus,
		log:    log,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		ecs:    ecs.NewWorld(),
		bodies: ecs.NewPtrComponentStore[Body](),
		lives:  ecs.NewPtrComponentStore[Life](),
		infos:  ecs.NewPtrComponentStore[Info](),
	}
	reg := w.ecs.Registry()
	reg.Register(w.bodies)
	reg.Register(w.lives)
	reg.Register(w.infos)

	region := host.RegionID(cfg.Region)
	w.surface = &Surface{region: region}
	w.transform = &Transform{region: region, size: cfg.WorldSize}

	w.ecs.OnDestroy(func(id ecs.EntityID) {
		w.despawned++
		event.Emit(w.bus, event.EntityUnregistered{ID: id})
	})
	return w
}

// Start spawns the observer and the initial population and announces the
// surface. Everything is delivered to subscribers on the next dispatch.
func (w *World) Start() {
	now := w.clock.Now()
	w.observer = w.ecs.CreateEntity()
	w.bodies.Set(w.observer, &Body{
		Vel: mgl64.Vec3{w.cfg.Speed / 2, 0, 0},
		Fwd: mgl64.Vec3{1, 0, 0},
		Aim: mgl64.Vec3{1, 0, 0},
	})
	w.lives.Set(w.observer, &Life{Active: true})
	w.infos.Set(w.observer, &Info{Desc: host.Descriptor{Class: host.ClassMain, DisplayName: "observer"}})

	event.Emit(w.bus, event.SurfaceChanged{Surface: w.surface})
	event.Emit(w.bus, event.ObserverChanged{Observer: w.Handle(w.observer)})
	for i := 0; i < w.cfg.Entities; i++ {
		w.spawn(now)
	}
	w.log.Info("simulation started",
		zap.Int("entities", w.cfg.Entities),
		zap.Float64("world_size", w.cfg.WorldSize),
		zap.Int64("seed", w.cfg.Seed))
}

func (w *World) Surface() *Surface     { return w.surface }
func (w *World) Transform() *Transform { return w.transform }
func (w *World) Observer() ecs.EntityID { return w.observer }

// Live counts simulated entities, the observer included.
func (w *World) Live() int { return w.ecs.Pool().Live() }

func (w *World) Spawned() int   { return w.spawned }
func (w *World) Despawned() int { return w.despawned }

// Handle returns the host handle for id.
func (w *World) Handle(id ecs.EntityID) *Handle {
	return &Handle{w: w, id: id}
}

// Despawn queues id for destruction at the end of the tick.
func (w *World) Despawn(id ecs.EntityID) {
	w.ecs.MarkForDestruction(id)
}

// ChangeScene drops every entity and restarts the population in a new
// region, the way a host reacts to a map transfer.
func (w *World) ChangeScene(name string, region host.RegionID) {
	w.bodies.Each(func(id ecs.EntityID, _ *Body) {
		if id != w.observer {
			w.ecs.MarkForDestruction(id)
		}
	})
	w.surface.region = region
	w.transform.region = region
	event.Emit(w.bus, event.SceneChanged{Scene: name})
	now := w.clock.Now()
	for i := 0; i < w.cfg.Entities; i++ {
		w.spawn(now)
	}
}

var spawnClasses = []host.Class{
	host.ClassEnemy, host.ClassEnemy, host.ClassEnemy,
	host.ClassNPC, host.ClassNeutral, host.ClassNeutral,
	host.ClassPet, host.ClassBoss,
}

var spawnNames = map[host.Class][]string{
	host.ClassEnemy:   {"Goblin", "Ｏｒｃ Ｓｃｏｕｔ", "Cave Bat", ""},
	host.ClassNPC:     {"Merchant", "Guard"},
	host.ClassNeutral: {"Deer", "", "Fishing Spot"},
	host.ClassPet:     {"Hound"},
	host.ClassBoss:    {"Ancient Drake"},
}

func (w *World) spawn(now time.Time) ecs.EntityID {
	id := w.ecs.CreateEntity()
	class := spawnClasses[w.rng.Intn(len(spawnClasses))]
	names := spawnNames[class]
	desc := host.Descriptor{
		Class:       class,
		DisplayName: names[w.rng.Intn(len(names))],
		Scale:       1,
	}

	body := &Body{Pos: w.randomPosition()}
	switch class {
	case host.ClassBoss:
		c := colorful.Hsv(w.rng.Float64()*360, 0.7, 0.95)
		desc.Color = &c
		desc.Scale = 1.25
	case host.ClassNeutral:
		if desc.DisplayName == "Fishing Spot" {
			desc.IsArea = true
			desc.AreaRadius = 4 + w.rng.Float64()*6
		}
	}
	if !desc.IsArea {
		body.Vel = w.randomVelocity()
	}
	body.Fwd = heading(body.Vel)
	body.Aim = body.Fwd

	life := &Life{Active: true}
	if w.cfg.Lifetime > 0 {
		life.DespawnAt = now.Add(w.jitter(w.cfg.Lifetime))
	}
	if w.cfg.ToggleEvery > 0 {
		life.NextToggle = now.Add(w.jitter(w.cfg.ToggleEvery))
	}

	w.bodies.Set(id, body)
	w.lives.Set(id, life)
	w.infos.Set(id, &Info{Desc: desc})
	w.spawned++
	event.Emit(w.bus, event.EntityRegistered{Entity: w.Handle(id)})
	return id
}

func (w *World) randomPosition() mgl64.Vec3 {
	half := w.cfg.WorldSize / 2
	return mgl64.Vec3{(w.rng.Float64()*2 - 1) * half, 0, (w.rng.Float64()*2 - 1) * half}
}

func (w *World) randomVelocity() mgl64.Vec3 {
	a := w.rng.Float64() * 2 * math.Pi
	s := w.rng.Float64() * w.cfg.Speed
	return mgl64.Vec3{math.Sin(a) * s, 0, math.Cos(a) * s}
}

// jitter returns d scaled by a uniform factor in [0.5, 1.5).
func (w *World) jitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.5 + w.rng.Float64()))
}

func heading(v mgl64.Vec3) mgl64.Vec3 {
	if v.Len() < 1e-9 {
		return mgl64.Vec3{0, 0, 1}
	}
	return v.Normalize()
}
