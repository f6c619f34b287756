package poi

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/l1jgo/poitrack/internal/core/ecs"
	"github.com/l1jgo/poitrack/internal/host"
)

// Record is the cached per-entity state. It is owned by the Registry and
// only touched from the loop goroutine; its UpdateTask refers to it but
// never outlives it.
type Record struct {
	ID    ecs.EntityID
	Class host.Class

	entity host.Entity
	loc    host.Locatable
	desc   host.Describable

	Alive        bool // false once unregistered
	ActiveByHost bool // last observed host active flag

	WorldPosition       mgl64.Vec3
	MapPosition         mgl64.Vec2
	HasValidMapPosition bool
	Rotation            float64 // map icon heading in degrees
	Forward             mgl64.Vec3
	Aim                 mgl64.Vec3

	Color       colorful.Color
	DisplayName string
	HideIcon    bool
	Scale       float64
	IsArea      bool
	AreaRadius  float64

	baseColor      colorful.Color
	descriptorHide bool

	Distance       float64
	Tier           Tier
	UpdateInterval time.Duration
	UpdateCount    uint64

	LastWorldUpdate    time.Time
	LastMapUpdate      time.Time
	LastDistanceUpdate time.Time

	task     *UpdateTask
	Updating bool
}

// View is the display-ready snapshot handed to consumers.
type View struct {
	MapPosition mgl64.Vec2
	Rotation    float64
	Color       colorful.Color
	DisplayName string
	HideIcon    bool
	Scale       float64
	IsArea      bool
	AreaRadius  float64
}

func (r *Record) view() View {
	return View{
		MapPosition: r.MapPosition,
		Rotation:    r.Rotation,
		Color:       r.Color,
		DisplayName: r.DisplayName,
		HideIcon:    r.HideIcon,
		Scale:       r.Scale,
		IsArea:      r.IsArea,
		AreaRadius:  r.AreaRadius,
	}
}

// Entity returns the host handle the record mirrors.
func (r *Record) Entity() host.Entity { return r.entity }

func (r *Record) sampleWorld(now time.Time) {
	r.WorldPosition = r.loc.Position()
	r.LastWorldUpdate = now
}

func (r *Record) sampleOrientation(mirrored bool) {
	fwd, aim := r.loc.Orientation()
	r.Forward = fwd
	r.Aim = aim
	if yaw, ok := headingDegrees(fwd); ok {
		if mirrored {
			yaw = -yaw
		}
		r.Rotation = yaw
	}
}

// headingDegrees returns the map heading of a forward vector: 0 is +Z
// (map up), 90 is +X. Vertical or zero vectors have no heading.
func headingDegrees(fwd mgl64.Vec3) (float64, bool) {
	flat := mgl64.Vec2{fwd.X(), fwd.Z()}
	if flat.Len() < 1e-9 {
		return 0, false
	}
	return mgl64.RadToDeg(math.Atan2(flat.X(), flat.Y())), true
}

// farTint pulls far-band colours towards grey so distant icons read as distant.
var farTint = colorful.Color{R: 0.5, G: 0.5, B: 0.5}

func tintForTier(c colorful.Color, t Tier) colorful.Color {
	if t == TierFar {
		return c.BlendLab(farTint, 0.35).Clamped()
	}
	return c
}
