package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/poitrack/internal/core/ecs"
	"github.com/l1jgo/poitrack/internal/host"
)

// Handle is the host handle given to the tracker. It stays safe to call
// after the entity is destroyed: Valid turns false and the accessors
// return zero values.
type Handle struct {
	w  *World
	id ecs.EntityID
}

var (
	_ host.Entity      = (*Handle)(nil)
	_ host.Locatable   = (*Handle)(nil)
	_ host.Describable = (*Handle)(nil)
)

func (h *Handle) ID() ecs.EntityID { return h.id }
func (h *Handle) Valid() bool      { return h.w.ecs.Alive(h.id) }

func (h *Handle) Active() bool {
	l, ok := h.w.lives.Get(h.id)
	return ok && l.Active
}

func (h *Handle) Position() mgl64.Vec3 {
	if b, ok := h.w.bodies.Get(h.id); ok {
		return b.Pos
	}
	return mgl64.Vec3{}
}

func (h *Handle) Orientation() (mgl64.Vec3, mgl64.Vec3) {
	if b, ok := h.w.bodies.Get(h.id); ok {
		return b.Fwd, b.Aim
	}
	return mgl64.Vec3{}, mgl64.Vec3{}
}

func (h *Handle) Descriptor() host.Descriptor {
	if i, ok := h.w.infos.Get(h.id); ok {
		return i.Desc
	}
	return host.Descriptor{}
}
