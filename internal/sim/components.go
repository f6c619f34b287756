package sim

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/poitrack/internal/host"
)

// Body is an entity's kinematic state.
type Body struct {
	Pos mgl64.Vec3
	Vel mgl64.Vec3 // metres per second
	Fwd mgl64.Vec3
	Aim mgl64.Vec3
}

// Life holds the host-side lifecycle flags.
type Life struct {
	Active     bool
	DespawnAt  time.Time // zero = lives forever
	NextToggle time.Time // zero = never toggles
}

// Info is what the entity reports through its descriptor.
type Info struct {
	Desc host.Descriptor
}
