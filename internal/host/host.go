// Package host declares the contracts the tracker consumes from the game:
// entity handles, the world→map transform and the active display surface.
// Integrations implement these; the tracker never reaches into host types.
package host

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/l1jgo/poitrack/internal/core/ecs"
)

// RegionID identifies a map region (scene) a surface displays.
type RegionID int32

// Entity is the minimal handle the host hands out on registration.
type Entity interface {
	ID() ecs.EntityID
	// Valid reports whether the entity is still attached to the host's object graph.
	Valid() bool
	// Active mirrors the host's own active/inactive flag.
	Active() bool
}

// Locatable is the spatial capability a tracked entity must have.
type Locatable interface {
	Position() mgl64.Vec3
	// Orientation returns the body forward vector and the aim vector.
	Orientation() (forward, aim mgl64.Vec3)
}

// Describable is the presentation capability a tracked entity must have.
type Describable interface {
	Descriptor() Descriptor
}

// Descriptor is the entity's own description of how it should be shown.
type Descriptor struct {
	Class       Class
	DisplayName string
	// Color overrides the class style color when non-nil.
	Color    *colorful.Color
	HideIcon bool
	// Scale multiplies the class icon scale; zero means 1.
	Scale      float64
	IsArea     bool
	AreaRadius float64
}

// Transform projects world positions onto a region's map.
type Transform interface {
	// TryProject fails when region is not the one the position belongs to
	// or the region has no map.
	TryProject(world mgl64.Vec3, region RegionID) (mgl64.Vec2, bool)
}

// Surface is the display the map positions are computed for.
type Surface interface {
	Region() RegionID
	// Mirrored is true for flipped/minified views whose x axis is reversed.
	Mirrored() bool
}
