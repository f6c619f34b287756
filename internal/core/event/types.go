package event

import (
	"github.com/l1jgo/poitrack/internal/core/ecs"
	"github.com/l1jgo/poitrack/internal/host"
)

// Host-side notifications consumed by the tracker.

// EntityRegistered is emitted when the host spawns a trackable entity.
type EntityRegistered struct {
	Entity host.Entity
}

// EntityUnregistered is emitted when the host despawns an entity.
type EntityUnregistered struct {
	ID ecs.EntityID
}

// SceneChanged triggers a full teardown of tracked state.
type SceneChanged struct {
	Scene string
}

// SurfaceChanged mounts (or, with a nil Surface, unmounts) the display surface.
type SurfaceChanged struct {
	Surface host.Surface
}

// ObserverChanged replaces the entity distances are measured against.
type ObserverChanged struct {
	Observer host.Entity
}
