package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/poitrack/internal/host"
)

// Surface is the simulated map display.
type Surface struct {
	region   host.RegionID
	mirrored bool
}

func (s *Surface) Region() host.RegionID { return s.region }
func (s *Surface) Mirrored() bool        { return s.mirrored }

// SetMirrored flips the display's x axis.
func (s *Surface) SetMirrored(m bool) { s.mirrored = m }

// Transform maps the square world of side size, centred on the origin, to
// normalized [0,1] map coordinates of a single region. Positions outside the
// square have no map position.
type Transform struct {
	region host.RegionID
	size   float64
}

func (t *Transform) TryProject(world mgl64.Vec3, region host.RegionID) (mgl64.Vec2, bool) {
	if region != t.region || t.size <= 0 {
		return mgl64.Vec2{}, false
	}
	half := t.size / 2
	u := (world.X() + half) / t.size
	v := (world.Z() + half) / t.size
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return mgl64.Vec2{}, false
	}
	return mgl64.Vec2{u, v}, true
}
