package poi

import (
	"time"

	"github.com/l1jgo/poitrack/internal/host"
	"github.com/l1jgo/poitrack/internal/telemetry"
)

// Projector turns a record's world position into a map position through the
// host transform. The only cache is the record's last successful value; a
// failed projection clears HasValidMapPosition instead of publishing a stale
// or zeroed position.
type Projector struct {
	transform host.Transform
	metrics   *telemetry.Metrics
}

func NewProjector(transform host.Transform, metrics *telemetry.Metrics) *Projector {
	return &Projector{transform: transform, metrics: metrics}
}

// Project refreshes r.MapPosition for surface. A nil surface means no
// display is mounted and counts as a failure.
func (p *Projector) Project(r *Record, surface host.Surface, now time.Time) bool {
	if surface == nil || p.transform == nil {
		return p.fail(r)
	}
	pos, ok := p.transform.TryProject(r.WorldPosition, surface.Region())
	if !ok {
		return p.fail(r)
	}
	if surface.Mirrored() {
		pos[0] = -pos[0]
	}
	r.MapPosition = pos
	r.HasValidMapPosition = true
	r.LastMapUpdate = now
	return true
}

func (p *Projector) fail(r *Record) bool {
	r.HasValidMapPosition = false
	p.metrics.ProjectionFailed()
	return false
}
