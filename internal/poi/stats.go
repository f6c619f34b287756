package poi

import "github.com/l1jgo/poitrack/internal/telemetry"

// Stats is an aggregate view of the tracked population.
type Stats struct {
	Tracked  int // confirmed records
	Pending  int // registrations still settling
	Active   int // records in the active index
	Updating int // records with a running task
	Tasks    int // live task instances
	PerTier  map[Tier]int
}

func (t *Tracker) Stats() Stats {
	s := Stats{
		Tracked: t.registry.Len(),
		Pending: t.registry.Pending(),
		Active:  len(t.active),
		Tasks:   t.sched.Live(),
		PerTier: make(map[Tier]int, 4),
	}
	t.registry.Each(func(r *Record) {
		s.PerTier[r.Tier]++
		if r.Updating {
			s.Updating++
		}
	})
	return s
}

func (t *Tracker) publishStats() {
	if t.metrics == nil {
		return
	}
	s := t.Stats()
	perTier := make(map[string]int, len(s.PerTier))
	for tier, n := range s.PerTier {
		perTier[tier.String()] = n
	}
	t.metrics.ObservePopulation(telemetry.Population{
		Tracked:  s.Tracked,
		Pending:  s.Pending,
		Active:   s.Active,
		Updating: s.Updating,
		PerTier:  perTier,
	})
}
