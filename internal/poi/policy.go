package poi

import "github.com/l1jgo/poitrack/internal/host"

// IconContext is what an IconPolicy sees when a record changes band.
type IconContext struct {
	Class          host.Class
	Tier           Tier
	Distance       float64
	Priority       bool // class style marks it as always shown
	AutoHideFar    bool // class style asks to hide it in the far band
	DescriptorHide bool // the entity itself asked to be hidden
}

// IconPolicy decides whether a record's icon is hidden.
type IconPolicy interface {
	IconHidden(ctx IconContext) bool
}

// DefaultIconPolicy honours the descriptor and auto-hides distant
// non-priority classes.
type DefaultIconPolicy struct{}

func (DefaultIconPolicy) IconHidden(ctx IconContext) bool {
	if ctx.DescriptorHide {
		return true
	}
	return ctx.Tier == TierFar && ctx.AutoHideFar && !ctx.Priority
}
