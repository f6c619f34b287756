package data

import (
	"fmt"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/l1jgo/poitrack/internal/host"
)

// Style is the per-class presentation default applied to tracked entities.
type Style struct {
	Class       host.Class
	Color       colorful.Color
	Label       string  // shown when the entity has no display name
	Scale       float64 // icon scale multiplier
	Priority    bool    // never auto-hidden by distance
	AutoHideFar bool    // hide the icon while in the far band
}

// StyleTable holds class styles indexed by class.
type StyleTable struct {
	styles   map[host.Class]Style
	fallback Style
}

// Lookup returns the style for class, or the unknown-class style.
func (t *StyleTable) Lookup(class host.Class) Style {
	if t == nil {
		return defaultFallback
	}
	if s, ok := t.styles[class]; ok {
		return s
	}
	return t.fallback
}

// Count returns the number of styles loaded.
func (t *StyleTable) Count() int {
	if t == nil {
		return 0
	}
	return len(t.styles)
}

var defaultFallback = Style{
	Class: host.ClassUnknown,
	Color: colorful.Color{R: 0.6, G: 0.6, B: 0.6},
	Label: "?",
	Scale: 1,
}

type styleYAMLEntry struct {
	Class       host.Class `yaml:"class"`
	Color       string     `yaml:"color"` // #rrggbb
	Label       string     `yaml:"label"`
	Scale       float64    `yaml:"scale"`
	Priority    bool       `yaml:"priority"`
	AutoHideFar bool       `yaml:"auto_hide_far"`
}

type styleListFile struct {
	Styles []styleYAMLEntry `yaml:"styles"`
}

// LoadStyleTable loads class styles from a YAML file.
func LoadStyleTable(path string) (*StyleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class_styles: %w", err)
	}
	return ParseStyleTable(raw)
}

// ParseStyleTable decodes a class style document.
func ParseStyleTable(raw []byte) (*StyleTable, error) {
	var f styleListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse class_styles: %w", err)
	}

	t := &StyleTable{styles: make(map[host.Class]Style, len(f.Styles)), fallback: defaultFallback}
	for _, e := range f.Styles {
		s := Style{
			Class:       e.Class,
			Color:       defaultFallback.Color,
			Label:       NormalizeName(e.Label),
			Scale:       e.Scale,
			Priority:    e.Priority,
			AutoHideFar: e.AutoHideFar,
		}
		if e.Color != "" {
			c, err := colorful.Hex(e.Color)
			if err != nil {
				return nil, fmt.Errorf("class_styles %s: %w", e.Class, err)
			}
			s.Color = c
		}
		if s.Scale <= 0 {
			s.Scale = 1
		}
		if _, dup := t.styles[e.Class]; dup {
			return nil, fmt.Errorf("class_styles: duplicate class %s", e.Class)
		}
		t.styles[e.Class] = s
		if e.Class == host.ClassUnknown {
			t.fallback = s
		}
	}
	return t, nil
}

// DefaultStyleTable is used when no style file is configured.
func DefaultStyleTable() *StyleTable {
	hex := func(s string) colorful.Color {
		c, _ := colorful.Hex(s)
		return c
	}
	styles := []Style{
		{Class: host.ClassMain, Color: hex("#3cb4ff"), Label: "Player", Scale: 1.2, Priority: true},
		{Class: host.ClassPet, Color: hex("#7de87d"), Label: "Pet", Scale: 0.8, Priority: true},
		{Class: host.ClassEnemy, Color: hex("#e84a4a"), Label: "Enemy", Scale: 1, AutoHideFar: true},
		{Class: host.ClassBoss, Color: hex("#b040ff"), Label: "Boss", Scale: 1.5, Priority: true},
		{Class: host.ClassNPC, Color: hex("#ffd24a"), Label: "NPC", Scale: 1, AutoHideFar: true},
		{Class: host.ClassNeutral, Color: hex("#c8c8c8"), Label: "Neutral", Scale: 0.8, AutoHideFar: true},
	}
	t := &StyleTable{styles: make(map[host.Class]Style, len(styles)), fallback: defaultFallback}
	for _, s := range styles {
		t.styles[s.Class] = s
	}
	return t
}
