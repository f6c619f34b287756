package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/poitrack/internal/host"
)

const sampleStyles = `
styles:
  - class: boss
    color: "#ff0000"
    label: Boss
    scale: 1.5
    priority: true
  - class: enemy
    color: "#00ff00"
    auto_hide_far: true
  - class: unknown
    color: "#101010"
    label: "？"
`

func TestParseStyleTable(t *testing.T) {
	tbl, err := ParseStyleTable([]byte(sampleStyles))
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Count())

	boss := tbl.Lookup(host.ClassBoss)
	assert.True(t, boss.Priority)
	assert.Equal(t, 1.5, boss.Scale)
	assert.Equal(t, "#ff0000", boss.Color.Hex())

	enemy := tbl.Lookup(host.ClassEnemy)
	assert.True(t, enemy.AutoHideFar)
	assert.Equal(t, 1.0, enemy.Scale, "missing scale defaults to 1")

	pet := tbl.Lookup(host.ClassPet)
	assert.Equal(t, host.ClassUnknown, pet.Class, "missing class falls back to the unknown style")
	assert.Equal(t, "#101010", pet.Color.Hex())
	assert.Equal(t, "?", pet.Label, "full-width label is folded")
}

func TestParseStyleTableErrors(t *testing.T) {
	_, err := ParseStyleTable([]byte("styles:\n  - class: dragon\n"))
	assert.Error(t, err)

	_, err = ParseStyleTable([]byte("styles:\n  - class: npc\n    color: orange\n"))
	assert.Error(t, err)

	_, err = ParseStyleTable([]byte("styles:\n  - class: npc\n  - class: npc\n"))
	assert.ErrorContains(t, err, "duplicate")
}

func TestDefaultStyleTable(t *testing.T) {
	tbl := DefaultStyleTable()
	for _, c := range host.Classes() {
		s := tbl.Lookup(c)
		assert.Greater(t, s.Scale, 0.0, c.String())
	}
	assert.True(t, tbl.Lookup(host.ClassBoss).Priority)
	assert.True(t, tbl.Lookup(host.ClassEnemy).AutoHideFar)

	var nilTable *StyleTable
	assert.Equal(t, host.ClassUnknown, nilTable.Lookup(host.ClassBoss).Class)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "", NormalizeName(""))
	assert.Equal(t, "Goblin 3", NormalizeName("  Ｇｏｂｌｉｎ　３\n"))
	assert.Equal(t, "\u00e9", NormalizeName("e\u0301"), "composed to NFC")
	long := "abcdefghijklmnopqrstuvwxyz0123456789"
	assert.Len(t, []rune(NormalizeName(long)), maxNameRunes)
}

func TestShippedStylesMatchDefaults(t *testing.T) {
	tbl, err := LoadStyleTable("../../data/yaml/class_styles.yaml")
	require.NoError(t, err)
	def := DefaultStyleTable()
	for _, c := range host.Classes() {
		got, want := tbl.Lookup(c), def.Lookup(c)
		assert.Equal(t, want.Priority, got.Priority, c.String())
		assert.Equal(t, want.AutoHideFar, got.AutoHideFar, c.String())
		assert.InDelta(t, want.Scale, got.Scale, 1e-9, c.String())
		assert.Equal(t, want.Color.Hex(), got.Color.Hex(), c.String())
	}
}
