package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityPoolGenerations(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	require.False(t, a.IsZero())
	require.True(t, p.Alive(a))
	assert.Equal(t, 1, p.Live())

	p.Destroy(a)
	assert.False(t, p.Alive(a))
	assert.Equal(t, 0, p.Live())

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index(), "slot is recycled")
	assert.Equal(t, a.Generation()+1, b.Generation())
	assert.NotEqual(t, a, b)

	p.Destroy(a) // stale id
	assert.True(t, p.Alive(b))
}

func TestWorldDeferredDestroy(t *testing.T) {
	w := NewWorld()
	pos := NewPtrComponentStore[int]()
	w.Registry().Register(pos)

	id := w.CreateEntity()
	v := 7
	pos.Set(id, &v)

	var destroyed []EntityID
	w.OnDestroy(func(id EntityID) { destroyed = append(destroyed, id) })

	w.MarkForDestruction(id)
	w.MarkForDestruction(id)
	assert.True(t, w.Alive(id), "destroy is deferred until flush")

	assert.Equal(t, 1, w.FlushDestroyQueue())
	assert.False(t, w.Alive(id))
	assert.False(t, pos.Has(id))
	assert.Equal(t, []EntityID{id}, destroyed)
}

func TestEach2VisitsIntersection(t *testing.T) {
	a := NewPtrComponentStore[int]()
	b := NewPtrComponentStore[string]()
	one, two, three := NewEntityID(1, 0), NewEntityID(2, 0), NewEntityID(3, 0)
	x, y, z := 1, 2, 3
	a.Set(one, &x)
	a.Set(two, &y)
	a.Set(three, &z)
	s := "two"
	b.Set(two, &s)

	var seen []EntityID
	Each2(a, b, func(id EntityID, _ *int, _ *string) { seen = append(seen, id) })
	assert.Equal(t, []EntityID{two}, seen)
}

func TestStoreEachAllowsRemoval(t *testing.T) {
	s := NewPtrComponentStore[int]()
	for i := uint32(1); i <= 4; i++ {
		v := int(i)
		s.Set(NewEntityID(i, 0), &v)
	}
	s.Each(func(id EntityID, _ *int) { s.Remove(id) })
	assert.Equal(t, 0, s.Len())
}
