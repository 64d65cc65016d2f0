package systems

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/containers"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// MeshCounter bounds the mesh ids an entity may reference.
type MeshCounter interface {
	MeshCount() uint32
}

// EntityPool is a sparse set of drawable instances. Removed slots go on a
// LIFO free list and Create hands out the most recently removed id first.
// Each removal bumps the slot generation, which Handle and Resolve use to
// detect stale references.
type EntityPool struct {
	name     string
	meshes   MeshCounter
	entities []metadata.Entity
	free     *containers.Stack[uint32]
	active   int
}

func NewEntityPool(name string, meshes MeshCounter) *EntityPool {
	return &EntityPool{
		name:   name,
		meshes: meshes,
		free:   containers.NewStack[uint32](),
	}
}

/**
 * @brief Creates an entity drawing the given mesh with an identity transform.
 *
 * @param meshID A mesh id returned by the geometry pool.
 * @return The new entity id, or InvalidEntityID with ErrInvalidMesh.
 */
func (ep *EntityPool) Create(meshID uint32) (metadata.EntityID, error) {
	if meshID >= ep.meshes.MeshCount() {
		err := fmt.Errorf("func Create - %s pool: %w (mesh=%d, count=%d)", ep.name, core.ErrInvalidMesh, meshID, ep.meshes.MeshCount())
		core.LogError(err.Error())
		return metadata.InvalidEntityID, err
	}

	var index uint32
	if slot, ok := ep.free.Pop(); ok {
		index = slot
	} else {
		if uint32(len(ep.entities)) > metadata.MaxEntityIndex {
			err := fmt.Errorf("func Create - %s pool: %w (capacity %d reached)", ep.name, core.ErrAllocation, metadata.MaxEntityIndex+1)
			core.LogError(err.Error())
			return metadata.InvalidEntityID, err
		}
		index = uint32(len(ep.entities))
		ep.entities = append(ep.entities, metadata.Entity{})
	}

	e := &ep.entities[index]
	e.MeshID = meshID
	e.Transform = math.NewMat4Identity()
	e.Active = true
	ep.active++

	return metadata.EntityID(index), nil
}

// lookup returns the live slot addressed by id, or nil.
func (ep *EntityPool) lookup(id metadata.EntityID) *metadata.Entity {
	if !id.IsValid() {
		return nil
	}
	index := uint32(id)
	if index >= uint32(len(ep.entities)) {
		return nil
	}
	e := &ep.entities[index]
	if !e.Active {
		return nil
	}
	return e
}

// Handle tags a live id with the current generation of its slot.
func (ep *EntityPool) Handle(id metadata.EntityID) (metadata.EntityHandle, bool) {
	e := ep.lookup(id)
	if e == nil {
		return metadata.EntityHandle{ID: metadata.InvalidEntityID}, false
	}
	return metadata.EntityHandle{ID: id, Generation: e.Generation}, true
}

// Resolve returns the id of a handle whose slot has not been removed since
// the handle was taken.
func (ep *EntityPool) Resolve(h metadata.EntityHandle) (metadata.EntityID, bool) {
	e := ep.lookup(h.ID)
	if e == nil || e.Generation != h.Generation {
		return metadata.InvalidEntityID, false
	}
	return h.ID, true
}

/**
 * @brief Replaces the transform of a live entity. Out of range and
 * inactive ids are ignored.
 */
func (ep *EntityPool) SetTransform(id metadata.EntityID, transform math.Mat4) {
	if e := ep.lookup(id); e != nil {
		e.Transform = transform
	}
}

/**
 * @brief Releases a live entity. The slot keeps its data until reused.
 * Out of range and inactive ids are ignored.
 */
func (ep *EntityPool) Remove(id metadata.EntityID) {
	e := ep.lookup(id)
	if e == nil {
		return
	}
	e.Active = false
	e.Generation++
	ep.active--
	ep.free.Push(uint32(id))
}

// Get returns a copy of a live entity.
func (ep *EntityPool) Get(id metadata.EntityID) (metadata.Entity, bool) {
	if e := ep.lookup(id); e != nil {
		return *e, true
	}
	return metadata.Entity{}, false
}

// Each visits live entities in storage order.
func (ep *EntityPool) Each(fn func(id metadata.EntityID, e *metadata.Entity)) {
	for i := range ep.entities {
		e := &ep.entities[i]
		if e.Active {
			fn(metadata.EntityID(i), e)
		}
	}
}

func (ep *EntityPool) ActiveCount() int {
	return ep.active
}

// Len is the number of slots, live or free.
func (ep *EntityPool) Len() int {
	return len(ep.entities)
}

// Clear releases every live entity. Slots are pushed so that the lowest
// index is handed out first.
func (ep *EntityPool) Clear() {
	ep.free.Clear()
	for i := len(ep.entities) - 1; i >= 0; i-- {
		e := &ep.entities[i]
		if e.Active {
			e.Active = false
			e.Generation++
		}
		ep.free.Push(uint32(i))
	}
	ep.active = 0
}
