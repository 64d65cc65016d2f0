package metadata

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/math"
)

/** @brief The largest slot index an entity pool can hand out. */
const MaxEntityIndex uint32 = 1<<20 - 1

/**
 * @brief The slot index of an entity. A removed id is handed out again by
 * the next create on the same pool.
 */
type EntityID uint32

/** @brief Returned when an entity could not be created. */
const InvalidEntityID EntityID = 0xFFFFFFFF

func (id EntityID) IsValid() bool {
	return id != InvalidEntityID
}

func (id EntityID) String() string {
	if !id.IsValid() {
		return "entity(invalid)"
	}
	return fmt.Sprintf("entity(%d)", uint32(id))
}

/**
 * @brief An entity id paired with the generation of its slot. Resolving a
 * handle fails once the slot has been removed, even if it was reused since.
 */
type EntityHandle struct {
	ID         EntityID
	Generation uint32
}

/**
 * @brief A drawable instance of a mesh. Slot data stays stale after removal
 * until the slot is reused. Generation counts removals of the slot.
 */
type Entity struct {
	MeshID     uint32
	Transform  math.Mat4
	Active     bool
	Generation uint32
}
