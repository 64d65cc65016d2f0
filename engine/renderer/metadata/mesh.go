package metadata

import "github.com/spaghettifunk/lumen/engine/math"

/** @brief Returned in place of a mesh or material id when the request was rejected. */
const InvalidID uint32 = 4294967295

/**
 * @brief A range of the shared geometry arena. Indices are local to the
 * mesh; VertexOffset is added to them at draw time.
 */
type Mesh struct {
	VertexOffset int32
	IndexOffset  uint32
	IndexCount   uint32
	MaterialID   uint32
}

/**
 * @brief Vertex and index data produced by loaders and primitive generators.
 */
type MeshData struct {
	Name     string
	Vertices []math.Vertex3D
	Indices  []uint32
	// BaseColourImage holds encoded image bytes for the base colour texture, if any.
	BaseColourImage []byte
}
