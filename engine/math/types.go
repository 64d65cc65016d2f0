package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/**
 * @brief a 4x4 matrix, typically used to represent object transformations.
 * Elements are stored column-major, so Data[12:15] holds the translation and
 * the array can be copied to a shader uniform as-is.
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/**
 * @brief Represents a single vertex in 3D space. The field order matches the
 * vertex input locations 0..3 of the scene pipelines.
 */
type Vertex3D struct {
	/** @brief The position of the vertex */
	Position Vec3
	/** @brief The normal of the vertex. */
	Normal Vec3
	/** @brief The base colour of the vertex. */
	Colour Vec3
	/** @brief The texture coordinate of the vertex. */
	Texcoord Vec2
}

/**
 * @brief Represents a single screen-space vertex of the overlay pass.
 */
type Vertex2D struct {
	/** @brief The position of the vertex in pixels. */
	Position Vec2
	/** @brief The texture coordinate of the vertex. */
	Texcoord Vec2
	/** @brief The colour of the vertex. */
	Colour Vec4
}

/**
 * @brief Represents the transform of an object in the world.
 * Rotation holds euler angles in degrees, applied X then Y then Z.
 */
type Transform struct {
	/** @brief The position in the world. */
	Position Vec3
	/** @brief The rotation in degrees about each axis. */
	Rotation Vec3
	/** @brief The scale. */
	Scale Vec3
	/** @brief Indicates if the local matrix needs to be recomputed. */
	IsDirty bool
	/** @brief The cached local transformation matrix. */
	Local Mat4
}
