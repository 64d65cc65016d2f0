package math

const (
	minSegments = 3
	maxSegments = 1024
)

// GenerateBox builds an axis aligned box centred on the origin with four
// vertices per face, 24 vertices and 36 indices in total.
func GenerateBox(width, height, length float32, colour Vec3) ([]Vertex3D, []uint32) {
	hw, hh, hl := width*0.5, height*0.5, length*0.5
	vertices := make([]Vertex3D, 0, 24)
	indices := make([]uint32, 0, 36)

	face := func(p0, p1, p2, p3, n Vec3) {
		base := uint32(len(vertices))
		vertices = append(vertices,
			Vertex3D{Position: p0, Normal: n, Colour: colour, Texcoord: Vec2{0, 1}},
			Vertex3D{Position: p1, Normal: n, Colour: colour, Texcoord: Vec2{1, 1}},
			Vertex3D{Position: p2, Normal: n, Colour: colour, Texcoord: Vec2{1, 0}},
			Vertex3D{Position: p3, Normal: n, Colour: colour, Texcoord: Vec2{0, 0}},
		)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	face(Vec3{-hw, -hh, hl}, Vec3{hw, -hh, hl}, Vec3{hw, hh, hl}, Vec3{-hw, hh, hl}, Vec3{0, 0, 1})
	face(Vec3{hw, -hh, -hl}, Vec3{-hw, -hh, -hl}, Vec3{-hw, hh, -hl}, Vec3{hw, hh, -hl}, Vec3{0, 0, -1})
	face(Vec3{-hw, hh, hl}, Vec3{hw, hh, hl}, Vec3{hw, hh, -hl}, Vec3{-hw, hh, -hl}, Vec3{0, 1, 0})
	face(Vec3{-hw, -hh, -hl}, Vec3{hw, -hh, -hl}, Vec3{hw, -hh, hl}, Vec3{-hw, -hh, hl}, Vec3{0, -1, 0})
	face(Vec3{hw, -hh, hl}, Vec3{hw, -hh, -hl}, Vec3{hw, hh, -hl}, Vec3{hw, hh, hl}, Vec3{1, 0, 0})
	face(Vec3{-hw, -hh, -hl}, Vec3{-hw, -hh, hl}, Vec3{-hw, hh, hl}, Vec3{-hw, hh, -hl}, Vec3{-1, 0, 0})

	return vertices, indices
}

// GeneratePlane builds a quad on the XZ plane facing +Y.
func GeneratePlane(width, height float32, colour Vec3) ([]Vertex3D, []uint32) {
	hw, hh := width*0.5, height*0.5
	n := NewVec3Up()
	vertices := []Vertex3D{
		{Position: Vec3{-hw, 0, hh}, Normal: n, Colour: colour, Texcoord: Vec2{0, 0}},
		{Position: Vec3{hw, 0, hh}, Normal: n, Colour: colour, Texcoord: Vec2{1, 0}},
		{Position: Vec3{hw, 0, -hh}, Normal: n, Colour: colour, Texcoord: Vec2{1, 1}},
		{Position: Vec3{-hw, 0, -hh}, Normal: n, Colour: colour, Texcoord: Vec2{0, 1}},
	}
	return vertices, []uint32{0, 1, 2, 0, 2, 3}
}

// GenerateSphere builds a UV sphere with (segments+1)*(rings+1) vertices.
func GenerateSphere(radius float32, segments, rings int, colour Vec3) ([]Vertex3D, []uint32) {
	segments = Clamp(segments, minSegments, maxSegments)
	rings = Clamp(rings, 2, maxSegments)

	vertices := make([]Vertex3D, 0, (segments+1)*(rings+1))
	for ring := 0; ring <= rings; ring++ {
		phi := K_PI * float32(ring) / float32(rings)
		for seg := 0; seg <= segments; seg++ {
			theta := K_PI_2 * float32(seg) / float32(segments)
			n := Vec3{ksin(phi) * kcos(theta), kcos(phi), ksin(phi) * ksin(theta)}
			vertices = append(vertices, Vertex3D{
				Position: n.MulScalar(radius),
				Normal:   n,
				Colour:   colour,
				Texcoord: Vec2{float32(seg) / float32(segments), float32(ring) / float32(rings)},
			})
		}
	}
	return vertices, gridIndices(rings, segments)
}

// GenerateCylinder builds an open side wall plus two triangle fan caps.
func GenerateCylinder(radius, height float32, segments int, colour Vec3) ([]Vertex3D, []uint32) {
	segments = Clamp(segments, minSegments, maxSegments)
	halfH := height * 0.5

	var vertices []Vertex3D
	var indices []uint32

	for seg := 0; seg <= segments; seg++ {
		theta := K_PI_2 * float32(seg) / float32(segments)
		c, s := kcos(theta), ksin(theta)
		n := Vec3{c, 0, s}
		u := float32(seg) / float32(segments)
		vertices = append(vertices,
			Vertex3D{Position: Vec3{radius * c, -halfH, radius * s}, Normal: n, Colour: colour, Texcoord: Vec2{u, 1}},
			Vertex3D{Position: Vec3{radius * c, halfH, radius * s}, Normal: n, Colour: colour, Texcoord: Vec2{u, 0}},
		)
	}
	for seg := 0; seg < segments; seg++ {
		bl := uint32(seg * 2)
		tl, br, tr := bl+1, bl+2, bl+3
		indices = append(indices, bl, tl, br, tl, tr, br)
	}

	capFan := func(y, ny float32, flip bool) {
		centre := uint32(len(vertices))
		n := Vec3{0, ny, 0}
		vertices = append(vertices, Vertex3D{Position: Vec3{0, y, 0}, Normal: n, Colour: colour, Texcoord: Vec2{0.5, 0.5}})
		rim := uint32(len(vertices))
		for seg := 0; seg < segments; seg++ {
			theta := K_PI_2 * float32(seg) / float32(segments)
			c, s := kcos(theta), ksin(theta)
			vertices = append(vertices, Vertex3D{
				Position: Vec3{radius * c, y, radius * s},
				Normal:   n,
				Colour:   colour,
				Texcoord: Vec2{0.5 + c*0.5, 0.5 + s*0.5},
			})
		}
		for seg := 0; seg < segments; seg++ {
			cur := rim + uint32(seg)
			next := rim + uint32((seg+1)%segments)
			if flip {
				indices = append(indices, centre, cur, next)
			} else {
				indices = append(indices, centre, next, cur)
			}
		}
	}
	capFan(halfH, 1, false)
	capFan(-halfH, -1, true)

	return vertices, indices
}

// GenerateCapsule builds two hemispheres joined by a cylindrical body.
// rings is split evenly between the hemispheres.
func GenerateCapsule(radius, height float32, segments, rings int, colour Vec3) ([]Vertex3D, []uint32) {
	segments = Clamp(segments, minSegments, maxSegments)
	halfRings := Clamp(rings/2, 1, maxSegments)
	halfH := height * 0.5
	totalRows := halfRings*2 + 1

	var vertices []Vertex3D
	row := func(phi, yOffset float32, r int) {
		for seg := 0; seg <= segments; seg++ {
			theta := K_PI_2 * float32(seg) / float32(segments)
			n := Vec3{ksin(phi) * kcos(theta), kcos(phi), ksin(phi) * ksin(theta)}
			vertices = append(vertices, Vertex3D{
				Position: n.MulScalar(radius).Add(Vec3{0, yOffset, 0}),
				Normal:   n,
				Colour:   colour,
				Texcoord: Vec2{float32(seg) / float32(segments), float32(r) / float32(totalRows)},
			})
		}
	}

	for r := 0; r <= halfRings; r++ {
		row(K_HALF_PI*float32(r)/float32(halfRings), halfH, r)
	}
	// bottom equator, closes the body
	row(K_HALF_PI, -halfH, halfRings+1)
	for r := 1; r <= halfRings; r++ {
		row(K_HALF_PI+K_HALF_PI*float32(r)/float32(halfRings), -halfH, halfRings+1+r)
	}

	return vertices, gridIndices(totalRows, segments)
}

// gridIndices triangulates rows x segments quads laid out with segments+1
// vertices per row.
func gridIndices(rows, segments int) []uint32 {
	indices := make([]uint32, 0, rows*segments*6)
	stride := uint32(segments + 1)
	for r := 0; r < rows; r++ {
		for seg := 0; seg < segments; seg++ {
			cur := uint32(r)*stride + uint32(seg)
			next := cur + stride
			indices = append(indices, cur, cur+1, next, cur+1, next+1, next)
		}
	}
	return indices
}
