package math

func TransformCreate() *Transform {
	return &Transform{
		Scale:   NewVec3One(),
		IsDirty: true,
		Local:   NewMat4Identity(),
	}
}

func TransformFromPosition(position Vec3) *Transform {
	t := TransformCreate()
	t.Position = position
	return t
}

func (t *Transform) SetPosition(position Vec3) {
	t.Position = position
	t.IsDirty = true
}

func (t *Transform) Translate(translation Vec3) {
	t.Position = t.Position.Add(translation)
	t.IsDirty = true
}

// SetRotation takes euler angles in degrees.
func (t *Transform) SetRotation(degrees Vec3) {
	t.Rotation = degrees
	t.IsDirty = true
}

func (t *Transform) Rotate(degrees Vec3) {
	t.Rotation = t.Rotation.Add(degrees)
	t.IsDirty = true
}

func (t *Transform) SetScale(scale Vec3) {
	t.Scale = scale
	t.IsDirty = true
}

// GetLocal returns translation * rotation * scale.
func (t *Transform) GetLocal() Mat4 {
	if t.IsDirty {
		r := NewMat4EulerXYZ(DegToRad(t.Rotation.X), DegToRad(t.Rotation.Y), DegToRad(t.Rotation.Z))
		t.Local = NewMat4Translation(t.Position).Mul(r).Mul(NewMat4Scale(t.Scale))
		t.IsDirty = false
	}
	return t.Local
}
