package systems

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type fakeUploader struct {
	calls    int
	vertices int
	indices  int
	err      error
}

func (fu *fakeUploader) UploadGeometry(vertices []math.Vertex3D, indices []uint32) error {
	fu.calls++
	if fu.err != nil {
		return fu.err
	}
	fu.vertices = len(vertices)
	fu.indices = len(indices)
	return nil
}

func box() ([]math.Vertex3D, []uint32) {
	return math.GenerateBox(1, 1, 1, math.NewVec3One())
}

func plane() ([]math.Vertex3D, []uint32) {
	return math.GeneratePlane(1, 1, math.NewVec3One())
}

func TestAddMeshOffsets(t *testing.T) {
	gp := NewGeometryPool()

	bv, bi := box()
	id, err := gp.AddMesh(bv, bi)
	if err != nil || id != 0 {
		t.Fatalf("box id:\nhave %d, %v\nwant 0, nil", id, err)
	}
	pv, pi := plane()
	id, err = gp.AddMesh(pv, pi)
	if err != nil || id != 1 {
		t.Fatalf("plane id:\nhave %d, %v\nwant 1, nil", id, err)
	}

	want := []metadata.Mesh{
		{VertexOffset: 0, IndexOffset: 0, IndexCount: 36},
		{VertexOffset: 24, IndexOffset: 36, IndexCount: 6},
	}
	for i, w := range want {
		have, ok := gp.Mesh(uint32(i))
		if !ok || have != w {
			t.Fatalf("mesh %d:\nhave %+v\nwant %+v", i, have, w)
		}
	}
}

func TestAddMeshPrefixSums(t *testing.T) {
	gp := NewGeometryPool()
	var vsum, isum int
	for k := 0; k < 10; k++ {
		v, i := math.GenerateSphere(1, 3+k, 2+k, math.NewVec3One())
		id, err := gp.AddMesh(v, i)
		if err != nil || id != uint32(k) {
			t.Fatalf("mesh %d id:\nhave %d, %v\nwant %d, nil", k, id, err, k)
		}
		m, _ := gp.Mesh(id)
		if m.VertexOffset != int32(vsum) || m.IndexOffset != uint32(isum) {
			t.Fatalf("mesh %d offsets:\nhave %d, %d\nwant %d, %d", k, m.VertexOffset, m.IndexOffset, vsum, isum)
		}
		vsum += len(v)
		isum += len(i)
	}
}

func TestAddMeshRejectsEmpty(t *testing.T) {
	gp := NewGeometryPool()
	bv, bi := box()
	gp.AddMesh(bv, bi)
	gp.Rebuild(&fakeUploader{})

	for _, tt := range []struct {
		name string
		v    []math.Vertex3D
		i    []uint32
	}{
		{"no vertices", nil, bi},
		{"no indices", bv, nil},
	} {
		id, err := gp.AddMesh(tt.v, tt.i)
		if id != metadata.InvalidID || !errors.Is(err, core.ErrEmptyMesh) {
			t.Fatalf("%s:\nhave %d, %v\nwant InvalidID, %v", tt.name, id, err, core.ErrEmptyMesh)
		}
	}
	if gp.MeshCount() != 1 || gp.VertexCount() != 24 || gp.IndexCount() != 36 || gp.IsDirty() {
		t.Fatalf("arena changed: meshes=%d vertices=%d indices=%d dirty=%v",
			gp.MeshCount(), gp.VertexCount(), gp.IndexCount(), gp.IsDirty())
	}
}

func TestRebuildClearsDirty(t *testing.T) {
	gp := NewGeometryPool()
	up := &fakeUploader{}

	if err := gp.Rebuild(up); err != nil || up.calls != 0 {
		t.Fatalf("rebuild of empty arena:\nhave calls=%d err=%v\nwant calls=0 err=nil", up.calls, err)
	}

	bv, bi := box()
	gp.AddMesh(bv, bi)
	pv, pi := plane()
	gp.AddMesh(pv, pi)
	if !gp.IsDirty() || gp.HasBuffers() {
		t.Fatalf("before rebuild: dirty=%v buffers=%v", gp.IsDirty(), gp.HasBuffers())
	}
	if err := gp.Rebuild(up); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if up.vertices != 28 || up.indices != 42 {
		t.Fatalf("uploaded:\nhave %d vertices, %d indices\nwant 28, 42", up.vertices, up.indices)
	}
	if gp.IsDirty() || !gp.HasBuffers() {
		t.Fatalf("after rebuild: dirty=%v buffers=%v", gp.IsDirty(), gp.HasBuffers())
	}
	gp.Rebuild(up)
	if up.calls != 1 {
		t.Fatalf("clean arena re-uploaded:\nhave %d calls\nwant 1", up.calls)
	}
}

func TestRebuildFailureKeepsDirty(t *testing.T) {
	gp := NewGeometryPool()
	bv, bi := box()
	gp.AddMesh(bv, bi)
	up := &fakeUploader{err: core.ErrAllocation}
	if err := gp.Rebuild(up); !errors.Is(err, core.ErrAllocation) {
		t.Fatalf("rebuild error:\nhave %v\nwant %v", err, core.ErrAllocation)
	}
	if !gp.IsDirty() || gp.HasBuffers() {
		t.Fatalf("after failed rebuild: dirty=%v buffers=%v", gp.IsDirty(), gp.HasBuffers())
	}
}

func newPoolWithMeshes(n int) (*GeometryPool, *EntityPool) {
	gp := NewGeometryPool()
	for i := 0; i < n; i++ {
		v, idx := box()
		gp.AddMesh(v, idx)
	}
	return gp, NewEntityPool("scene", gp)
}

func TestCreateEntityValidatesMesh(t *testing.T) {
	_, ep := newPoolWithMeshes(1)
	id, err := ep.Create(1)
	if id != metadata.InvalidEntityID || !errors.Is(err, core.ErrInvalidMesh) {
		t.Fatalf("create with bad mesh:\nhave %v, %v\nwant invalid, %v", id, err, core.ErrInvalidMesh)
	}
	if ep.Len() != 0 {
		t.Fatalf("slot allocated for rejected entity")
	}
}

func TestEntityLIFOReuse(t *testing.T) {
	_, ep := newPoolWithMeshes(2)
	a, _ := ep.Create(0)
	b, _ := ep.Create(0)
	ep.Create(1)
	ep.SetTransform(b, math.NewMat4Translation(math.NewVec3(1, 2, 3)))

	ep.Remove(a)
	ep.Remove(b)

	reused, err := ep.Create(1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if reused != b {
		t.Fatalf("reused id:\nhave %v\nwant %v (last removed)", reused, b)
	}
	e, ok := ep.Get(reused)
	if !ok || e.MeshID != 1 || e.Transform != math.NewMat4Identity() {
		t.Fatalf("reused entity:\nhave %+v, %v\nwant mesh 1 with identity transform", e, ok)
	}
	next, _ := ep.Create(0)
	if next != a {
		t.Fatalf("second reuse:\nhave %v\nwant %v", next, a)
	}
	if ep.ActiveCount() != 3 || ep.Len() != 3 {
		t.Fatalf("counts:\nhave active=%d len=%d\nwant 3, 3", ep.ActiveCount(), ep.Len())
	}
}

func TestRemoveThenCreateReturnsSameID(t *testing.T) {
	_, ep := newPoolWithMeshes(2)
	a, _ := ep.Create(0)
	ep.Create(0)
	ep.Remove(a)
	c, _ := ep.Create(1)
	if c != a {
		t.Fatalf("remove then create:\nhave id %d\nwant %d", uint32(c), uint32(a))
	}
}

func TestStaleHandleRejected(t *testing.T) {
	_, ep := newPoolWithMeshes(1)
	id, _ := ep.Create(0)
	old, ok := ep.Handle(id)
	if !ok {
		t.Fatalf("handle of live entity %v not issued", id)
	}
	if resolved, ok := ep.Resolve(old); !ok || resolved != id {
		t.Fatalf("resolve live handle:\nhave %v, %v\nwant %v, true", resolved, ok, id)
	}

	ep.Remove(id)
	fresh, _ := ep.Create(0)
	if fresh != id {
		t.Fatalf("reused id:\nhave %v\nwant %v", fresh, id)
	}
	if resolved, ok := ep.Resolve(old); ok {
		t.Fatalf("stale handle resolved to %v", resolved)
	}
	current, _ := ep.Handle(fresh)
	if current.Generation == old.Generation {
		t.Fatalf("generation not bumped by remove: %d", current.Generation)
	}
	if _, ok := ep.Handle(metadata.EntityID(42)); ok {
		t.Fatalf("handle issued for out of range id")
	}
}

func TestSetTransformInvalidIsNoop(t *testing.T) {
	_, ep := newPoolWithMeshes(1)
	id, _ := ep.Create(0)
	ep.Remove(id)

	m := math.NewMat4Scale(math.NewVec3(2, 2, 2))
	ep.SetTransform(metadata.EntityID(42), m)
	ep.SetTransform(metadata.InvalidEntityID, m)
	ep.SetTransform(id, m)

	count := 0
	ep.Each(func(metadata.EntityID, *metadata.Entity) { count++ })
	if count != 0 {
		t.Fatalf("active entities after no-ops:\nhave %d\nwant 0", count)
	}
}

func TestDoubleRemovePushesOnce(t *testing.T) {
	_, ep := newPoolWithMeshes(1)
	id, _ := ep.Create(0)
	ep.Remove(id)
	ep.Remove(id)
	a, _ := ep.Create(0)
	b, _ := ep.Create(0)
	if a == b {
		t.Fatalf("id %v handed out twice", a)
	}
}

func TestEachStorageOrder(t *testing.T) {
	_, ep := newPoolWithMeshes(1)
	ids := make([]metadata.EntityID, 4)
	for i := range ids {
		ids[i], _ = ep.Create(0)
	}
	ep.Remove(ids[2])
	ep.Remove(ids[0])
	ep.Create(0) // reuses slot 0

	var order []uint32
	ep.Each(func(id metadata.EntityID, _ *metadata.Entity) { order = append(order, uint32(id)) })
	want := []uint32{0, 1, 3}
	if len(order) != len(want) {
		t.Fatalf("visited:\nhave %v\nwant %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("visited:\nhave %v\nwant %v", order, want)
		}
	}
}

func TestEntityClear(t *testing.T) {
	_, ep := newPoolWithMeshes(1)
	a, _ := ep.Create(0)
	ep.Create(0)
	ep.Clear()
	if ep.ActiveCount() != 0 {
		t.Fatalf("active after clear:\nhave %d\nwant 0", ep.ActiveCount())
	}
	b, _ := ep.Create(0)
	if b != a {
		t.Fatalf("first id after clear:\nhave %v\nwant %v", b, a)
	}
}

func TestLightCountUsesOccupancy(t *testing.T) {
	ls := NewLightSet()
	if ls.Count() != 0 {
		t.Fatalf("empty set count:\nhave %d\nwant 0", ls.Count())
	}
	ls.Set(2, LightConfig{Type: metadata.LightTypePoint, Intensity: 0})
	if ls.Count() != 3 {
		t.Fatalf("zero intensity light at 2:\nhave %d\nwant 3", ls.Count())
	}
	ls.Set(0, LightConfig{Intensity: 1})
	ls.Clear(2)
	if ls.Count() != 1 {
		t.Fatalf("after clearing 2:\nhave %d\nwant 1", ls.Count())
	}
	if ls.Set(metadata.MaxLights, LightConfig{}) || ls.Set(-1, LightConfig{}) {
		t.Fatalf("out of range index accepted")
	}
}

func TestLightFill(t *testing.T) {
	ls := NewLightSet()
	ls.Set(1, LightConfig{
		Type:      metadata.LightTypeSpot,
		Position:  math.NewVec3(1, 2, 3),
		Direction: math.NewVec3(0, -1, 0),
		Colour:    math.NewVec3(1, 0.5, 0.25),
		Intensity: 2,
		Radius:    10,
	})
	var ubo metadata.LightUBO
	ls.Fill(&ubo, math.NewVec3(0, 0, 3))

	if ubo.NumLights != 2 || ubo.AmbientIntensity != metadata.DefaultAmbientIntensity {
		t.Fatalf("header:\nhave num=%d ambient=%v\nwant 2, %v", ubo.NumLights, ubo.AmbientIntensity, metadata.DefaultAmbientIntensity)
	}
	l := ubo.Lights[1]
	if l.Position.W != 0 || l.Direction.W != 0 || l.Colour.W != 2 || l.Type != metadata.LightTypeSpot {
		t.Fatalf("light:\nhave %+v", l)
	}
	if ubo.CameraPosition != math.NewVec4(0, 0, 3, 1) {
		t.Fatalf("camera:\nhave %v\nwant (0,0,3,1)", ubo.CameraPosition)
	}
}
