package metadata

import (
	"testing"
	"unsafe"

	"github.com/spaghettifunk/lumen/engine/math"
)

func TestGpuLayouts(t *testing.T) {
	tests := []struct {
		name string
		have uintptr
		want uintptr
	}{
		{"Vertex3D", unsafe.Sizeof(math.Vertex3D{}), 44},
		{"Vertex2D", unsafe.Sizeof(math.Vertex2D{}), 32},
		{"GpuLight", unsafe.Sizeof(GpuLight{}), 64},
		{"LightUBO", unsafe.Sizeof(LightUBO{}), 544},
		{"UniformBufferObject", unsafe.Sizeof(UniformBufferObject{}), 128},
		{"ModelPushConstant", unsafe.Sizeof(ModelPushConstant{}), 64},
	}
	for _, tt := range tests {
		if tt.have != tt.want {
			t.Fatalf("sizeof %s:\nhave %d\nwant %d", tt.name, tt.have, tt.want)
		}
	}
	if off := unsafe.Offsetof(LightUBO{}.Lights); off != 32 {
		t.Fatalf("LightUBO.Lights offset:\nhave %d\nwant 32", off)
	}
}

func TestEntityIDString(t *testing.T) {
	if have := EntityID(7).String(); have != "entity(7)" {
		t.Fatalf("string:\nhave %s\nwant entity(7)", have)
	}
	if have := InvalidEntityID.String(); have != "entity(invalid)" {
		t.Fatalf("invalid string:\nhave %s\nwant entity(invalid)", have)
	}
	if EntityID(MaxEntityIndex) == InvalidEntityID || !EntityID(MaxEntityIndex).IsValid() {
		t.Fatalf("largest valid id collides with InvalidEntityID")
	}
}
