package vulkan

import (
	"errors"
	stdmath "math"
	"reflect"
	"strings"
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const (
	graphics = vk.QueueFlags(vk.QueueGraphicsBit)
	compute  = vk.QueueFlags(vk.QueueComputeBit)
	transfer = vk.QueueFlags(vk.QueueTransferBit)
)

func TestPickQueueFamilies(t *testing.T) {
	tests := []struct {
		name    string
		flags   []vk.QueueFlags
		present []bool
		want    VulkanPhysicalDeviceQueueFamilyInfo
	}{
		{
			name:    "combined family preferred, dedicated transfer",
			flags:   []vk.QueueFlags{graphics | compute | transfer, graphics | transfer, transfer},
			present: []bool{false, true, false},
			want:    VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: 1, PresentFamilyIndex: 1, TransferFamilyIndex: 2},
		},
		{
			name:    "separate present family",
			flags:   []vk.QueueFlags{graphics | transfer, compute},
			present: []bool{false, true},
			want:    VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: 0, PresentFamilyIndex: 1, TransferFamilyIndex: 0},
		},
		{
			name:    "transfer falls back to graphics",
			flags:   []vk.QueueFlags{graphics},
			present: []bool{true},
			want:    VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: 0, PresentFamilyIndex: 0, TransferFamilyIndex: 0},
		},
		{
			name: "no families",
			want: VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: -1, PresentFamilyIndex: -1, TransferFamilyIndex: -1},
		},
	}
	for _, tt := range tests {
		if have := pickQueueFamilies(tt.flags, tt.present); have != tt.want {
			t.Fatalf("%s:\nhave %+v\nwant %+v", tt.name, have, tt.want)
		}
	}
}

func TestMissingExtensions(t *testing.T) {
	available := []string{"VK_KHR_swapchain", "VK_KHR_portability_subset"}
	if have := missingExtensions(available, []string{"VK_KHR_swapchain"}); len(have) != 0 {
		t.Fatalf("missing extensions:\nhave %v\nwant none", have)
	}
	have := missingExtensions(available, []string{"VK_KHR_swapchain", "VK_EXT_debug_report"})
	if len(have) != 1 || have[0] != "VK_EXT_debug_report" {
		t.Fatalf("missing extensions:\nhave %v\nwant [VK_EXT_debug_report]", have)
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	unorm := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	srgb := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	other := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	if have := chooseSurfaceFormat([]vk.SurfaceFormat{other, unorm, srgb}); have != srgb {
		t.Fatalf("srgb preferred:\nhave %+v\nwant %+v", have, srgb)
	}
	if have := chooseSurfaceFormat([]vk.SurfaceFormat{other, unorm}); have != unorm {
		t.Fatalf("unorm fallback:\nhave %+v\nwant %+v", have, unorm)
	}
	if have := chooseSurfaceFormat([]vk.SurfaceFormat{other}); have != other {
		t.Fatalf("first format:\nhave %+v\nwant %+v", have, other)
	}
}

func TestChoosePresentMode(t *testing.T) {
	modes := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo, vk.PresentModeMailbox}
	if have := choosePresentMode(modes, true); have != vk.PresentModeFifo {
		t.Fatalf("vsync:\nhave %v\nwant %v", have, vk.PresentModeFifo)
	}
	if have := choosePresentMode(modes, false); have != vk.PresentModeMailbox {
		t.Fatalf("mailbox:\nhave %v\nwant %v", have, vk.PresentModeMailbox)
	}
	if have := choosePresentMode(modes[:2], false); have != vk.PresentModeFifo {
		t.Fatalf("fifo fallback:\nhave %v\nwant %v", have, vk.PresentModeFifo)
	}
}

func TestChooseExtent(t *testing.T) {
	fixed := vk.SurfaceCapabilities{CurrentExtent: vk.Extent2D{Width: 800, Height: 600}}
	if have := chooseExtent(fixed, 1920, 1080); have != fixed.CurrentExtent {
		t.Fatalf("fixed extent:\nhave %+v\nwant %+v", have, fixed.CurrentExtent)
	}

	free := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: stdmath.MaxUint32, Height: stdmath.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 1000, Height: 1000},
	}
	tests := []struct {
		width, height uint32
		want          vk.Extent2D
	}{
		{640, 480, vk.Extent2D{Width: 640, Height: 480}},
		{10, 2000, vk.Extent2D{Width: 100, Height: 1000}},
		{0, 0, vk.Extent2D{Width: 100, Height: 100}},
	}
	for _, tt := range tests {
		if have := chooseExtent(free, tt.width, tt.height); have != tt.want {
			t.Fatalf("extent %dx%d:\nhave %+v\nwant %+v", tt.width, tt.height, have, tt.want)
		}
	}
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max, want uint32
	}{
		{2, 0, 3},
		{2, 8, 3},
		{3, 3, 3},
	}
	for _, tt := range tests {
		caps := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
		if have := chooseImageCount(caps); have != tt.want {
			t.Fatalf("image count min %d max %d:\nhave %d\nwant %d", tt.min, tt.max, have, tt.want)
		}
	}
}

func TestSwapchainStatus(t *testing.T) {
	tests := []struct {
		result vk.Result
		want   metadata.SwapchainStatus
	}{
		{vk.Success, metadata.SwapchainStatusOptimal},
		{vk.Suboptimal, metadata.SwapchainStatusSuboptimal},
		{vk.ErrorOutOfDate, metadata.SwapchainStatusOutOfDate},
	}
	for _, tt := range tests {
		have, err := swapchainStatus(tt.result)
		if err != nil || have != tt.want {
			t.Fatalf("status of %d:\nhave %v, %v\nwant %v, nil", tt.result, have, err, tt.want)
		}
	}
	if _, err := swapchainStatus(vk.ErrorDeviceLost); err == nil {
		t.Fatalf("device lost:\nhave nil error\nwant error")
	}
}

func TestLayoutTransition(t *testing.T) {
	_, dst, src, dstStage, err := layoutTransition(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	if err != nil {
		t.Fatalf("undefined to transfer dst: %v", err)
	}
	if dst != vk.AccessFlags(vk.AccessTransferWriteBit) || src != vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit) || dstStage != vk.PipelineStageFlags(vk.PipelineStageTransferBit) {
		t.Fatalf("undefined to transfer dst:\nhave access %v stages %v -> %v", dst, src, dstStage)
	}

	srcAccess, dstAccess, _, dstStage, err := layoutTransition(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	if err != nil {
		t.Fatalf("transfer dst to shader read: %v", err)
	}
	if srcAccess != vk.AccessFlags(vk.AccessTransferWriteBit) || dstAccess != vk.AccessFlags(vk.AccessShaderReadBit) || dstStage != vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit) {
		t.Fatalf("transfer dst to shader read:\nhave access %v -> %v stage %v", srcAccess, dstAccess, dstStage)
	}

	if _, _, _, _, err := layoutTransition(vk.ImageLayoutUndefined, vk.ImageLayoutPresentSrc); err == nil {
		t.Fatalf("unsupported transition:\nhave nil error\nwant error")
	}
}

func TestVulkanResultString(t *testing.T) {
	if have := VulkanResultString(vk.ErrorOutOfDate, false); have != "VK_ERROR_OUT_OF_DATE_KHR" {
		t.Fatalf("short name:\nhave %q\nwant %q", have, "VK_ERROR_OUT_OF_DATE_KHR")
	}
	if have := VulkanResultString(vk.Success, true); !strings.HasPrefix(have, "VK_SUCCESS ") {
		t.Fatalf("extended:\nhave %q\nwant prefix %q", have, "VK_SUCCESS ")
	}
	if have := VulkanResultString(vk.Result(-424242), false); have != "VK_RESULT(-424242)" {
		t.Fatalf("unknown:\nhave %q\nwant %q", have, "VK_RESULT(-424242)")
	}
	if !VulkanResultIsSuccess(vk.Suboptimal) || VulkanResultIsSuccess(vk.ErrorDeviceLost) {
		t.Fatalf("result success classification is wrong")
	}
}

func TestVulkanSafeStrings(t *testing.T) {
	in := []string{"VK_KHR_surface", "done\x00", ""}
	have := VulkanSafeStrings(in)
	want := []string{"VK_KHR_surface\x00", "done\x00", "\x00"}
	for i := range want {
		if have[i] != want[i] {
			t.Fatalf("safe string %d:\nhave %q\nwant %q", i, have[i], want[i])
		}
	}
	if in[0] != "VK_KHR_surface" {
		t.Fatalf("input modified:\nhave %q\nwant %q", in[0], "VK_KHR_surface")
	}
}

func TestShaderPath(t *testing.T) {
	have := shaderPath("assets/shaders", mainShaderName, "vert")
	if want := "assets/shaders/main.vert.spv"; have != want {
		t.Fatalf("shader path:\nhave %q\nwant %q", have, want)
	}
}

func TestVertexAttributeLayout(t *testing.T) {
	attrs := vertex3DAttributes()
	wantOffsets := []uint32{0, 12, 24, 36}
	for i, a := range attrs {
		if a.Location != uint32(i) || a.Offset != wantOffsets[i] {
			t.Fatalf("vertex3D attribute %d:\nhave location %d offset %d\nwant location %d offset %d", i, a.Location, a.Offset, i, wantOffsets[i])
		}
	}
	if have := unsafe.Sizeof(math.Vertex3D{}); have != 44 {
		t.Fatalf("vertex3D stride:\nhave %d\nwant 44", have)
	}

	attrs = vertex2DAttributes()
	wantOffsets = []uint32{0, 8, 16}
	for i, a := range attrs {
		if a.Offset != wantOffsets[i] {
			t.Fatalf("vertex2D attribute %d:\nhave offset %d\nwant %d", i, a.Offset, wantOffsets[i])
		}
	}
	if have := unsafe.Sizeof(math.Vertex2D{}); have != 32 {
		t.Fatalf("vertex2D stride:\nhave %d\nwant 32", have)
	}
}

func TestSliceBytes(t *testing.T) {
	if have := sliceBytes([]uint32{}); have != nil {
		t.Fatalf("empty slice:\nhave %v\nwant nil", have)
	}
	have := sliceBytes([]uint32{1, 2})
	if len(have) != 8 {
		t.Fatalf("byte length:\nhave %d\nwant 8", len(have))
	}
	ubo := metadata.UniformBufferObject{}
	if n := len(asBytes(&ubo)); n != 128 {
		t.Fatalf("ubo bytes:\nhave %d\nwant 128", n)
	}
}

func TestSlotErrorsBeforeInitialize(t *testing.T) {
	vr := New(nil)
	if err := vr.WaitForFrame(0); err == nil {
		t.Fatalf("wait before initialize:\nhave nil error\nwant error")
	}
	if err := vr.ReloadPipelines(); err == nil {
		t.Fatalf("reload before initialize:\nhave nil error\nwant error")
	}
	// Shutdown of a backend that never started is a no-op.
	if err := vr.Shutdown(); err != nil {
		t.Fatalf("shutdown:\nhave %v\nwant nil", err)
	}
	if err := vr.Shutdown(); err != nil {
		t.Fatalf("second shutdown:\nhave %v\nwant nil", err)
	}
}

func TestSwapSamplerSetReleasesFirst(t *testing.T) {
	// One set left in the pool, held by the current font.
	capacity, inUse := 1, 1
	var order []string
	release := func() {
		order = append(order, "release")
		inUse--
	}
	allocate := func() (vk.DescriptorSet, error) {
		order = append(order, "allocate")
		if inUse == capacity {
			return nil, errors.New("out of pool memory")
		}
		inUse++
		return nil, nil
	}

	if _, err := swapSamplerSet(release, allocate); err != nil {
		t.Fatalf("swap on a full pool: %v", err)
	}
	if want := []string{"release", "allocate"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order:\nhave %v\nwant %v", order, want)
	}
	if inUse != 1 {
		t.Fatalf("sets in use:\nhave %d\nwant 1", inUse)
	}
}
