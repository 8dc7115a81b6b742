package hellfire

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func suitableGPUInfo() *GPUInfo {
	return &GPUInfo{
		Name:       "test gpu",
		APIVersion: uint32(vk.MakeVersion(1, 3, 0)),
		Extensions: []string{"VK_KHR_swapchain"},
		Features: GPUFeatures{
			SamplerAnisotropy:    true,
			ShaderDrawParameters: true,
			DynamicRendering:     true,
			Synchronization2:     true,
			ExtendedDynamicState: true,
		},
		QueueFamilies: []QueueFamilyCaps{{Graphics: true, Present: true}},
	}
}

func TestGPUInfoSuitable(t *testing.T) {
	info := suitableGPUInfo()
	if !info.Suitable(RequiredDeviceExtensions, MinAPIVersion) {
		t.Error("expected fully capable device to be suitable")
	}
}

func TestGPUInfoSuitableAPIVersionTooLow(t *testing.T) {
	info := suitableGPUInfo()
	info.APIVersion = uint32(vk.MakeVersion(1, 2, 0))
	if info.Suitable(RequiredDeviceExtensions, MinAPIVersion) {
		t.Error("expected 1.2 device to be rejected")
	}
}

func TestGPUInfoSuitableMissingExtension(t *testing.T) {
	info := suitableGPUInfo()
	info.Extensions = []string{"VK_KHR_maintenance1"}
	if info.Suitable(RequiredDeviceExtensions, MinAPIVersion) {
		t.Error("expected device without swapchain extension to be rejected")
	}
}

func TestGPUInfoSuitableMissingFeature(t *testing.T) {
	features := []func(*GPUFeatures){
		func(f *GPUFeatures) { f.SamplerAnisotropy = false },
		func(f *GPUFeatures) { f.ShaderDrawParameters = false },
		func(f *GPUFeatures) { f.DynamicRendering = false },
		func(f *GPUFeatures) { f.Synchronization2 = false },
		func(f *GPUFeatures) { f.ExtendedDynamicState = false },
	}

	for i, clear := range features {
		info := suitableGPUInfo()
		clear(&info.Features)
		if info.Suitable(RequiredDeviceExtensions, MinAPIVersion) {
			t.Errorf("case %d: expected device with missing feature to be rejected", i)
		}
	}
}

func TestGPUInfoSuitableIncompleteQueues(t *testing.T) {
	info := suitableGPUInfo()
	info.QueueFamilies = []QueueFamilyCaps{{Graphics: true, Present: false}}
	if info.Suitable(RequiredDeviceExtensions, MinAPIVersion) {
		t.Error("expected device without present support to be rejected")
	}
}

func TestSelectPhysicalDeviceNoDevices(t *testing.T) {
	_, err := SelectPhysicalDevice(nil, vk.NullSurface)
	if err == nil {
		t.Fatal("expected error for zero devices")
	}
}

func TestGPUInfoHasExtension(t *testing.T) {
	info := &GPUInfo{Extensions: []string{"VK_KHR_swapchain", "VK_EXT_mesh_shader"}}

	if !info.HasExtension("VK_KHR_swapchain") {
		t.Error("expected extension to be found")
	}
	if info.HasExtension("VK_KHR_ray_tracing_pipeline") {
		t.Error("expected missing extension to be reported absent")
	}
}

func TestFindMemoryTypeIn(t *testing.T) {
	types := []vk.MemoryType{
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)},
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)},
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)},
	}

	idx, err := FindMemoryTypeIn(types, 0b111, vk.MemoryPropertyHostVisibleBit)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 1 {
		t.Errorf("expected host visible type 1, got %d", idx)
	}

	// Type 1 carries the right flags but the resource does not allow it.
	idx, err = FindMemoryTypeIn(types, 0b100, vk.MemoryPropertyHostVisibleBit)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 2 {
		t.Errorf("expected type 2 when type 1 is excluded, got %d", idx)
	}

	if _, err := FindMemoryTypeIn(types, 0b001, vk.MemoryPropertyHostVisibleBit); err == nil {
		t.Error("expected error when no allowed type matches")
	}
}
