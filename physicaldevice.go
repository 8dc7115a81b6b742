package hellfire

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// RequiredDeviceExtensions are the device extensions every suitable GPU
// must expose.
var RequiredDeviceExtensions = []string{"VK_KHR_swapchain"}

// MinAPIVersion is the minimum Vulkan version a suitable GPU must report.
var MinAPIVersion = uint32(vk.MakeVersion(1, 3, 0))

type VKPresentModes []vk.PresentMode

func (v VKPresentModes) Filter(f vk.PresentMode) VKPresentModes {
	ret := make(VKPresentModes, 0)
	for _, s := range v {
		if f == s {
			ret = append(ret, s)
		}
	}
	return ret
}

type VKSurfaceFormats []vk.SurfaceFormat

func (v VKSurfaceFormats) Filter(f func(f vk.SurfaceFormat) bool) VKSurfaceFormats {
	ret := make(VKSurfaceFormats, 0)
	for _, s := range v {
		s.Deref()
		if f(s) {
			ret = append(ret, s)
		}
	}
	return ret
}

type PhysicalDevice struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
}

func (p *PhysicalDevice) GetSurfacePresentModes(surface vk.Surface) (VKPresentModes, error) {
	var count uint32
	err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, nil))
	if err != nil {
		return nil, err
	}

	f := make([]vk.PresentMode, count)
	err = vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, f))
	if err != nil {
		return nil, err
	}

	return f, nil
}

func (p *PhysicalDevice) GetSurfaceFormats(surface vk.Surface) (VKSurfaceFormats, error) {
	var count uint32
	err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, nil))
	if err != nil {
		return nil, err
	}

	f := make([]vk.SurfaceFormat, count)
	err = vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, f))
	if err != nil {
		return nil, err
	}

	return f, nil
}

func (p *PhysicalDevice) GetSurfaceCapabilities(surface vk.Surface) (*vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(p.VKPhysicalDevice, surface, &caps))
	if err != nil {
		return nil, err
	}

	return &caps, err
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

func (p *PhysicalDevice) QueueFamilies() (QueueFamilySlice, error) {
	var queueFamilyCount uint32

	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &queueFamilyCount, nil)

	if queueFamilyCount == 0 {
		return nil, nil
	}

	queues := make([]vk.QueueFamilyProperties, queueFamilyCount)

	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &queueFamilyCount, queues)

	ret := make([]*QueueFamily, queueFamilyCount)
	for i, queue := range queues {
		ret[i] = &QueueFamily{Index: i, PhysicalDevice: p, VKQueueFamilyProperties: queue}
		ret[i].VKQueueFamilyProperties.Deref()
	}

	return ret, nil
}

// SupportedExtensionNames returns the names of all device extensions
// this physical device exposes.
func (p *PhysicalDevice) SupportedExtensionNames() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil))
	if err != nil {
		return nil, err
	}

	ext := make([]vk.ExtensionProperties, count)

	err = vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, ext))
	if err != nil {
		return nil, err
	}

	names := make([]string, count)
	for i := range ext {
		ext[i].Deref()
		names[i] = vk.ToString(ext[i].ExtensionName[:])
	}
	return names, nil
}

// GPUFeatures is the capability subset the engine depends on.
type GPUFeatures struct {
	SamplerAnisotropy    bool
	ShaderDrawParameters bool
	DynamicRendering     bool
	Synchronization2     bool
	ExtendedDynamicState bool
}

// GPUInfo is a gathered snapshot of one physical device's capabilities,
// kept free of live handles so the suitability policy is testable.
type GPUInfo struct {
	Name          string
	APIVersion    uint32
	Extensions    []string
	Features      GPUFeatures
	QueueFamilies []QueueFamilyCaps
}

// HasExtension reports whether the device exposes the named extension.
func (info *GPUInfo) HasExtension(name string) bool {
	for _, e := range info.Extensions {
		if e == name {
			return true
		}
	}
	return false
}

// Suitable applies the device suitability policy: minimum API version,
// every required extension, the full engine feature set and a complete
// graphics/present queue family pair.
func (info *GPUInfo) Suitable(requiredExtensions []string, minAPIVersion uint32) bool {
	if info.APIVersion < minAPIVersion {
		return false
	}
	for _, ext := range requiredExtensions {
		if !info.HasExtension(ext) {
			return false
		}
	}
	f := info.Features
	if !f.SamplerAnisotropy || !f.ShaderDrawParameters ||
		!f.DynamicRendering || !f.Synchronization2 || !f.ExtendedDynamicState {
		return false
	}
	qi := FindQueueFamilyIndices(info.QueueFamilies)
	return qi.IsComplete()
}

// GatherInfo queries the device's capability snapshot against a surface.
func (p *PhysicalDevice) GatherInfo(surface vk.Surface) (*GPUInfo, error) {
	extensions, err := p.SupportedExtensionNames()
	if err != nil {
		return nil, err
	}

	families, err := p.QueueFamilies()
	if err != nil {
		return nil, err
	}
	caps := make([]QueueFamilyCaps, len(families))
	for i, f := range families {
		caps[i] = QueueFamilyCaps{
			Graphics: f.IsGraphics(),
			Present:  f.SupportsPresent(surface),
		}
	}

	return &GPUInfo{
		Name:          p.DeviceName,
		APIVersion:    p.VKPhysicalDeviceProperties.ApiVersion,
		Extensions:    extensions,
		Features:      p.QueryFeatures(),
		QueueFamilies: caps,
	}, nil
}

// QueryFeatures reads the engine relevant feature bits, chaining the
// 1.1/1.3 and extended-dynamic-state feature structs off the base query.
func (p *PhysicalDevice) QueryFeatures() GPUFeatures {
	fdyn := vk.PhysicalDeviceExtendedDynamicStateFeatures{
		SType: vk.StructureTypePhysicalDeviceExtendedDynamicStateFeatures,
	}
	f13 := vk.PhysicalDeviceVulkan13Features{
		SType: vk.StructureTypePhysicalDeviceVulkan13Features,
		PNext: unsafe.Pointer(&fdyn),
	}
	f11 := vk.PhysicalDeviceVulkan11Features{
		SType: vk.StructureTypePhysicalDeviceVulkan11Features,
		PNext: unsafe.Pointer(&f13),
	}
	features2 := vk.PhysicalDeviceFeatures2{
		SType: vk.StructureTypePhysicalDeviceFeatures2,
		PNext: unsafe.Pointer(&f11),
	}
	vk.GetPhysicalDeviceFeatures2(p.VKPhysicalDevice, &features2)
	features2.Deref()
	features2.Features.Deref()

	return GPUFeatures{
		SamplerAnisotropy:    features2.Features.SamplerAnisotropy == vk.True,
		ShaderDrawParameters: f11.ShaderDrawParameters == vk.True,
		DynamicRendering:     f13.DynamicRendering == vk.True,
		Synchronization2:     f13.Synchronization2 == vk.True,
		ExtendedDynamicState: fdyn.ExtendedDynamicState == vk.True,
	}
}

// SelectPhysicalDevice returns the first enumerated device that passes
// the suitability policy. Zero devices or zero suitable devices is a
// fatal setup condition surfaced as an error.
func SelectPhysicalDevice(devices []*PhysicalDevice, surface vk.Surface) (*PhysicalDevice, error) {
	if len(devices) == 0 {
		return nil, fmt.Errorf("no GPUs with Vulkan support found")
	}
	for _, d := range devices {
		info, err := d.GatherInfo(surface)
		if err != nil {
			return nil, fmt.Errorf("error querying device '%s': %w", d.DeviceName, err)
		}
		if info.Suitable(RequiredDeviceExtensions, MinAPIVersion) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("failed to find a suitable GPU")
}

// MemoryTypes returns the device's memory types in heap index order.
func (p *PhysicalDevice) MemoryTypes() []vk.MemoryType {
	mp := p.VKPhysicalDeviceMemoryProperties()
	mp.Deref()

	ret := make([]vk.MemoryType, 0)

	var i uint32
	for i = 0; i < mp.MemoryTypeCount; i++ {
		mt := mp.MemoryTypes[i]
		mt.Deref()
		ret = append(ret, mt)
	}
	return ret
}

func (p *PhysicalDevice) VKPhysicalDeviceMemoryProperties() vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties

	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &memoryProperties)
	return memoryProperties
}

// FindMemoryTypeIn resolves the first memory type index allowed by the
// resource's type bits that carries all the requested property flags.
func FindMemoryTypeIn(types []vk.MemoryType, memoryTypeBits uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	for i, mt := range types {
		if memoryTypeBits&(1<<uint32(i)) != 0 &&
			vk.MemoryPropertyFlagBits(mt.PropertyFlags)&properties == properties {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("no matching memory type found")
}

func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	return FindMemoryTypeIn(p.MemoryTypes(), memoryTypeBits, properties)
}
