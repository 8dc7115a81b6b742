package hellfire

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device

	GraphicsQueue *Queue
	PresentQueue  *Queue
}

// DeviceFeatureRequests is the logical feature request set, resolved
// into the pNext chain the API requires at device creation. The named
// booleans, not raw structure links, are the source of truth.
type DeviceFeatureRequests struct {
	SamplerAnisotropy   bool
	DescriptorIndexing  bool
	BufferDeviceAddress bool
	DynamicRendering    bool
	Synchronization2    bool
}

// DefaultDeviceFeatureRequests is what the engine asks of every device.
func DefaultDeviceFeatureRequests() DeviceFeatureRequests {
	return DeviceFeatureRequests{
		SamplerAnisotropy:   true,
		DescriptorIndexing:  true,
		BufferDeviceAddress: true,
		DynamicRendering:    true,
		Synchronization2:    true,
	}
}

type CreateDeviceOptions struct {
	EnabledExtensions []string
	EnabledLayers     []string
	Features          DeviceFeatureRequests
}

// CreateLogicalDevice creates the logical device with one queue per
// distinct family in qi and the requested feature chain, and resolves
// the graphics and present queue handles.
func (p *PhysicalDevice) CreateLogicalDevice(qi QueueFamilyIndices, options *CreateDeviceOptions) (*Device, error) {
	if !qi.IsComplete() {
		return nil, fmt.Errorf("incomplete queue family selection")
	}

	familyIndices := []uint32{*qi.Graphics}
	if !qi.IsSameFamily() {
		familyIndices = append(familyIndices, *qi.Present)
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(familyIndices))
	for i, family := range familyIndices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	if options == nil {
		options = &CreateDeviceOptions{Features: DefaultDeviceFeatureRequests()}
	}

	f13 := vk.PhysicalDeviceVulkan13Features{
		SType:            vk.StructureTypePhysicalDeviceVulkan13Features,
		DynamicRendering: vkBool(options.Features.DynamicRendering),
		Synchronization2: vkBool(options.Features.Synchronization2),
	}
	f12 := vk.PhysicalDeviceVulkan12Features{
		SType:               vk.StructureTypePhysicalDeviceVulkan12Features,
		DescriptorIndexing:  vkBool(options.Features.DescriptorIndexing),
		BufferDeviceAddress: vkBool(options.Features.BufferDeviceAddress),
		PNext:               unsafe.Pointer(&f13),
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),
		PQueueCreateInfos:    queueCreateInfos,
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			SamplerAnisotropy: vkBool(options.Features.SamplerAnisotropy),
		}},
		PNext: unsafe.Pointer(&f12),
	}

	if options.EnabledExtensions != nil {
		deviceCreateInfo.EnabledExtensionCount = uint32(len(options.EnabledExtensions))
		deviceCreateInfo.PpEnabledExtensionNames = safeStrings(options.EnabledExtensions)
	}
	if options.EnabledLayers != nil {
		deviceCreateInfo.EnabledLayerCount = uint32(len(options.EnabledLayers))
		deviceCreateInfo.PpEnabledLayerNames = safeStrings(options.EnabledLayers)
	}

	var ldevice vk.Device

	err := vk.Error(vk.CreateDevice(p.VKPhysicalDevice, &deviceCreateInfo, nil, &ldevice))
	if err != nil {
		return nil, err
	}

	device := &Device{PhysicalDevice: p, VKDevice: ldevice}
	device.GraphicsQueue = device.GetQueue(*qi.Graphics)
	if qi.IsSameFamily() {
		device.PresentQueue = device.GraphicsQueue
	} else {
		device.PresentQueue = device.GetQueue(*qi.Present)
	}

	return device, nil
}

// Destroy tears down the logical device. Safe to call repeatedly.
func (d *Device) Destroy() {
	if d.VKDevice == nil {
		return
	}
	vk.DestroyDevice(d.VKDevice, nil)
	d.VKDevice = nil
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

func (d *Device) WaitIdle() {
	vk.DeviceWaitIdle(d.VKDevice)
}

// GetQueue returns queue 0 of the given family.
func (d *Device) GetQueue(familyIndex uint32) *Queue {
	var vkq vk.Queue

	vk.GetDeviceQueue(d.VKDevice, familyIndex, 0, &vkq)

	return &Queue{
		Device:      d,
		FamilyIndex: familyIndex,
		VKQueue:     vkq,
	}
}

// Allocate grabs a block of device memory of the given size, type bits
// and properties.
func (d *Device) Allocate(sizeInBytes int, memoryTypeBits uint32, memoryProperties vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	var allocateInfo = vk.MemoryAllocateInfo{}
	allocateInfo.SType = vk.StructureTypeMemoryAllocateInfo
	allocateInfo.AllocationSize = vk.DeviceSize(sizeInBytes)

	var err error

	allocateInfo.MemoryTypeIndex, err = d.PhysicalDevice.FindMemoryType(
		memoryTypeBits,
		vk.MemoryPropertyFlagBits(memoryProperties))

	if err != nil {
		return nil, err
	}

	var deviceMemory vk.DeviceMemory

	err = vk.Error(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory))
	if err != nil {
		return nil, err
	}

	var ret DeviceMemory

	ret.Size = uint64(sizeInBytes)
	ret.Device = d
	ret.VKDeviceMemory = deviceMemory

	return &ret, nil
}
