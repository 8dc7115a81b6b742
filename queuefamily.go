package hellfire

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

type QueueFamilySlice []*QueueFamily

func (ql QueueFamilySlice) Filter(f func(q *QueueFamily) bool) QueueFamilySlice {
	ret := make([]*QueueFamily, 0)
	for _, q := range ql {
		if f(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

func (ql QueueFamilySlice) FilterCompute() QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsCompute()
	})
}

func (ql QueueFamilySlice) FilterGraphics() QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsGraphics()
	})
}

type QueueFamily struct {
	Index                   int
	PhysicalDevice          *PhysicalDevice
	VKQueueFamilyProperties vk.QueueFamilyProperties
}

func (q *QueueFamily) IsCompute() bool {
	return q.VKQueueFamilyProperties.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) == vk.QueueFlags(vk.QueueComputeBit)
}

func (q *QueueFamily) IsGraphics() bool {
	return q.VKQueueFamilyProperties.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == vk.QueueFlags(vk.QueueGraphicsBit)
}

func (q *QueueFamily) IsTransfer() bool {
	return q.VKQueueFamilyProperties.QueueFlags&vk.QueueFlags(vk.QueueTransferBit) == vk.QueueFlags(vk.QueueTransferBit)
}

func (q *QueueFamily) SupportsPresent(surface vk.Surface) bool {
	var supportsPresent vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(q.PhysicalDevice.VKPhysicalDevice, uint32(q.Index), surface, &supportsPresent)
	return supportsPresent == vk.True
}

func (q *QueueFamily) String() string {
	return fmt.Sprintf("{ Index: %d Compute: %v Graphics: %v Transfer: %v }", q.Index, q.IsCompute(), q.IsGraphics(), q.IsTransfer())
}

// QueueFamilyCaps is the capability record the family selection policy
// operates on, decoupled from live surface queries.
type QueueFamilyCaps struct {
	Graphics bool
	Present  bool
}

// QueueFamilyIndices holds the resolved graphics and present family
// indices. Both are optional until selection succeeds.
type QueueFamilyIndices struct {
	Graphics *uint32
	Present  *uint32
}

// IsComplete reports whether both indices have been populated.
func (qi *QueueFamilyIndices) IsComplete() bool {
	return qi.Graphics != nil && qi.Present != nil
}

// IsSameFamily reports whether one family serves both roles. Only valid
// once IsComplete returns true.
func (qi *QueueFamilyIndices) IsSameFamily() bool {
	return *qi.Graphics == *qi.Present
}

// FindQueueFamilyIndices resolves the graphics/present family pair from
// a capability list. A single family serving both roles is preferred;
// failing that the first present-capable family is picked independently.
func FindQueueFamilyIndices(caps []QueueFamilyCaps) QueueFamilyIndices {
	var qi QueueFamilyIndices
	for i := range caps {
		if !caps[i].Graphics {
			continue
		}
		idx := uint32(i)
		qi.Graphics = &idx
		if caps[i].Present {
			qi.Present = &idx
		}
		break
	}
	if qi.Present == nil {
		for i := range caps {
			if caps[i].Present {
				idx := uint32(i)
				qi.Present = &idx
				break
			}
		}
	}
	return qi
}

// FindQueueFamilyIndices gathers the capability list for this device
// against the given surface and applies the selection policy.
func (p *PhysicalDevice) FindQueueFamilyIndices(surface vk.Surface) (QueueFamilyIndices, error) {
	families, err := p.QueueFamilies()
	if err != nil {
		return QueueFamilyIndices{}, err
	}
	caps := make([]QueueFamilyCaps, len(families))
	for i, f := range families {
		caps[i] = QueueFamilyCaps{
			Graphics: f.IsGraphics(),
			Present:  f.SupportsPresent(surface),
		}
	}
	return FindQueueFamilyIndices(caps), nil
}
