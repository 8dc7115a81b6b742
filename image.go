package hellfire

import (
	vk "github.com/goki/vulkan"
)

// AllocatedImage is a GPU image together with its default view, backing
// memory, format and 3-D extent. It is owned by whichever component
// created it and released through a deletion queue.
type AllocatedImage struct {
	VKImage     vk.Image
	VKImageView vk.ImageView
	Memory      *DeviceMemory
	VKFormat    vk.Format
	VKExtent    vk.Extent3D
}

// Extent2D returns the image extent with the depth dimension dropped.
func (a *AllocatedImage) Extent2D() vk.Extent2D {
	return vk.Extent2D{Width: a.VKExtent.Width, Height: a.VKExtent.Height}
}

// Destroy releases the view, image and backing memory, in that order.
func (a *AllocatedImage) Destroy(d *Device) {
	vk.DestroyImageView(d.VKDevice, a.VKImageView, nil)
	vk.DestroyImage(d.VKDevice, a.VKImage, nil)
	a.Memory.Destroy()
}

// CreateImageView creates a 2-D view of the image with the given aspect.
func (d *Device) CreateImageView(image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	createInfo := &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var view vk.ImageView

	err := vk.Error(vk.CreateImageView(d.VKDevice, createInfo, nil, &view))
	if err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

// fullImageRange covers every mip level and array layer of an image for
// the given aspect.
func fullImageRange(aspect vk.ImageAspectFlags) vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask: aspect,
		LevelCount: vk.RemainingMipLevels,
		LayerCount: vk.RemainingArrayLayers,
	}
}

// TransitionImage records a layout transition as a full pipeline
// barrier with all-commands/all-memory scope. Coarse on purpose: the
// engine trades GPU overlap for transitions that are correct against
// any prior and subsequent access.
func (c *CommandBuffer) TransitionImage(image vk.Image, oldLayout, newLayout vk.ImageLayout) {
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if newLayout == vk.ImageLayoutDepthAttachmentOptimal {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}

	barrier := vk.ImageMemoryBarrier2{
		SType:         vk.StructureTypeImageMemoryBarrier2,
		SrcStageMask:  vk.PipelineStageFlags2(vk.PipelineStage2AllCommandsBit),
		SrcAccessMask: vk.AccessFlags2(vk.Access2MemoryWriteBit),
		DstStageMask:  vk.PipelineStageFlags2(vk.PipelineStage2AllCommandsBit),
		DstAccessMask: vk.AccessFlags2(vk.Access2MemoryWriteBit | vk.Access2MemoryReadBit),

		OldLayout: oldLayout,
		NewLayout: newLayout,

		SubresourceRange: fullImageRange(aspect),
		Image:            image,
	}

	depInfo := vk.DependencyInfo{
		SType:                   vk.StructureTypeDependencyInfo,
		ImageMemoryBarrierCount: 1,
		PImageMemoryBarriers:    []vk.ImageMemoryBarrier2{barrier},
	}

	vk.CmdPipelineBarrier2(c.VKCommandBuffer, &depInfo)
}

// CopyImageToImage blits the source image onto the destination,
// honoring differing extents. Source must be in transfer-src layout and
// destination in transfer-dst layout.
func (c *CommandBuffer) CopyImageToImage(src, dst vk.Image, srcSize, dstSize vk.Extent2D) {
	blit := vk.ImageBlit2{
		SType: vk.StructureTypeImageBlit2,
		SrcSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		DstSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
	}
	blit.SrcOffsets[1] = vk.Offset3D{X: int32(srcSize.Width), Y: int32(srcSize.Height), Z: 1}
	blit.DstOffsets[1] = vk.Offset3D{X: int32(dstSize.Width), Y: int32(dstSize.Height), Z: 1}

	blitInfo := vk.BlitImageInfo2{
		SType:          vk.StructureTypeBlitImageInfo2,
		SrcImage:       src,
		SrcImageLayout: vk.ImageLayoutTransferSrcOptimal,
		DstImage:       dst,
		DstImageLayout: vk.ImageLayoutTransferDstOptimal,
		Filter:         vk.FilterLinear,
		RegionCount:    1,
		PRegions:       []vk.ImageBlit2{blit},
	}

	vk.CmdBlitImage2(c.VKCommandBuffer, &blitInfo)
}
