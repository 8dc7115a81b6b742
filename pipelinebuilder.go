package hellfire

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// PipelineBuilder assembles one graphics pipeline from composable
// option-setting calls. The builder is strictly stateful: Clear must be
// called before configuring each new pipeline, nothing resets
// implicitly between builds. Setters only record state, no cross-field
// consistency is enforced.
//
// Built pipelines always use dynamic viewport and scissor, and carry
// their attachment formats through a dynamic-rendering create info
// chained via pNext instead of a render pass.
type PipelineBuilder struct {
	ShaderStages []vk.PipelineShaderStageCreateInfo

	InputAssembly        vk.PipelineInputAssemblyStateCreateInfo
	Rasterizer           vk.PipelineRasterizationStateCreateInfo
	ColorBlendAttachment vk.PipelineColorBlendAttachmentState
	Multisampling        vk.PipelineMultisampleStateCreateInfo
	DepthStencil         vk.PipelineDepthStencilStateCreateInfo

	PipelineLayout        vk.PipelineLayout
	ColorAttachmentFormat vk.Format
	DepthAttachmentFormat vk.Format
}

// NewPipelineBuilder returns a builder in the fresh, cleared state.
func NewPipelineBuilder() *PipelineBuilder {
	b := &PipelineBuilder{}
	b.Clear()
	return b
}

// Clear resets every sub-state to its structural default and empties
// the shader stage list.
func (b *PipelineBuilder) Clear() {
	*b = PipelineBuilder{
		InputAssembly: vk.PipelineInputAssemblyStateCreateInfo{
			SType: vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		},
		Rasterizer: vk.PipelineRasterizationStateCreateInfo{
			SType: vk.StructureTypePipelineRasterizationStateCreateInfo,
		},
		Multisampling: vk.PipelineMultisampleStateCreateInfo{
			SType: vk.StructureTypePipelineMultisampleStateCreateInfo,
		},
		DepthStencil: vk.PipelineDepthStencilStateCreateInfo{
			SType: vk.StructureTypePipelineDepthStencilStateCreateInfo,
		},
	}
}

// SetShaders configures a vertex + fragment stage pair with the
// standard "main" entry point.
func (b *PipelineBuilder) SetShaders(vertex, fragment *ShaderModule) *PipelineBuilder {
	b.ShaderStages = []vk.PipelineShaderStageCreateInfo{
		vertex.VKPipelineShaderStageCreateInfo(vk.ShaderStageVertexBit, "main"),
		fragment.VKPipelineShaderStageCreateInfo(vk.ShaderStageFragmentBit, "main"),
	}
	return b
}

func (b *PipelineBuilder) SetInputTopology(topology vk.PrimitiveTopology) *PipelineBuilder {
	b.InputAssembly.Topology = topology
	b.InputAssembly.PrimitiveRestartEnable = vk.False
	return b
}

func (b *PipelineBuilder) SetPolygonMode(mode vk.PolygonMode) *PipelineBuilder {
	b.Rasterizer.PolygonMode = mode
	b.Rasterizer.LineWidth = 1.0
	return b
}

func (b *PipelineBuilder) SetCullMode(mode vk.CullModeFlags, frontFace vk.FrontFace) *PipelineBuilder {
	b.Rasterizer.CullMode = mode
	b.Rasterizer.FrontFace = frontFace
	return b
}

// SetMultisamplingNone configures one sample per pixel.
func (b *PipelineBuilder) SetMultisamplingNone() *PipelineBuilder {
	b.Multisampling.SampleShadingEnable = vk.False
	b.Multisampling.RasterizationSamples = vk.SampleCount1Bit
	b.Multisampling.MinSampleShading = 1.0
	return b
}

// DisableBlending writes all color components with blending off.
func (b *PipelineBuilder) DisableBlending() *PipelineBuilder {
	b.ColorBlendAttachment.ColorWriteMask = vk.ColorComponentFlags(
		vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit)
	b.ColorBlendAttachment.BlendEnable = vk.False
	return b
}

func (b *PipelineBuilder) SetColorAttachmentFormat(format vk.Format) *PipelineBuilder {
	b.ColorAttachmentFormat = format
	return b
}

func (b *PipelineBuilder) SetDepthFormat(format vk.Format) *PipelineBuilder {
	b.DepthAttachmentFormat = format
	return b
}

func (b *PipelineBuilder) DisableDepthTest() *PipelineBuilder {
	b.DepthStencil.DepthTestEnable = vk.False
	b.DepthStencil.DepthWriteEnable = vk.False
	b.DepthStencil.DepthCompareOp = vk.CompareOpNever
	b.DepthStencil.MaxDepthBounds = 1.0
	return b
}

func (b *PipelineBuilder) SetPipelineLayout(layout *PipelineLayout) *PipelineBuilder {
	b.PipelineLayout = layout.VKPipelineLayout
	return b
}

// DynamicStates lists the pipeline state left dynamic by every built
// pipeline. Viewport and scissor are never baked in.
func (b *PipelineBuilder) DynamicStates() []vk.DynamicState {
	return []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
}

// BuildPipeline assembles one graphics pipeline from the recorded
// state, optionally through a pipeline cache.
func (b *PipelineBuilder) BuildPipeline(d *Device, pc *PipelineCache) (vk.Pipeline, error) {
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	colorBlendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{b.ColorBlendAttachment},
	}

	vertexInputState := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}

	dynamicStates := b.DynamicStates()
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	renderInfo := vk.PipelineRenderingCreateInfo{
		SType:                   vk.StructureTypePipelineRenderingCreateInfo,
		ColorAttachmentCount:    1,
		PColorAttachmentFormats: []vk.Format{b.ColorAttachmentFormat},
		DepthAttachmentFormat:   b.DepthAttachmentFormat,
	}

	inputAssembly := b.InputAssembly
	rasterizer := b.Rasterizer
	multisampling := b.Multisampling
	depthStencil := b.DepthStencil

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		PNext:               unsafe.Pointer(&renderInfo),
		StageCount:          uint32(len(b.ShaderStages)),
		PStages:             b.ShaderStages,
		PVertexInputState:   &vertexInputState,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PColorBlendState:    &colorBlendState,
		PDepthStencilState:  &depthStencil,
		PDynamicState:       &dynamicState,
		Layout:              b.PipelineLayout,
	}

	cache := vk.NullPipelineCache
	if pc != nil {
		cache = pc.VKPipelineCache
	}

	pipelines := make([]vk.Pipeline, 1)
	err := vk.Error(vk.CreateGraphicsPipelines(d.VKDevice, cache,
		1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines))
	if err != nil {
		return vk.NullPipeline, err
	}

	return pipelines[0], nil
}
