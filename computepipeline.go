package hellfire

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	lin "github.com/xlab/linmath"
)

type ComputePipeline struct {
	VKPipeline                      vk.Pipeline
	VKPipelineShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
	VKPipelineLayout                vk.PipelineLayout
}

type PipelineCache struct {
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	var pipelineCacheCreate = vk.PipelineCacheCreateInfo{}
	pipelineCacheCreate.SType = vk.StructureTypePipelineCacheCreateInfo

	var pipelineCache vk.PipelineCache

	err := vk.Error(vk.CreatePipelineCache(d.VKDevice, &pipelineCacheCreate, nil, &pipelineCache))
	if err != nil {
		return nil, err
	}

	var ret PipelineCache
	ret.VKPipelineCache = pipelineCache
	return &ret, nil
}

func (p *PipelineCache) Destroy(d *Device) {
	vk.DestroyPipelineCache(d.VKDevice, p.VKPipelineCache, nil)
}

func (c *ComputePipeline) SetPipelineLayout(layout *PipelineLayout) {
	c.VKPipelineLayout = layout.VKPipelineLayout
}

func (c *ComputePipeline) SetShaderStage(entryPoint string, shaderModule *ShaderModule) {
	c.VKPipelineShaderStageCreateInfo = shaderModule.VKPipelineShaderStageCreateInfo(vk.ShaderStageComputeBit, entryPoint)
}

func (c *ComputePipeline) Destroy(d *Device) {
	vk.DestroyPipeline(d.VKDevice, c.VKPipeline, nil)
}

// CreateComputePipelines builds every passed pipeline in one call.
func (d *Device) CreateComputePipelines(pc *PipelineCache, cp ...*ComputePipeline) error {
	pipelines := make([]vk.Pipeline, len(cp))

	ci := make([]vk.ComputePipelineCreateInfo, len(cp))

	for i, p := range cp {
		var pipelineCreateInfo = vk.ComputePipelineCreateInfo{}
		pipelineCreateInfo.SType = vk.StructureTypeComputePipelineCreateInfo
		pipelineCreateInfo.Stage = p.VKPipelineShaderStageCreateInfo
		pipelineCreateInfo.Layout = p.VKPipelineLayout
		ci[i] = pipelineCreateInfo
	}

	cache := vk.NullPipelineCache
	if pc != nil {
		cache = pc.VKPipelineCache
	}

	err := vk.Error(vk.CreateComputePipelines(
		d.VKDevice, cache,
		uint32(len(ci)), ci,
		nil, pipelines))

	if err != nil {
		return err
	}

	for i := range pipelines {
		cp[i].VKPipeline = pipelines[i]
	}

	return nil
}

// ComputePushConstants is the push constant payload shared by the
// background compute effects, two general purpose 4-vectors.
type ComputePushConstants struct {
	Data1 lin.Vec4
	Data2 lin.Vec4
}

// Bytes returns the raw push constant payload.
func (c *ComputePushConstants) Bytes() []byte {
	return ToBytes(unsafe.Pointer(c), int(unsafe.Sizeof(*c)))
}

// ComputeEffect is one runtime selectable background pass: a compute
// pipeline writing the draw target through a storage image binding,
// parameterized by push constants.
type ComputeEffect struct {
	Name     string
	Pipeline *ComputePipeline
	Layout   *PipelineLayout
	Data     ComputePushConstants
}

// CreateComputeEffect loads the effect's shader and builds its own
// pipeline layout and pipeline, optionally through a pipeline cache.
// Each effect owns its layout, nothing is shared between effects.
func (d *Device) CreateComputeEffect(name, shaderPath string, setLayout *DescriptorSetLayout, cache *PipelineCache) (*ComputeEffect, error) {
	shader, err := d.LoadShaderModuleFromFile(shaderPath)
	if err != nil {
		return nil, err
	}
	defer shader.Destroy()

	pushRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageComputeBit),
		Size:       uint32(unsafe.Sizeof(ComputePushConstants{})),
	}

	layout, err := d.CreatePipelineLayoutWithPushConstants(
		[]*DescriptorSetLayout{setLayout}, []vk.PushConstantRange{pushRange})
	if err != nil {
		return nil, err
	}

	pipeline := &ComputePipeline{}
	pipeline.SetPipelineLayout(layout)
	pipeline.SetShaderStage("main", shader)

	if err := d.CreateComputePipelines(cache, pipeline); err != nil {
		layout.Destroy()
		return nil, err
	}

	return &ComputeEffect{
		Name:     name,
		Pipeline: pipeline,
		Layout:   layout,
	}, nil
}

// Destroy releases the effect's pipeline and layout.
func (e *ComputeEffect) Destroy(d *Device) {
	e.Pipeline.Destroy(d)
	e.Layout.Destroy()
}
