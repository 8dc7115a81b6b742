package hellfire

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func configureBuilder(b *PipelineBuilder) {
	b.SetInputTopology(vk.PrimitiveTopologyTriangleList).
		SetPolygonMode(vk.PolygonModeLine).
		SetCullMode(vk.CullModeFlags(vk.CullModeBackBit), vk.FrontFaceCounterClockwise).
		SetMultisamplingNone().
		DisableBlending().
		DisableDepthTest().
		SetColorAttachmentFormat(vk.FormatR16g16b16a16Sfloat).
		SetDepthFormat(vk.FormatD32Sfloat)
}

func TestPipelineBuilderClearResets(t *testing.T) {
	b := NewPipelineBuilder()
	configureBuilder(b)
	b.Clear()

	if len(b.ShaderStages) != 0 {
		t.Error("expected no shader stages after Clear")
	}
	if b.InputAssembly.Topology != 0 {
		t.Errorf("expected topology reset, got %v", b.InputAssembly.Topology)
	}
	if b.Rasterizer.PolygonMode != 0 || b.Rasterizer.CullMode != 0 {
		t.Error("expected rasterizer state reset")
	}
	if b.ColorAttachmentFormat != vk.FormatUndefined || b.DepthAttachmentFormat != vk.FormatUndefined {
		t.Error("expected attachment formats reset")
	}

	// Sub-structs keep their structure types so a cleared builder can
	// be configured again without re-stamping them.
	if b.InputAssembly.SType != vk.StructureTypePipelineInputAssemblyStateCreateInfo {
		t.Error("expected input assembly SType to survive Clear")
	}
	if b.DepthStencil.SType != vk.StructureTypePipelineDepthStencilStateCreateInfo {
		t.Error("expected depth stencil SType to survive Clear")
	}
}

func TestNewPipelineBuilderMatchesCleared(t *testing.T) {
	fresh := NewPipelineBuilder()

	used := NewPipelineBuilder()
	configureBuilder(used)
	used.Clear()

	if fresh.InputAssembly != used.InputAssembly {
		t.Error("input assembly state differs between fresh and cleared builder")
	}
	if fresh.Rasterizer != used.Rasterizer {
		t.Error("rasterizer state differs between fresh and cleared builder")
	}
	if fresh.ColorBlendAttachment != used.ColorBlendAttachment {
		t.Error("blend state differs between fresh and cleared builder")
	}
	if fresh.ColorAttachmentFormat != used.ColorAttachmentFormat {
		t.Error("color format differs between fresh and cleared builder")
	}
}

func TestPipelineBuilderRecordsState(t *testing.T) {
	b := NewPipelineBuilder()
	configureBuilder(b)

	if b.InputAssembly.Topology != vk.PrimitiveTopologyTriangleList {
		t.Errorf("unexpected topology %v", b.InputAssembly.Topology)
	}
	if b.InputAssembly.PrimitiveRestartEnable != vk.False {
		t.Error("expected primitive restart disabled")
	}
	if b.Rasterizer.PolygonMode != vk.PolygonModeLine {
		t.Errorf("unexpected polygon mode %v", b.Rasterizer.PolygonMode)
	}
	if b.Rasterizer.LineWidth != 1.0 {
		t.Errorf("expected line width 1.0, got %f", b.Rasterizer.LineWidth)
	}
	if b.Rasterizer.CullMode != vk.CullModeFlags(vk.CullModeBackBit) {
		t.Errorf("unexpected cull mode %v", b.Rasterizer.CullMode)
	}
	if b.Rasterizer.FrontFace != vk.FrontFaceCounterClockwise {
		t.Errorf("unexpected front face %v", b.Rasterizer.FrontFace)
	}
	if b.Multisampling.RasterizationSamples != vk.SampleCount1Bit {
		t.Error("expected single-sample rasterization")
	}
	if b.ColorBlendAttachment.BlendEnable != vk.False {
		t.Error("expected blending disabled")
	}
	wantMask := vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
		vk.ColorComponentBBit | vk.ColorComponentABit)
	if b.ColorBlendAttachment.ColorWriteMask != wantMask {
		t.Errorf("unexpected color write mask %v", b.ColorBlendAttachment.ColorWriteMask)
	}
	if b.DepthStencil.DepthTestEnable != vk.False || b.DepthStencil.DepthCompareOp != vk.CompareOpNever {
		t.Error("expected depth test disabled with compare never")
	}
	if b.ColorAttachmentFormat != vk.FormatR16g16b16a16Sfloat {
		t.Errorf("unexpected color format %v", b.ColorAttachmentFormat)
	}
	if b.DepthAttachmentFormat != vk.FormatD32Sfloat {
		t.Errorf("unexpected depth format %v", b.DepthAttachmentFormat)
	}
}

func TestPipelineBuilderDynamicStates(t *testing.T) {
	b := NewPipelineBuilder()
	states := b.DynamicStates()

	if len(states) != 2 {
		t.Fatalf("expected exactly viewport and scissor, got %d states", len(states))
	}
	if states[0] != vk.DynamicStateViewport || states[1] != vk.DynamicStateScissor {
		t.Errorf("unexpected dynamic states %v", states)
	}
}
