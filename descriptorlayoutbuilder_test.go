package hellfire

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestDescriptorLayoutBuilderAccumulates(t *testing.T) {
	b := &DescriptorLayoutBuilder{}
	b.AddBinding(0, vk.DescriptorTypeStorageImage)
	b.AddBinding(3, vk.DescriptorTypeUniformBuffer)

	bindings := b.Bindings()
	if len(bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(bindings))
	}

	if bindings[0].Binding != 0 || bindings[0].DescriptorType != vk.DescriptorTypeStorageImage {
		t.Errorf("unexpected first binding %+v", bindings[0])
	}
	if bindings[1].Binding != 3 || bindings[1].DescriptorType != vk.DescriptorTypeUniformBuffer {
		t.Errorf("unexpected second binding %+v", bindings[1])
	}
	for i, binding := range bindings {
		if binding.DescriptorCount != 1 {
			t.Errorf("binding %d: expected descriptor count 1, got %d", i, binding.DescriptorCount)
		}
		if binding.StageFlags != 0 {
			t.Errorf("binding %d: stage flags must stay unset until Build, got %v", i, binding.StageFlags)
		}
	}
}

func TestDescriptorLayoutBuilderClear(t *testing.T) {
	b := &DescriptorLayoutBuilder{}
	b.AddBinding(0, vk.DescriptorTypeStorageImage)
	b.Clear()

	if len(b.Bindings()) != 0 {
		t.Error("expected no bindings after Clear")
	}

	b.AddBinding(1, vk.DescriptorTypeStorageBuffer)
	bindings := b.Bindings()
	if len(bindings) != 1 || bindings[0].Binding != 1 {
		t.Errorf("expected single binding 1 after reuse, got %+v", bindings)
	}
}

func TestDescriptorLayoutBuilderBindingsCopy(t *testing.T) {
	b := &DescriptorLayoutBuilder{}
	b.AddBinding(0, vk.DescriptorTypeStorageImage)

	bindings := b.Bindings()
	bindings[0].Binding = 42

	if got := b.Bindings()[0].Binding; got != 0 {
		t.Errorf("mutating the returned slice leaked into the builder: binding %d", got)
	}
}
