package hellfire

import (
	"testing"
)

func TestFrameRingCycles(t *testing.T) {
	e := &Engine{}
	for i := range e.frames {
		e.frames[i] = &FrameData{}
	}

	for i := 0; i < FrameOverlap*3; i++ {
		want := e.frames[i%FrameOverlap]
		if got := e.currentFrame(); got != want {
			t.Errorf("frame %d: expected slot %d", i, i%FrameOverlap)
		}
		e.frameNumber++
	}
}

func TestSetEffectBounds(t *testing.T) {
	e := &Engine{effects: []*ComputeEffect{{Name: "a"}, {Name: "b"}}}

	if err := e.SetEffect(1); err != nil {
		t.Errorf("unexpected error selecting effect: %v", err)
	}
	if e.CurrentEffect().Name != "b" {
		t.Errorf("expected effect b, got %s", e.CurrentEffect().Name)
	}

	if err := e.SetEffect(2); err == nil {
		t.Error("expected error for out-of-range index")
	}
	if err := e.SetEffect(-1); err == nil {
		t.Error("expected error for negative index")
	}
}

func TestNextEffectWraps(t *testing.T) {
	e := &Engine{effects: []*ComputeEffect{{Name: "a"}, {Name: "b"}}}

	e.NextEffect()
	if e.CurrentEffect().Name != "b" {
		t.Errorf("expected effect b, got %s", e.CurrentEffect().Name)
	}
	e.NextEffect()
	if e.CurrentEffect().Name != "a" {
		t.Errorf("expected wraparound to a, got %s", e.CurrentEffect().Name)
	}
}

func TestEffectsAreIndependent(t *testing.T) {
	// Each effect must own its name and layout, nothing shared by
	// accident between entries.
	a := &ComputeEffect{Name: "gradient", Layout: &PipelineLayout{}}
	b := &ComputeEffect{Name: "sky", Layout: &PipelineLayout{}}
	e := &Engine{effects: []*ComputeEffect{a, b}}

	if e.effects[0].Name == e.effects[1].Name {
		t.Error("effects share a name")
	}
	if e.effects[0].Layout == e.effects[1].Layout {
		t.Error("effects share a pipeline layout")
	}
}

func TestGroupCount(t *testing.T) {
	cases := []struct {
		size, group, want uint32
	}{
		{0, 16, 0},
		{1, 16, 1},
		{16, 16, 1},
		{17, 16, 2},
		{1700, 16, 107},
	}
	for _, c := range cases {
		if got := groupCount(c.size, c.group); got != c.want {
			t.Errorf("groupCount(%d, %d) = %d, want %d", c.size, c.group, got, c.want)
		}
	}
}
