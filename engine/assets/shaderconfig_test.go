package assets

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/felipeagc/rgrender/engine/rg"
)

func TestPipelineStateOverrideAppliesOnlySetFields(t *testing.T) {
	base := rg.DefaultPipelineState()
	blend := true
	cullMode := "back"
	override := PipelineStateOverride{
		Blend:    &blend,
		CullMode: &cullMode,
	}

	got := override.Apply(base)

	if !got.BlendEnable {
		t.Fatal("expected BlendEnable to be overridden to true")
	}
	if got.CullMode != vk.CullModeBackBit {
		t.Fatalf("expected CullMode back, got %v", got.CullMode)
	}
	if got.DepthTest != base.DepthTest {
		t.Fatal("expected DepthTest to be left at its base value")
	}
}

func TestLoadPipelineStateOverrideMissingFileReturnsZeroValue(t *testing.T) {
	override, err := LoadPipelineStateOverride("/nonexistent/path/shader.toml")
	if err != nil {
		t.Fatalf("expected no error for a missing override file, got %s", err)
	}
	if override.Blend != nil {
		t.Fatal("expected a missing override file to leave every field nil")
	}
}
