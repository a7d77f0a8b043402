package assets

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/felipeagc/rgrender/engine/rg"
)

// PipelineStateOverride is the TOML-addressable form of the fixed-function
// overrides rg.ParsePragmas scans out of a shader's HLSL `#pragma` lines:
// a build-time TOML file next to the shader can set the same knobs
// without touching its source, per the spec's "#pragma as well as TOML"
// configuration story.
//
// Grounded on the teacher's engine/assets/loaders/shader.go tmpShaderConfig,
// cut down from its full attribute/uniform/stage shader-config schema
// (tied to the teacher's now-superseded metadata.ShaderConfig) to just the
// fixed-function knobs rg.PipelineState actually exposes.
type PipelineStateOverride struct {
	Blend          *bool   `toml:"blend"`
	DepthTest      *bool   `toml:"depth_test"`
	DepthWrite     *bool   `toml:"depth_write"`
	DepthBias      *bool   `toml:"depth_bias"`
	DepthCompareOp *string `toml:"depth_compare_op"`
	CullMode       *string `toml:"cull_mode"`
}

// LoadPipelineStateOverride reads and parses a TOML override file. A
// missing file is not an error: a zero-value override (nothing overridden)
// is returned so a shader without a sidecar file still pipelines cleanly.
func LoadPipelineStateOverride(path string) (PipelineStateOverride, error) {
	var override PipelineStateOverride

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return override, nil
		}
		return override, fmt.Errorf("assets: read pipeline override %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &override); err != nil {
		return override, fmt.Errorf("assets: parse pipeline override %s: %w", path, err)
	}
	return override, nil
}

// Apply layers override on top of state, leaving fields state already had
// untouched where override didn't set them.
func (o PipelineStateOverride) Apply(state rg.PipelineState) rg.PipelineState {
	if o.Blend != nil {
		state.BlendEnable = *o.Blend
	}
	if o.DepthTest != nil {
		state.DepthTest = *o.DepthTest
	}
	if o.DepthWrite != nil {
		state.DepthWrite = *o.DepthWrite
	}
	if o.DepthBias != nil {
		state.DepthBias = *o.DepthBias
	}
	if o.CullMode != nil {
		if cm, ok := rg.CullModeFromString(*o.CullMode); ok {
			state.CullMode = cm
		}
	}
	if o.DepthCompareOp != nil {
		if op, ok := rg.CompareOpFromString(*o.DepthCompareOp); ok {
			state.DepthCompareOp = op
		}
	}
	return state
}
