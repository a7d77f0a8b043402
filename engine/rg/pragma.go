package rg

import (
	"bufio"
	"strings"

	vk "github.com/goki/vulkan"

	"github.com/felipeagc/rgrender/engine/core"
)

// PipelineState is the render-pass-independent description of a graphics
// pipeline's fixed-function state, scanned from `#pragma key value` lines
// in the pipeline's HLSL source before compilation.
//
// Grounded on original_source/renderer/pipeline_asset.cpp's pragma scan and
// its default state.
type PipelineState struct {
	BlendEnable     bool
	DepthTest       bool
	DepthWrite      bool
	DepthBias       bool
	DepthCompareOp  vk.CompareOp
	Topology        vk.PrimitiveTopology
	PolygonMode     vk.PolygonMode
	CullMode        vk.CullModeFlagBits
	FrontFace       vk.FrontFace
}

// DefaultPipelineState matches the original asset loader's defaults before
// any #pragma is applied.
func DefaultPipelineState() PipelineState {
	return PipelineState{
		BlendEnable:    false,
		DepthTest:      false,
		DepthWrite:     false,
		DepthBias:      false,
		DepthCompareOp: vk.CompareOpGreater, // reverse-Z
		Topology:       vk.PrimitiveTopologyTriangleList,
		PolygonMode:    vk.PolygonModeFill,
		CullMode:       vk.CullModeNone,
		FrontFace:      vk.FrontFaceClockwise,
	}
}

// ParsePragmas scans src line by line for `#pragma <key> <value>` directives
// and applies recognized ones on top of DefaultPipelineState. An unknown key
// or invalid value logs a warning but does not abort the scan, per §4.7.
func ParsePragmas(src string) PipelineState {
	state := DefaultPipelineState()

	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#pragma") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "#pragma"))
		if len(fields) != 2 {
			continue
		}
		key, value := fields[0], fields[1]
		applyPragma(&state, key, value)
	}
	return state
}

func applyPragma(state *PipelineState, key, value string) {
	switch key {
	case "blend":
		if b, ok := parseBool(value); ok {
			state.BlendEnable = b
		} else {
			core.LogWarn("rg: pipeline pragma 'blend' has invalid value %q", value)
		}
	case "depth_test":
		if b, ok := parseBool(value); ok {
			state.DepthTest = b
		} else {
			core.LogWarn("rg: pipeline pragma 'depth_test' has invalid value %q", value)
		}
	case "depth_write":
		if b, ok := parseBool(value); ok {
			state.DepthWrite = b
		} else {
			core.LogWarn("rg: pipeline pragma 'depth_write' has invalid value %q", value)
		}
	case "depth_bias":
		if b, ok := parseBool(value); ok {
			state.DepthBias = b
		} else {
			core.LogWarn("rg: pipeline pragma 'depth_bias' has invalid value %q", value)
		}
	case "depth_compare_op":
		if op, ok := parseCompareOp(value); ok {
			state.DepthCompareOp = op
		} else {
			core.LogWarn("rg: pipeline pragma 'depth_compare_op' has invalid value %q", value)
		}
	case "topology":
		switch value {
		case "triangle_list":
			state.Topology = vk.PrimitiveTopologyTriangleList
		case "line_list":
			state.Topology = vk.PrimitiveTopologyLineList
		default:
			core.LogWarn("rg: pipeline pragma 'topology' has invalid value %q", value)
		}
	case "polygon_mode":
		switch value {
		case "fill":
			state.PolygonMode = vk.PolygonModeFill
		case "line":
			state.PolygonMode = vk.PolygonModeLine
		case "point":
			state.PolygonMode = vk.PolygonModePoint
		default:
			core.LogWarn("rg: pipeline pragma 'polygon_mode' has invalid value %q", value)
		}
	case "cull_mode":
		switch value {
		case "none":
			state.CullMode = vk.CullModeNone
		case "front":
			state.CullMode = vk.CullModeFrontBit
		case "back":
			state.CullMode = vk.CullModeBackBit
		case "front_and_back":
			state.CullMode = vk.CullModeFrontAndBack
		default:
			core.LogWarn("rg: pipeline pragma 'cull_mode' has invalid value %q", value)
		}
	case "front_face":
		switch value {
		case "clockwise":
			state.FrontFace = vk.FrontFaceClockwise
		case "counter_clockwise":
			state.FrontFace = vk.FrontFaceCounterClockwise
		default:
			core.LogWarn("rg: pipeline pragma 'front_face' has invalid value %q", value)
		}
	default:
		core.LogWarn("rg: unrecognized pipeline pragma key %q", key)
	}
}

// CullModeFromString parses a cull_mode pragma/TOML value, matching the
// vocabulary applyPragma accepts for the "cull_mode" key.
func CullModeFromString(v string) (vk.CullModeFlagBits, bool) {
	switch v {
	case "none":
		return vk.CullModeNone, true
	case "front":
		return vk.CullModeFrontBit, true
	case "back":
		return vk.CullModeBackBit, true
	case "front_and_back":
		return vk.CullModeFrontAndBack, true
	}
	return 0, false
}

// CompareOpFromString parses a depth_compare_op pragma/TOML value.
func CompareOpFromString(v string) (vk.CompareOp, bool) {
	return parseCompareOp(v)
}

func parseBool(v string) (bool, bool) {
	switch v {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func parseCompareOp(v string) (vk.CompareOp, bool) {
	switch v {
	case "never":
		return vk.CompareOpNever, true
	case "less":
		return vk.CompareOpLess, true
	case "equal":
		return vk.CompareOpEqual, true
	case "less_or_equal":
		return vk.CompareOpLessOrEqual, true
	case "greater":
		return vk.CompareOpGreater, true
	case "not_equal":
		return vk.CompareOpNotEqual, true
	case "greater_or_equal":
		return vk.CompareOpGreaterOrEqual, true
	case "always":
		return vk.CompareOpAlways, true
	}
	return 0, false
}
