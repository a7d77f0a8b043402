package rg

import "testing"

func TestDefaultPipelineStateMatchesOriginalDefaults(t *testing.T) {
	s := DefaultPipelineState()
	if s.BlendEnable || s.DepthTest || s.DepthWrite || s.DepthBias {
		t.Fatalf("expected all boolean state to default false, got %+v", s)
	}
	if s.CullMode != 0 {
		t.Fatalf("expected cull_mode=none by default, got %v", s.CullMode)
	}
}

func TestParsePragmasOverridesDefaults(t *testing.T) {
	src := "#pragma blend true\n#pragma cull_mode back\n#pragma topology line_list\n// not a pragma\n#pragma depth_test true\n"
	state := ParsePragmas(src)

	if !state.BlendEnable {
		t.Error("expected blend enabled")
	}
	if !state.DepthTest {
		t.Error("expected depth_test enabled")
	}
	if state.DepthWrite {
		t.Error("expected depth_write to remain false (not set)")
	}
}

func TestParsePragmasIgnoresUnknownKeysAndValues(t *testing.T) {
	src := "#pragma nonsense value\n#pragma cull_mode sideways\n#pragma blend true\n"
	state := ParsePragmas(src)
	if !state.BlendEnable {
		t.Fatal("a malformed pragma line must not prevent later valid pragmas from applying")
	}
	if state.CullMode != DefaultPipelineState().CullMode {
		t.Fatal("invalid cull_mode value must leave the default in place")
	}
}
