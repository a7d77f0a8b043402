//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// hlslShader names a source file under assets/shaders/; the entry points
// and profiles of its vertex and pixel stages are fixed in buildShaders.
type hlslShader struct {
	name string // without .vert.hlsl/.frag.hlsl suffix
}

var builtinShaders = []hlslShader{
	{name: "model"},
	{name: "brdf"},
}

func dxcPath() string {
	vkSDKPath := os.Getenv("VULKAN_SDK")
	return fmt.Sprintf("%s/bin/dxc", vkSDKPath)
}

// compileHLSL invokes dxc against a single HLSL source, matching the
// teacher's one-glslc-call-per-stage shape but targeting SPIR-V through
// dxc's -spirv flag instead of glslc's native SPIR-V output.
func compileHLSL(src, dst, profile, entry string) error {
	_, err := executeCmd(dxcPath(), withArgs(
		"-spirv",
		"-T", profile,
		"-E", entry,
		src,
		"-Fo", dst,
	), withStream())
	return err
}

func buildShaders() error {
	fmt.Println("Build shaders...")
	for _, shader := range builtinShaders {
		vertSrc := filepath.Join("assets/shaders", shader.name+".vert.hlsl")
		vertDst := filepath.Join("assets/shaders", shader.name+".vert.spv")
		if err := compileHLSL(vertSrc, vertDst, "vs_6_0", "vertex"); err != nil {
			return err
		}

		fragSrc := filepath.Join("assets/shaders", shader.name+".frag.hlsl")
		fragDst := filepath.Join("assets/shaders", shader.name+".frag.spv")
		if err := compileHLSL(fragSrc, fragDst, "ps_6_0", "pixel"); err != nil {
			return err
		}
	}
	return nil
}

// buildShadersDir walks dir for *.vert.hlsl/*.frag.hlsl pairs not listed
// in builtinShaders, so assets added by a host application without a
// magefiles change still get picked up.
func buildShadersDir(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(path, ".vert.hlsl"):
			dst := strings.TrimSuffix(path, ".hlsl") + ".spv"
			return compileHLSL(path, dst, "vs_6_0", "vertex")
		case strings.HasSuffix(path, ".frag.hlsl"):
			dst := strings.TrimSuffix(path, ".hlsl") + ".spv"
			return compileHLSL(path, dst, "ps_6_0", "pixel")
		default:
			return nil
		}
	})
}

// Shaders compiles every builtin HLSL shader to SPIR-V via dxc.
func (Build) Shaders() error {
	return buildShaders()
}

// ShadersDir compiles every *.vert.hlsl/*.frag.hlsl pair found under dir,
// for host applications keeping shaders outside assets/shaders.
func (Build) ShadersDir(dir string) error {
	return buildShadersDir(dir)
}
