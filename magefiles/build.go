//go:build mage

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

const (
	shaderDir = "assets/shaders"
	// glfw and the vulkan bindings are cgo packages.
	cgoEnabled = "CGO_ENABLED=1"
)

type Build mg.Namespace

// Compiles every GLSL stage under assets/shaders to <name>.<stage>.spv.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the engine packages.
func (Build) Engine() error {
	_, err := executeCmd("go", withArgs("build", "./engine/..."), withEnv(cgoEnabled), withStream())
	return err
}

// Builds the testbed binary into bin/.
func (Build) Testbed() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", filepath.Join("bin", "testbed"), "."), withEnv(cgoEnabled), withStream())
	return err
}

func buildShaders() error {
	var sources []string
	for _, stage := range []string{"vert", "frag"} {
		matches, err := filepath.Glob(filepath.Join(shaderDir, "*."+stage))
		if err != nil {
			return err
		}
		sources = append(sources, matches...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no shader sources under %s", shaderDir)
	}
	for _, src := range sources {
		// main.vert -> main.vert.spv
		out := src + ".spv"
		if _, err := executeCmd("glslc", withArgs(src, "-o", out), withStream()); err != nil {
			return fmt.Errorf("compiling %s: %w", strings.TrimPrefix(src, shaderDir+"/"), err)
		}
	}
	return nil
}
