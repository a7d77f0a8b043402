package engine

import (
	"github.com/felipeagc/rgrender/engine/assets"
	"github.com/felipeagc/rgrender/engine/bindless"
	"github.com/felipeagc/rgrender/engine/core"
	"github.com/felipeagc/rgrender/engine/model"
	"github.com/felipeagc/rgrender/engine/rg"
)

// Context bundles the engine-owned objects a Game's hooks need, replacing
// the teacher's SystemManager (a registry of named subsystems looked up
// by string) with a plain struct of concrete handles, since this engine
// has a fixed, known set of subsystems rather than a dynamically
// registered one.
type Context struct {
	Device    *rg.Device
	Bindless  *bindless.Engine
	Swapchain *rg.Swapchain
	Models    *model.Manager
	Camera    *rg.Camera
	Input     *core.InputState
	Watcher   *assets.Watcher

	ModelPipeline *rg.Pipeline
}
