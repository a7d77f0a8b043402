package engine

import "github.com/felipeagc/rgrender/engine/rg"

// Game is the host application's hook set plus its window configuration.
// A Game carries no engine state of its own beyond State, a free-form
// slot for whatever the hooks need to remember between calls; everything
// engine-owned lives on the Context the hooks receive.
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
}

type Initialize func(ctx *Context) error
type Update func(ctx *Context, deltaTime float64) error
type Render func(ctx *Context, cmd *rg.CmdBuffer, deltaTime float64) error
type OnResize func(ctx *Context, width, height uint32) error
