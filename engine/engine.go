package engine

import (
	"github.com/felipeagc/rgrender/engine/config"
	"github.com/felipeagc/rgrender/engine/core"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	game         *Game
	config       config.Config
}

// New ties a Game to the config loaded from engine.toml (or
// config.Default() if the caller has none), replacing the original's
// window/device setup constants with a file the host application can
// edit without recompiling.
func New(g *Game, cfg config.Config) (*Engine, error) {
	return &Engine{
		currentStage: EngineStageUninitialized,
		game:         g,
		config:       cfg,
	}, nil
}

func (e *Engine) Initialize() error {
	if err := ApplicationCreate(e.game, e.config); err != nil {
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (e *Engine) Run() error {
	if err := ApplicationRun(); err != nil {
		return err
	}
	return nil
}

func (e *Engine) Shutdown() error {
	return ApplicationShutdown()
}
