// Package platform owns the native window and translates its callbacks
// into engine/containers.Event writes, per §4.14: the windowing layer is
// the event queue's sole producer.
package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/felipeagc/rgrender/engine/containers"
	"github.com/felipeagc/rgrender/engine/core"
)

var startTime float64 = 0

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform owns the native window and the event queue its callbacks feed.
type Platform struct {
	Window *glfw.Window
	Events *containers.EventQueue
}

func New() (*Platform, error) {
	return &Platform{
		Window: nil,
		Events: containers.NewEventQueue(),
	}, nil
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogFatal("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogFatal("failed to create window: %s", err)
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetMouseButtonCallback(p.mouseButtonCallback)
	p.Window.SetCursorPosCallback(p.cursorPosCallback)
	p.Window.SetScrollCallback(p.scrollCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	glfw.SetMonitorCallback(p.monitorCallback)
	glfw.SetJoystickCallback(p.joystickCallback)

	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	startTime = glfw.GetTime()

	return nil
}

func (p *Platform) Shutdown() error {
	glfw.Terminate()
	return nil
}

// PumpMessages polls the OS for pending native events, which synchronously
// invoke the callbacks below and write one Event per callback.
func (p *Platform) PumpMessages() {
	glfw.PollEvents()
}

// NextEvent dequeues the oldest pending event, per §4.14's single-consumer
// contract.
func (p *Platform) NextEvent() (containers.Event, bool) {
	return p.Events.NextEvent()
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	p.Events.Write(containers.Event{
		Type:     containers.EventKey,
		Key:      int(key),
		Scancode: scancode,
		Action:   int(action),
		Mods:     int(mods),
	})
}

func (p *Platform) mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	p.Events.Write(containers.Event{
		Type:   containers.EventMouseButton,
		Button: int(button),
		Action: int(action),
		Mods:   int(mods),
	})
}

func (p *Platform) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	p.Events.Write(containers.Event{
		Type: containers.EventCursorPos,
		X:    xpos,
		Y:    ypos,
	})
}

func (p *Platform) scrollCallback(w *glfw.Window, xoff, yoff float64) {
	p.Events.Write(containers.Event{
		Type: containers.EventScroll,
		X:    xoff,
		Y:    yoff,
	})
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.Events.Write(containers.Event{
		Type:   containers.EventFramebufferSize,
		Width:  int32(width),
		Height: int32(height),
	})
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.Events.Write(containers.Event{Type: containers.EventWindowClose})
}

func (p *Platform) monitorCallback(monitor *glfw.Monitor, event glfw.PeripheralEvent) {
	p.Events.Write(containers.Event{
		Type:      containers.EventMonitor,
		Connected: event == glfw.Connected,
	})
}

func (p *Platform) joystickCallback(joy glfw.Joystick, event glfw.PeripheralEvent) {
	p.Events.Write(containers.Event{
		Type:      containers.EventJoystick,
		DeviceID:  int(joy),
		Connected: event == glfw.Connected,
	})
}
