package core

import "sync"

const maxKeys = 512
const maxMouseButtons = 8

// InputState is a double-buffered keyboard/mouse state, advanced by
// ApplyKey/ApplyButton/ApplyCursorPos as the application drains the platform's event queue and
// snapshotted into "previous" by Update once per frame, so callers can
// distinguish "held" from "just pressed" within the same frame.
//
// Grounded on the teacher's engine/core/input.go InputState, generalized
// from its fixed KEY_* enum (keyed to Windows virtual-key codes) to raw
// glfw key codes — the same ints engine/platform's callbacks already put
// in containers.Event.Key/Button — and driven by event-queue draining
// instead of EventFire, since the event bus those calls went through no
// longer exists.
type InputState struct {
	mutex sync.Mutex

	keysCurrent, keysPrevious       [maxKeys]bool
	buttonsCurrent, buttonsPrevious [maxMouseButtons]bool

	mouseX, mouseY                   float64
	prevMouseX, prevMouseY           float64
}

// NewInputState returns a zeroed input state: every key/button up, cursor
// at the origin.
func NewInputState() *InputState {
	return &InputState{}
}

// Update snapshots the current frame's state into "previous", so IsKeyDown
// and WasKeyDown diverge only across a frame boundary. Call once per
// frame, before draining this frame's events.
func (s *InputState) Update() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.keysPrevious = s.keysCurrent
	s.buttonsPrevious = s.buttonsCurrent
	s.prevMouseX, s.prevMouseY = s.mouseX, s.mouseY
}

// ApplyKey records a key press/release, ignoring out-of-range codes
// (glfw reports a handful of negative/unknown codes the fixed-size
// table can't index).
func (s *InputState) ApplyKey(key int, pressed bool) {
	if key < 0 || key >= maxKeys {
		return
	}
	s.mutex.Lock()
	s.keysCurrent[key] = pressed
	s.mutex.Unlock()
}

// ApplyButton records a mouse button press/release.
func (s *InputState) ApplyButton(button int, pressed bool) {
	if button < 0 || button >= maxMouseButtons {
		return
	}
	s.mutex.Lock()
	s.buttonsCurrent[button] = pressed
	s.mutex.Unlock()
}

// ApplyCursorPos records the latest cursor position.
func (s *InputState) ApplyCursorPos(x, y float64) {
	s.mutex.Lock()
	s.mouseX, s.mouseY = x, y
	s.mutex.Unlock()
}

func (s *InputState) IsKeyDown(key int) bool {
	if key < 0 || key >= maxKeys {
		return false
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.keysCurrent[key]
}

func (s *InputState) WasKeyDown(key int) bool {
	if key < 0 || key >= maxKeys {
		return false
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.keysPrevious[key]
}

func (s *InputState) IsButtonDown(button int) bool {
	if button < 0 || button >= maxMouseButtons {
		return false
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.buttonsCurrent[button]
}

// MousePosition returns the current and previous-frame cursor positions.
func (s *InputState) MousePosition() (x, y, prevX, prevY float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.mouseX, s.mouseY, s.prevMouseX, s.prevMouseY
}
