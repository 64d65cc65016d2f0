package core

type Button uint8

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

// KEYS_MAX_KEYS covers every GLFW key code (GLFW_KEY_LAST is 348).
const KEYS_MAX_KEYS = 512

// Mouse state structure
type MouseState struct {
	X       float64
	Y       float64
	Buttons [BUTTON_MAX_BUTTONS]bool
}

// Keyboard state structure
type KeyboardState struct {
	Keys [KEYS_MAX_KEYS]bool
}

// InputState is fed by the platform callbacks and read by the host every tick.
// Scroll deltas accumulate until ResetScroll.
type InputState struct {
	KeyboardCurrent  KeyboardState
	KeyboardPrevious KeyboardState
	MouseCurrent     MouseState
	MousePrevious    MouseState

	scrollX float64
	scrollY float64
}

func NewInputState() *InputState {
	return &InputState{}
}

// Update copies current states to previous states.
func (is *InputState) Update() {
	is.KeyboardPrevious = is.KeyboardCurrent
	is.MousePrevious = is.MouseCurrent
}

func (is *InputState) ProcessKey(key int, pressed bool) {
	if key < 0 || key >= KEYS_MAX_KEYS {
		return
	}
	is.KeyboardCurrent.Keys[key] = pressed
}

func (is *InputState) ProcessButton(button Button, pressed bool) {
	if button >= BUTTON_MAX_BUTTONS {
		return
	}
	is.MouseCurrent.Buttons[button] = pressed
}

func (is *InputState) ProcessMouseMove(x, y float64) {
	is.MouseCurrent.X = x
	is.MouseCurrent.Y = y
}

func (is *InputState) ProcessScroll(dx, dy float64) {
	is.scrollX += dx
	is.scrollY += dy
}

func (is *InputState) IsKeyDown(key int) bool {
	if key < 0 || key >= KEYS_MAX_KEYS {
		return false
	}
	return is.KeyboardCurrent.Keys[key]
}

func (is *InputState) WasKeyDown(key int) bool {
	if key < 0 || key >= KEYS_MAX_KEYS {
		return false
	}
	return is.KeyboardPrevious.Keys[key]
}

func (is *InputState) IsButtonDown(button Button) bool {
	if button >= BUTTON_MAX_BUTTONS {
		return false
	}
	return is.MouseCurrent.Buttons[button]
}

func (is *InputState) MousePosition() (float64, float64) {
	return is.MouseCurrent.X, is.MouseCurrent.Y
}

func (is *InputState) Scroll() (float64, float64) {
	return is.scrollX, is.scrollY
}

func (is *InputState) ResetScroll() {
	is.scrollX = 0
	is.scrollY = 0
}
