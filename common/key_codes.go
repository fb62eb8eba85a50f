package common

// Key codes delivered by window.Window key callbacks. Printable keys use their ASCII
// value, matching GLFW.
const (
	KeySpace = 32
	Key1     = 49
	Key2     = 50
	Key3     = 51
	KeyE     = 69
	KeyG     = 71
	KeyP     = 80
	KeyS     = 83
	KeyEsc   = 256
)
