package core

/** @brief Key codes as reported by the platform layer (GLFW numbering). */
const (
	KEY_SPACE     = 32
	KEY_0         = 48
	KEY_1         = 49
	KEY_2         = 50
	KEY_3         = 51
	KEY_A         = 65
	KEY_D         = 68
	KEY_E         = 69
	KEY_L         = 76
	KEY_Q         = 81
	KEY_R         = 82
	KEY_S         = 83
	KEY_W         = 87
	KEY_ESCAPE    = 256
	KEY_ENTER     = 257
	KEY_TAB       = 258
	KEY_RIGHT     = 262
	KEY_LEFT      = 263
	KEY_DOWN      = 264
	KEY_UP        = 265
	KEY_F1        = 290
	KEY_F2        = 291
	KEY_F5        = 294
	KEY_LEFTSHIFT = 340
)
