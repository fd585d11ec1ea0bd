//go:build windows

package ui

import (
	"os"
)

// OpenTTY opens the console input, for reading keys when stdin is
// redirected.
func OpenTTY() (*os.File, error) {
	return os.OpenFile("CONIN$", os.O_RDWR, 0)
}
