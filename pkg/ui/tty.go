//go:build !windows

package ui

import (
	"os"
)

// OpenTTY opens the controlling terminal, for reading keys when stdin is
// redirected.
func OpenTTY() (*os.File, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}
