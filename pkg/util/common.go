package util

import (
	"io"
	"log/slog"
)

// CloseFunc closes c and logs a failure instead of returning it. Use it only
// for closers whose error cannot change the result, such as readers.
func CloseFunc(c io.Closer, what string) {
	err := c.Close()
	if err != nil {
		slog.Error("close "+what, "err", err)
	}
}
