// Package closer releases resources whose close failures must not abort the
// caller. Failures are logged and swallowed.
package closer

import (
	"io"

	"github.com/KevoDB/sai/pkg/common/log"
)

// Quietly closes c, logging any error at warn level. It returns true when the
// close succeeded. A nil closer is treated as already closed.
func Quietly(c io.Closer, logger log.Logger, what string) bool {
	if c == nil {
		return true
	}
	if logger == nil {
		logger = log.GetDefaultLogger()
	}

	if err := c.Close(); err != nil {
		logger.WithField("resource", what).Warn("Failed to close: %v", err)
		return false
	}
	return true
}

// AllQuietly closes every element of closers in order and returns the number
// of failed closes. A failing element never prevents the rest from closing.
func AllQuietly[C io.Closer](closers []C, logger log.Logger, what string) int {
	failures := 0
	for _, c := range closers {
		if !Quietly(c, logger, what) {
			failures++
		}
	}
	return failures
}
