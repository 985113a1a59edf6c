package must

import (
	"io"

	"github.com/HasinZaman/pipelined-server/pkg/logging"
)

// Close closes c and logs a warning on failure.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// WriteString writes a string and logs a warning on a short or failed write.
func WriteString(ws interface{ WriteString(string) (int, error) }, s string, logger *logging.Logger) {
	n, err := ws.WriteString(s)
	if err != nil {
		logger.Warnf("unable to write string '%s': %s", s, err.Error())
	}
	if n < len(s) {
		logger.Warnf("unable to write all of string '%s'; only wrote %d of %d bytes", s, n, len(s))
	}
}
