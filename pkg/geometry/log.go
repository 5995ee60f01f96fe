package geometry

import (
	"io"
	"log"
)

var logger = log.New(io.Discard, "geometry: ", 0)

// SetLogger routes diagnostic output of the package, such as the differences
// reported by verbose Equal calls, to l. A nil logger silences the package.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	logger = l
}
