// Package logging builds the structured logger used by the baton command.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// ParseLevel maps a syslog-style keyword (as produced by logiface.Level's
// String method, plus a few common aliases) to a logiface.Level.
func ParseLevel(s string) (logiface.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case `disabled`, `off`, `none`:
		return logiface.LevelDisabled, nil
	case `emerg`, `emergency`, `panic`:
		return logiface.LevelEmergency, nil
	case `alert`:
		return logiface.LevelAlert, nil
	case `crit`, `critical`:
		return logiface.LevelCritical, nil
	case `err`, `error`:
		return logiface.LevelError, nil
	case `warning`, `warn`:
		return logiface.LevelWarning, nil
	case `notice`:
		return logiface.LevelNotice, nil
	case `info`, `informational`:
		return logiface.LevelInformational, nil
	case `debug`:
		return logiface.LevelDebug, nil
	case `trace`:
		return logiface.LevelTrace, nil
	default:
		return 0, fmt.Errorf(`logging: unknown level: %q`, s)
	}
}

// New returns a JSON logger writing to w, at the given level. The time field
// is omitted if noTime is true, which is useful for reproducible output.
func New(w io.Writer, level logiface.Level, noTime bool) *logiface.Logger[logiface.Event] {
	if w == nil {
		panic(`logging: nil writer`)
	}
	stumpyOptions := []stumpy.Option{stumpy.WithWriter(w)}
	if noTime {
		stumpyOptions = append(stumpyOptions, stumpy.WithTimeField(``))
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpyOptions...),
		stumpy.L.WithLevel(level),
	).Logger()
}
