// Package logging builds the logr.Logger handed to library packages.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels lists the accepted --log-level names, most severe first.
var Levels = []string{"ERROR", "WARNING", "NOTICE", "INFO", "DEBUG", "NONE"}

// ParseLevel maps a level name to a zap level. ok is false for NONE, which
// disables logging.
func ParseLevel(name string) (level zapcore.Level, ok bool, err error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ERROR":
		return zapcore.ErrorLevel, true, nil
	case "WARNING", "WARN":
		return zapcore.WarnLevel, true, nil
	case "NOTICE", "INFO", "":
		return zapcore.InfoLevel, true, nil
	case "DEBUG":
		// V(1) is zap level -1
		return zapcore.DebugLevel, true, nil
	case "NONE":
		return zapcore.InfoLevel, false, nil
	default:
		return 0, false, fmt.Errorf("logging: unknown level %q (want one of %s)", name, strings.Join(Levels, ", "))
	}
}

// New returns a console logger writing to w at the named level. verbose
// raises the level to DEBUG unless logging is disabled.
func New(w io.Writer, level string, verbose bool) (logr.Logger, error) {
	lvl, ok, err := ParseLevel(level)
	if err != nil {
		return logr.Discard(), err
	}
	if !ok {
		return logr.Discard(), nil
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))
	return zapr.NewLogger(zap.New(core)), nil
}
