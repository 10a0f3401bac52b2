package regmap

import "fmt"

// LoadError reports a problem reading a register map or a values file.
type LoadError struct {
	File    string // empty when parsing from memory
	Line    int    // 1-based YAML line, 0 if unknown
	Ref     string // dotted path of the offending node, if any
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	loc := e.File
	if e.Line > 0 {
		if loc != "" {
			loc = fmt.Sprintf("%s:%d", loc, e.Line)
		} else {
			loc = fmt.Sprintf("line %d", e.Line)
		}
	}
	msg := e.Message
	if e.Ref != "" {
		msg = e.Ref + ": " + msg
	}
	if loc != "" {
		msg = loc + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return "regmap: " + msg
}

func (e *LoadError) Unwrap() error { return e.Cause }

// UnknownParameterError is returned when an override names a parameter the
// schema does not define.
type UnknownParameterError struct {
	Ref ParamRef
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("regmap: unknown parameter %s", e.Ref)
}
