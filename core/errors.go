package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Code is a stable, machine-readable error classification.
type Code int

// Error codes. Values are stable and may be persisted or compared across versions.
const (
	CodeOK Code = iota
	// CodeBadArg covers malformed arguments: bad sizes, types, kernel shapes.
	CodeBadArg
	// CodeNoMem reports an allocation failure.
	CodeNoMem
	// CodeUnsupportedFormat reports an unsupported depth or depth combination.
	CodeUnsupportedFormat
	// CodeOutOfRange reports an index outside its valid range.
	CodeOutOfRange
	// CodeAssert reports a violated internal contract (programming error).
	CodeAssert
	// CodeBadState reports an operation invoked in the wrong lifecycle state.
	CodeBadState
	// CodeSizeMismatch reports operands whose shapes disagree.
	CodeSizeMismatch
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeBadArg:
		return "bad argument"
	case CodeNoMem:
		return "out of memory"
	case CodeUnsupportedFormat:
		return "unsupported format"
	case CodeOutOfRange:
		return "out of range"
	case CodeAssert:
		return "assertion failed"
	case CodeBadState:
		return "bad state"
	case CodeSizeMismatch:
		return "size mismatch"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Sentinel errors, one per Code. Use errors.Is to classify any error
// returned by this module.
var (
	// ErrBadArg is returned for malformed arguments.
	ErrBadArg = errors.New("core: bad argument")

	// ErrNoMem is returned when an allocation fails.
	ErrNoMem = errors.New("core: out of memory")

	// ErrUnsupportedFormat is returned for unsupported depths or depth combinations.
	ErrUnsupportedFormat = errors.New("core: unsupported format")

	// ErrOutOfRange is raised (via panic) for out-of-bounds element access.
	ErrOutOfRange = errors.New("core: index out of range")

	// ErrAssert is raised (via panic) when an internal contract is violated.
	ErrAssert = errors.New("core: assertion failed")

	// ErrBadState is returned or raised when an operation runs out of order.
	ErrBadState = errors.New("core: bad state")

	// ErrSizeMismatch is returned when operand shapes disagree.
	ErrSizeMismatch = errors.New("core: size mismatch")

	// ErrAllocatorFrozen is returned by SetDefaultAllocator once the default
	// allocator has been read or set.
	ErrAllocatorFrozen = errors.New("core: default allocator already in use")
)

var codeSentinels = map[Code]error{
	CodeBadArg:            ErrBadArg,
	CodeNoMem:             ErrNoMem,
	CodeUnsupportedFormat: ErrUnsupportedFormat,
	CodeOutOfRange:        ErrOutOfRange,
	CodeAssert:            ErrAssert,
	CodeBadState:          ErrBadState,
	CodeSizeMismatch:      ErrSizeMismatch,
}

// Error is a classified error carrying the call site that raised it.
type Error struct {
	Code Code
	Msg  string
	Func string
	File string
	Line int
}

// Error formats as "file:line: func: code: msg".
func (e *Error) Error() string {
	var b strings.Builder
	if e.File != "" {
		fmt.Fprintf(&b, "%s:%d: ", e.File, e.Line)
	}
	if e.Func != "" {
		b.WriteString(e.Func)
		b.WriteString(": ")
	}
	b.WriteString(e.Code.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

// Is matches the sentinel error for the same Code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Code == e.Code
	}
	s, ok := codeSentinels[e.Code]
	return ok && s == target
}

// Errorf builds an *Error for code, recording the caller's function, file and line.
func Errorf(code Code, format string, args ...any) *Error {
	return newError(2, code, fmt.Sprintf(format, args...))
}

func newError(skip int, code Code, msg string) *Error {
	e := &Error{Code: code, Msg: msg}
	if pc, file, line, ok := runtime.Caller(skip); ok {
		e.File = filepath.Base(file)
		e.Line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			name := fn.Name()
			if i := strings.LastIndexByte(name, '/'); i >= 0 {
				name = name[i+1:]
			}
			e.Func = name
		}
	}
	return e
}

// Assert panics with a CodeAssert *Error when cond is false.
// It guards programming errors that must fail fast rather than miscompute.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(newError(2, CodeAssert, fmt.Sprintf(format, args...)))
	}
}

// CodeOf extracts the Code of err, or CodeOK for nil and an unclassified
// code for foreign errors.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	for c, s := range codeSentinels {
		if errors.Is(err, s) {
			return c
		}
	}
	return -1
}
