package utils

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"unicode"
)

var onamSourceDir string

func init() {
	_, file, _, _ := runtime.Caller(0)
	onamSourceDir = sourceDir(file)
}

// sourceDir returns the module root for a file living in <root>/utils.
func sourceDir(file string) string {
	dir := filepath.Dir(filepath.Dir(file))
	return filepath.ToSlash(dir) + "/"
}

// FileWithLineNum return the file name and line number of the first caller
// outside of this module (test files excepted).
func FileWithLineNum() string {
	frame := CallerFrame()
	if frame.PC == 0 {
		return ""
	}
	return frame.File + ":" + strconv.FormatInt(int64(frame.Line), 10)
}

// CallerFrame retrieves the first relevant stack frame outside of the module.
func CallerFrame() runtime.Frame {
	pcs := [13]uintptr{}
	// the third caller usually from onam internal
	length := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:length])
	for i := 0; i < length; i++ {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.File, onamSourceDir) || strings.HasSuffix(frame.File, "_test.go") {
			return frame
		}
		if !more {
			break
		}
	}
	return runtime.Frame{}
}

// IsValidDBNameChar reports whether c separates identifiers in a table or
// column name.
func IsValidDBNameChar(c rune) bool {
	return !unicode.IsLetter(c) && !unicode.IsNumber(c) && c != '.' && c != '*' && c != '_' && c != '$' && c != '@'
}

// Contains reports whether elem is in elems.
func Contains(elems []string, elem string) bool {
	for _, e := range elems {
		if elem == e {
			return true
		}
	}
	return false
}
