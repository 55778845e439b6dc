// Package log provides a minimal leveled logger for the patch pipeline.
package log

import (
	"fmt"
	"io"
	"os"
)

type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type logger struct {
	w     io.Writer
	debug bool
}

// New returns a Logger writing to stdout. Debug output is suppressed
// unless enabled.
func New(debug bool) Logger {
	return &logger{w: os.Stdout, debug: debug}
}

func (l *logger) Infof(format string, args ...interface{}) {
	fmt.Fprintf(l.w, "[INFO]\t"+format+"\n", args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	fmt.Fprintf(l.w, "[ERROR]\t"+format+"\n", args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	fmt.Fprintf(l.w, "[DEBUG]\t"+format+"\n", args...)
}
