// Package `mulog` provides minimal Zap-Sugar-like loggers with convenient
// structured logging `Levelw(msg, kv...)` functions.
package mulog

import (
	"fmt"
	"log"
	"os"
)

// `Logger` prints messages with timestamps, using package `log`.
type Logger struct{}

func (Logger) Debugw(msg string, kv ...interface{}) {
	log.Printf("debug: %s %v\n", msg, kv)
}

func (Logger) Infow(msg string, kv ...interface{}) {
	log.Printf("info: %s %v\n", msg, kv)
}

func (Logger) Warnw(msg string, kv ...interface{}) {
	log.Printf("warning: %s %v\n", msg, kv)
}

func (Logger) Errorw(msg string, kv ...interface{}) {
	log.Printf("error: %s %v\n", msg, kv)
}

func (Logger) Fatalw(msg string, kv ...interface{}) {
	log.Fatalf("fatal: %s %v\n", msg, kv)
}

// `Printer` prints undecorated messages to stderr, using package `fmt`.
// Debug messages are dropped.
type Printer struct{}

func (Printer) Debugw(msg string, kv ...interface{}) {}

func (Printer) Infow(msg string, kv ...interface{}) {
	fmt.Fprintf(os.Stderr, "info: %s %v\n", msg, kv)
}

func (Printer) Warnw(msg string, kv ...interface{}) {
	fmt.Fprintf(os.Stderr, "warning: %s %v\n", msg, kv)
}

func (Printer) Errorw(msg string, kv ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: %s %v\n", msg, kv)
}

func (Printer) Fatalw(msg string, kv ...interface{}) {
	fmt.Fprintf(os.Stderr, "fatal: %s %v\n", msg, kv)
	os.Exit(1)
}

// `Discard` drops all messages.  `Fatalw()` panics instead of exiting.
type Discard struct{}

func (Discard) Debugw(msg string, kv ...interface{}) {}
func (Discard) Infow(msg string, kv ...interface{})  {}
func (Discard) Warnw(msg string, kv ...interface{})  {}
func (Discard) Errorw(msg string, kv ...interface{}) {}

func (Discard) Fatalw(msg string, kv ...interface{}) {
	panic(fmt.Sprintf("fatal: %s %v", msg, kv))
}
