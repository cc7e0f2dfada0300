package logger

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/gookit/color"
)

func Red(format string, args ...interface{}) {
	printer(color.Red, format, args...)
}

func Blue(format string, args ...interface{}) {
	printer(color.Blue, format, args...)
}

func Green(format string, args ...interface{}) {
	printer(color.Green, format, args...)
}

func Yellow(format string, args ...interface{}) {
	printer(color.Yellow, format, args...)
}

func printer(fn color.Color, format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	fn.Printf("%s %s\n", time.Now().Format("15:04"), line)
	log.Println(line)
}

// Debug tracing is the one piece of process-global mutable logger state:
// an atomic enable flag plus the atomic nanosecond timestamp of when it
// was switched on, so trace lines carry an offset from enablement rather
// than absolute wall times.
var (
	debugEnabled    atomic.Bool
	debugStartNanos atomic.Int64
)

// EnableDebugTrace turns debug tracing on, recording the enablement time
// on the first call.
func EnableDebugTrace() {
	debugStartNanos.CompareAndSwap(0, time.Now().UnixNano())
	debugEnabled.Store(true)
}

// DisableDebugTrace turns debug tracing off.
func DisableDebugTrace() {
	debugEnabled.Store(false)
}

// DebugTraceEnabled reports whether debug tracing is on.
func DebugTraceEnabled() bool {
	return debugEnabled.Load()
}

// Trace prints a debug line stamped with the elapsed time since tracing
// was enabled. A no-op while tracing is off, cheap enough for hot paths.
func Trace(format string, args ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	elapsed := time.Duration(time.Now().UnixNano() - debugStartNanos.Load())
	line := fmt.Sprintf(format, args...)
	color.Gray.Printf("+%.3fs %s\n", elapsed.Seconds(), line)
	log.Println(line)
}
