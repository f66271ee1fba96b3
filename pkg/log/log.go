// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log implements a leveled logging package, used throughout the
// purgeable memory library in place of the standard library's "log"
// package. Components that need to surface best-effort diagnostics (a
// probe failed to map, an unmap on destroy didn't succeed) log through
// here instead of returning an error that would force every caller to
// handle conditions the library itself treats as non-fatal.
package log

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Level is the log level.
type Level int32

const (
	// Warning indicates that the message is a warning.
	Warning Level = iota

	// Info indicates that the message is informational.
	Info

	// Debug indicates that the message is a debug message.
	Debug
)

// String returns a human-readable representation of the level.
func (l Level) String() string {
	switch l {
	case Warning:
		return "Warning"
	case Info:
		return "Info"
	case Debug:
		return "Debug"
	default:
		return fmt.Sprintf("Level(%d)", int32(l))
	}
}

// Emitter is the basic interface for logging output.
type Emitter interface {
	// Emit emits the given log statement. depth is the number of calls
	// between Emit and the original logging function, for callers that
	// include source information in the result.
	Emit(depth int, level Level, timestamp time.Time, format string, args ...any)
}

// Writer writes to the wrapped io.Writer, dropping (and counting) any
// messages that fail, instead of returning the failure to the logging
// function that triggered the write.
type Writer struct {
	// Next is the next writer in the chain.
	Next interface {
		Write([]byte) (int, error)
	}

	// mu protects dropMessages below.
	mu sync.Mutex

	// dropMessages counts the number of dropped messages since the last
	// successful write.
	dropMessages uint64
}

// Write implements io.Writer.Write.
func (w *Writer) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dropMessages > 0 {
		if _, err := fmt.Fprintf(w.Next, "\n*** Dropped %d log messages ***\n", w.dropMessages); err != nil {
			w.dropMessages++
			return 0, err
		}
		w.dropMessages = 0
	}

	n, err := w.Next.Write(data)
	if err != nil {
		w.dropMessages++
	}
	return n, err
}

// BasicLogger logs to a provided Emitter, if a given level is enabled.
type BasicLogger struct {
	level atomic.Int32
	Emitter
}

// IsLogging implements Logger.IsLogging.
func (l *BasicLogger) IsLogging(level Level) bool {
	return Level(l.level.Load()) >= level
}

// SetLevel sets the logging level.
func (l *BasicLogger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Debugf implements Logger.Debugf.
func (l *BasicLogger) Debugf(format string, v ...any) {
	if l.IsLogging(Debug) {
		l.Emit(2, Debug, time.Now(), format, v...)
	}
}

// Infof implements Logger.Infof.
func (l *BasicLogger) Infof(format string, v ...any) {
	if l.IsLogging(Info) {
		l.Emit(2, Info, time.Now(), format, v...)
	}
}

// Warningf implements Logger.Warningf.
func (l *BasicLogger) Warningf(format string, v ...any) {
	if l.IsLogging(Warning) {
		l.Emit(2, Warning, time.Now(), format, v...)
	}
}

// Logger is implemented by the global logging object and by loggers
// constructed for more narrow use (rate-limited, or scoped to a test).
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warningf(format string, v ...any)
	IsLogging(level Level) bool
}

// log is the global logger.
var log atomic.Pointer[BasicLogger]

func init() {
	l := &BasicLogger{Emitter: GoogleEmitter{Writer: &Writer{Next: os.Stderr}}}
	l.SetLevel(Warning)
	log.Store(l)
}

// Log returns the global logger.
func Log() *BasicLogger {
	return log.Load()
}

// SetTarget sets the global logger's emitter. This is not thread safe and
// shouldn't be called concurrently with any logging calls.
func SetTarget(target Emitter) {
	l := &BasicLogger{Emitter: target}
	l.SetLevel(log.Load().Level())
	log.Store(l)
}

// Level returns the log level of l.
func (l *BasicLogger) Level() Level {
	return Level(l.level.Load())
}

// SetLevel sets the logging level for the global logger.
func SetLevel(level Level) {
	log.Load().SetLevel(level)
}

// IsLogging returns whether the global logger is logging at the given level.
func IsLogging(level Level) bool {
	return log.Load().IsLogging(level)
}

// Debugf logs to the global logger.
func Debugf(format string, v ...any) {
	log.Load().Debugf(format, v...)
}

// Infof logs to the global logger.
func Infof(format string, v ...any) {
	log.Load().Infof(format, v...)
}

// Warningf logs to the global logger.
func Warningf(format string, v ...any) {
	log.Load().Warningf(format, v...)
}
