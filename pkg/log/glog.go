// Copyright 2018 Google LLC
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

package log

import (
	"fmt"
	"os"
	"time"
)

// GoogleEmitter formats log lines in a style compatible with
// github.com/golang/glog and writes the result to the wrapped Writer.
// It is purgemem's sole default emitter: the library logs rarely enough
// (probe results, the occasional failed unmap) that per-call allocation
// is not worth avoiding, unlike in a sandboxed-kernel hot path.
type GoogleEmitter struct {
	*Writer
}

var pid = os.Getpid()

// levelChar returns the single glog-style level character for l.
func levelChar(l Level) byte {
	switch l {
	case Debug:
		return 'D'
	case Info:
		return 'I'
	case Warning:
		return 'W'
	default:
		return '?'
	}
}

// Emit implements Emitter.Emit. Log lines have the form:
//
//	Lmmdd hh:mm:ss.uuuuuu pid] msg...
func (g GoogleEmitter) Emit(depth int, level Level, timestamp time.Time, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%c%s %d] %s\n", levelChar(level), timestamp.Format("0102 15:04:05.000000"), pid, msg)
	g.Writer.Write([]byte(line))
}
