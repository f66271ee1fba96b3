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
	"strings"
	"testing"
	"time"
)

type testWriter struct {
	lines []string
	fail  bool
}

func (w *testWriter) Write(bytes []byte) (int, error) {
	if w.fail {
		return 0, fmt.Errorf("simulated failure")
	}
	w.lines = append(w.lines, string(bytes))
	return len(bytes), nil
}

func TestWriterDropsAndCountsOnFailingSink(t *testing.T) {
	tw := &testWriter{}
	w := Writer{Next: tw}

	if _, err := w.Write([]byte("line 1\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	tw.fail = true
	if _, err := w.Write([]byte("dropped 1\n")); err == nil {
		t.Fatalf("Write over a failing sink should have failed")
	}
	if _, err := w.Write([]byte("dropped 2\n")); err == nil {
		t.Fatalf("Write over a failing sink should have failed")
	}

	tw.fail = false
	if _, err := w.Write([]byte("line 2\n")); err != nil {
		t.Fatalf("Write after recovery failed: %v", err)
	}

	// The drop notice is written to the sink on its own, just before the
	// first message that gets through after the failures.
	if len(tw.lines) != 3 {
		t.Fatalf("testWriter recorded %d lines, want 3: %v", len(tw.lines), tw.lines)
	}
	if tw.lines[0] != "line 1\n" {
		t.Errorf("first recorded line = %q, want %q", tw.lines[0], "line 1\n")
	}
	if !strings.Contains(tw.lines[1], "Dropped 2 log messages") || tw.lines[2] != "line 2\n" {
		t.Errorf("recorded lines after recovery = %q, %q, want a drop notice followed by %q", tw.lines[1], tw.lines[2], "line 2\n")
	}
}

func TestBasicLoggerLevelFiltering(t *testing.T) {
	tw := &testWriter{}
	l := &BasicLogger{Emitter: GoogleEmitter{Writer: &Writer{Next: tw}}}
	l.SetLevel(Info)

	l.Debugf("debug: %d", 1)
	l.Infof("info: %d", 2)
	l.Warningf("warning: %d", 3)

	if len(tw.lines) != 2 {
		t.Fatalf("got %d emitted lines at Info level, want 2 (Debug filtered out): %v", len(tw.lines), tw.lines)
	}
	if !strings.Contains(tw.lines[0], "info: 2") {
		t.Errorf("first line = %q, want it to contain %q", tw.lines[0], "info: 2")
	}
	if !strings.Contains(tw.lines[1], "warning: 3") {
		t.Errorf("second line = %q, want it to contain %q", tw.lines[1], "warning: 3")
	}
}

func TestRateLimitedLoggerThrottles(t *testing.T) {
	tw := &testWriter{}
	base := &BasicLogger{Emitter: GoogleEmitter{Writer: &Writer{Next: tw}}}
	base.SetLevel(Debug)

	rl := RateLimitedLogger(base, time.Hour)
	for i := 0; i < 5; i++ {
		rl.Warningf("repeated probe failure #%d", i)
	}

	if len(tw.lines) != 1 {
		t.Fatalf("rate-limited logger emitted %d lines for 5 calls within the window, want 1: %v", len(tw.lines), tw.lines)
	}
	if !strings.Contains(tw.lines[0], "repeated probe failure #0") {
		t.Errorf("emitted line = %q, want the first call's message", tw.lines[0])
	}
}
