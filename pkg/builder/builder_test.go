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

package builder

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"purgemem/pkg/purgeerr"
)

func setByte(b byte) ModifyFunc {
	return func(buf []byte, size int, param any) bool {
		off := param.(int)
		if off >= size {
			return false
		}
		buf[off] = b
		return true
	}
}

func TestBuildAllEmptyChain(t *testing.T) {
	var c Chain
	buf := make([]byte, 4)
	if !c.BuildAll(buf, len(buf)) {
		t.Fatalf("BuildAll on empty chain failed")
	}
	if got, want := buf, make([]byte, 4); !cmp.Equal(got, want) {
		t.Errorf("buf = %v, want %v", got, want)
	}
}

func TestBuildAllOrderingLaterWins(t *testing.T) {
	var c Chain
	if err := c.Append(setByte('a'), 0); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := c.Append(setByte('b'), 0); err != nil {
		t.Fatalf("Append: %v", err)
	}
	buf := make([]byte, 1)
	if !c.BuildAll(buf, len(buf)) {
		t.Fatalf("BuildAll failed")
	}
	if buf[0] != 'b' {
		t.Errorf("buf[0] = %c, want 'b' (later append should win on replay)", buf[0])
	}
}

func TestBuildAllAbortsOnFirstFailure(t *testing.T) {
	var c Chain
	if err := c.Append(setByte('a'), 0); err != nil {
		t.Fatalf("Append: %v", err)
	}
	failing := func(buf []byte, size int, param any) bool { return false }
	if err := c.Append(failing, nil); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := c.Append(setByte('z'), 0); err != nil {
		t.Fatalf("Append: %v", err)
	}
	buf := make([]byte, 1)
	if c.BuildAll(buf, len(buf)) {
		t.Fatalf("BuildAll succeeded, want failure")
	}
	if buf[0] != 'a' {
		t.Errorf("buf[0] = %c, want 'a' (steps after the failure must not run)", buf[0])
	}
}

func TestAppendNilFn(t *testing.T) {
	var c Chain
	err := c.Append(nil, 0)
	if err == nil {
		t.Fatalf("Append(nil, ...) succeeded, want error")
	}
	if err.Code() != purgeerr.BuilderNull {
		t.Errorf("err.Code() = %v, want %v", err.Code(), purgeerr.BuilderNull)
	}
}

func TestDestroyClearsChain(t *testing.T) {
	var c Chain
	if err := c.Append(setByte('a'), 0); err != nil {
		t.Fatalf("Append: %v", err)
	}
	c.Destroy()
	if !c.Empty() {
		t.Errorf("chain not empty after Destroy")
	}
	buf := make([]byte, 1)
	if !c.BuildAll(buf, len(buf)) {
		t.Fatalf("BuildAll on destroyed chain failed")
	}
	if buf[0] != 0 {
		t.Errorf("buf[0] = %d, want 0 (destroyed chain must replay nothing)", buf[0])
	}
}
