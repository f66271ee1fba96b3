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

// Package purgeerr holds the tagged error variants used internally by the
// purgeable memory library. Public API functions never return these
// directly (they collapse to bool/nil per the library's propagation
// policy); tests and diagnostic tooling consume them for their Code.
package purgeerr

import "fmt"

// Code identifies the kind of failure that occurred.
type Code int

const (
	// MMAPDataFail indicates that mapping the data region failed.
	MMAPDataFail Code = iota
	// UnmapDataFail indicates that unmapping the data region failed.
	UnmapDataFail
	// MMAPUXPTFail indicates that mapping the UXPT window failed.
	MMAPUXPTFail
	// UnmapUXPTFail indicates that unmapping the UXPT window failed.
	UnmapUXPTFail
	// LockReadFail indicates that acquiring the read lock failed.
	LockReadFail
	// LockWriteFail indicates that acquiring the write lock failed.
	LockWriteFail
	// UnlockReadFail indicates that releasing the read lock failed.
	UnlockReadFail
	// UnlockWriteFail indicates that releasing the write lock failed.
	UnlockWriteFail
	// BuilderNull indicates that a builder step function was nil.
	BuilderNull
	// BuilderAppendFail indicates that appending a builder step failed.
	BuilderAppendFail
	// BuildAllFail indicates that a builder chain replay failed partway.
	BuildAllFail
	// UXPTOutRange indicates that a UXPT range operation fell outside the
	// table's covered range.
	UXPTOutRange
	// UXPTNoPresent indicates that a UXPT range contained at least one
	// not-present page.
	UXPTNoPresent
)

// String returns a human-readable name for c.
func (c Code) String() string {
	switch c {
	case MMAPDataFail:
		return "MMAP_DATA_FAIL"
	case UnmapDataFail:
		return "UNMAP_DATA_FAIL"
	case MMAPUXPTFail:
		return "MMAP_UXPT_FAIL"
	case UnmapUXPTFail:
		return "UNMAP_UXPT_FAIL"
	case LockReadFail:
		return "LOCK_READ_FAIL"
	case LockWriteFail:
		return "LOCK_WRITE_FAIL"
	case UnlockReadFail:
		return "UNLOCK_READ_FAIL"
	case UnlockWriteFail:
		return "UNLOCK_WRITE_FAIL"
	case BuilderNull:
		return "BUILDER_NULL"
	case BuilderAppendFail:
		return "BUILDER_APPEND_FAIL"
	case BuildAllFail:
		return "BUILD_ALL_FAIL"
	case UXPTOutRange:
		return "UXPT_OUT_RANGE"
	case UXPTNoPresent:
		return "UXPT_NO_PRESENT"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error pairs a Code with a descriptive message, as a sentinel-free
// alternative to the errno-style tagged unions the library is modeled on.
type Error struct {
	code    Code
	message string
}

// New creates a new *Error.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Errorf is like New, but formats message per fmt.Sprintf.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Error implements error.Error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Code returns the underlying Code.
func (e *Error) Code() Code { return e.code }
