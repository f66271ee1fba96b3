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

// Package builder implements the replayable modification chain that a
// purgeable object uses to rebuild its content after a purge: a singly
// linked list of (function, parameter) steps, replayed in append order
// against a zeroed buffer.
package builder

import "purgemem/pkg/purgeerr"

// ModifyFunc mutates buf (sized size) using param, returning false if the
// modification could not be applied. Implementations must be idempotent
// relative to a zeroed starting buffer: replaying the same chain against
// a fresh zero buffer must always produce the same bytes.
type ModifyFunc func(buf []byte, size int, param any) bool

// node is one link in the chain.
type node struct {
	fn    ModifyFunc
	param any
	next  *node
}

// Chain is an ordered list of modification steps. The zero value is an
// empty chain.
type Chain struct {
	head *node
	tail *node
}

// Append allocates a node for (fn, param) and links it at the tail of c,
// so that it runs after every step already in the chain.
func (c *Chain) Append(fn ModifyFunc, param any) *purgeerr.Error {
	if fn == nil {
		return purgeerr.New(purgeerr.BuilderNull, "Append: fn is nil")
	}
	n := &node{fn: fn, param: param}
	if c.head == nil {
		c.head = n
		c.tail = n
		return nil
	}
	c.tail.next = n
	c.tail = n
	return nil
}

// Destroy releases every node in c. After Destroy, c is an empty chain
// and may be reused.
func (c *Chain) Destroy() {
	for n := c.head; n != nil; {
		next := n.next
		n.next = nil
		n = next
	}
	c.head = nil
	c.tail = nil
}

// Empty reports whether c has no steps.
func (c *Chain) Empty() bool {
	return c.head == nil
}

// BuildAll replays every step in c, in append order, against buf (sized
// size). It aborts on the first step that returns false and reports
// false; it returns true only if every step succeeded, including when c
// is empty.
func (c *Chain) BuildAll(buf []byte, size int) bool {
	for n := c.head; n != nil; n = n.next {
		if !n.fn(buf, size, n.param) {
			return false
		}
	}
	return true
}
