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

package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"purgemem/pkg/purgemem"
)

// demoCmd implements subcommands.Command for the "demo" command.
type demoCmd struct {
	size    int
	pattern int
}

// Name implements subcommands.Command.Name.
func (*demoCmd) Name() string { return "demo" }

// Synopsis implements subcommands.Command.Synopsis.
func (*demoCmd) Synopsis() string {
	return "create a purgeable object, force a purge, and show the rebuild"
}

// Usage implements subcommands.Command.Usage.
func (*demoCmd) Usage() string { return "demo [-size bytes] [-pattern byte]\n" }

// SetFlags implements subcommands.Command.SetFlags.
func (d *demoCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&d.size, "size", 4096, "size in bytes of the demo object")
	f.IntVar(&d.pattern, "pattern", 0xAB, "byte value the object is filled with")
}

// Execute implements subcommands.Command.Execute.
func (d *demoCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	fillByte := byte(d.pattern)
	fill := func(buf []byte, size int, param any) bool {
		for i := 0; i < size; i++ {
			buf[i] = fillByte
		}
		return true
	}

	obj := purgemem.Create(d.size, fill, nil)
	if obj == nil {
		fmt.Println("create failed")
		return subcommands.ExitFailure
	}
	defer obj.Destroy()

	if !obj.BeginRead() {
		fmt.Println("begin_read failed before any purge")
		return subcommands.ExitFailure
	}
	before := sha256.Sum256(obj.GetContent())
	obj.EndRead()
	fmt.Printf("before purge: build_count=%d digest=%x\n", obj.BuildCount(), before)

	obj.SimulatePurge()

	if !obj.BeginRead() {
		fmt.Println("begin_read failed after simulated purge")
		return subcommands.ExitFailure
	}
	after := sha256.Sum256(obj.GetContent())
	obj.EndRead()
	fmt.Printf("after rebuild:  build_count=%d digest=%x\n", obj.BuildCount(), after)

	if before != after {
		fmt.Println("content mismatch after rebuild")
		return subcommands.ExitFailure
	}
	fmt.Println("content identical across the purge/rebuild cycle")
	return subcommands.ExitSuccess
}
