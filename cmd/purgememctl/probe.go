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
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"purgemem/pkg/purgeplatform"
)

// probeCmd implements subcommands.Command for the "probe" command.
type probeCmd struct{}

// Name implements subcommands.Command.Name.
func (*probeCmd) Name() string { return "probe" }

// Synopsis implements subcommands.Command.Synopsis.
func (*probeCmd) Synopsis() string {
	return "report whether this kernel supports purgeable mappings and UXPT"
}

// Usage implements subcommands.Command.Usage.
func (*probeCmd) Usage() string { return "probe\n" }

// SetFlags implements subcommands.Command.SetFlags.
func (*probeCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*probeCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	if purgeplatform.Supported() {
		fmt.Println("supported: purgeable mappings and UXPT are available")
	} else {
		fmt.Println("unsupported: falling back to plain anonymous mappings")
	}
	return subcommands.ExitSuccess
}
