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

// Package purgeplatform detects, once per process, whether the running
// kernel supports purgeable anonymous mappings and the companion
// user-extended page table (UXPT). Every other package in this module
// consults Supported() rather than probing the kernel itself.
package purgeplatform

import (
	"golang.org/x/sys/unix"

	"purgemem/pkg/atomicbitops"
	"purgemem/pkg/hostarch"
	"purgemem/pkg/log"
	"purgemem/pkg/memutil"
	"purgemem/pkg/purgeflags"
	"purgemem/pkg/sync"
)

var (
	once      sync.Once
	supported atomicbitops.Bool
)

// Supported reports whether this process's kernel supports purgeable
// mappings and UXPT. It probes the kernel exactly once; every subsequent
// call is a single atomic load.
func Supported() bool {
	once.Do(probe)
	return supported.Load()
}

// probe attempts one purgeable mapping and one UXPT mapping covering it,
// unmapping both regardless of outcome. Both failures are expected on any
// kernel that lacks the facility, so they're logged at Debug level, not
// Warning: this is not a misconfiguration, just the common case today.
func probe() {
	const probeLen = hostarch.PageSize

	dataAddr, err := memutil.MapFile(0, probeLen, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANONYMOUS|purgeflags.MapPurgeable, ^uintptr(0), 0)
	if err != nil {
		log.Debugf("purgeplatform: probe mmap(MAP_PURGEABLE) failed: %v", err)
		supported.Store(false)
		return
	}
	defer func() {
		if _, _, errno := unix.RawSyscall6(unix.SYS_MUNMAP, dataAddr, probeLen, 0, 0, 0, 0); errno != 0 {
			log.Warningf("purgeplatform: probe munmap(data) failed: %v", errno)
		}
	}()

	uxptOffset := ((dataAddr >> hostarch.PageShift) >> (hostarch.PageShift - purgeflags.EntryShift)) * hostarch.PageSize
	uxptAddr, err := memutil.MapFile(0, hostarch.PageSize, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANONYMOUS|purgeflags.MapUserExpte, ^uintptr(0), uxptOffset)
	if err != nil {
		log.Debugf("purgeplatform: probe mmap(MAP_USEREXPTE) failed: %v", err)
		supported.Store(false)
		return
	}
	if _, _, errno := unix.RawSyscall6(unix.SYS_MUNMAP, uxptAddr, hostarch.PageSize, 0, 0, 0, 0); errno != 0 {
		log.Warningf("purgeplatform: probe munmap(uxpt) failed: %v", errno)
	}

	log.Infof("purgeplatform: kernel supports purgeable mappings and UXPT")
	supported.Store(true)
}
