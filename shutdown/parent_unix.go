// Copyright 2026 The Govisor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build unix

package shutdown

import (
	"errors"

	"golang.org/x/sys/unix"
)

// alive probes pid with signal 0.  EPERM means it exists but is not ours.
func alive(pid int) bool {
	e := unix.Kill(pid, 0)
	return e == nil || errors.Is(e, unix.EPERM)
}
