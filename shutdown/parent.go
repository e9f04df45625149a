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

package shutdown

import (
	"context"
	"os"
	"strconv"
	"time"
)

// ParentPID returns the supervising process's ID, if we were given one.
func ParentPID() (int, bool) {
	v := os.Getenv(ParentPIDEnv)
	if v == "" {
		return 0, false
	}
	pid, e := strconv.Atoi(v)
	if e != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// WatchParent returns a channel that is closed once the parent named by
// ParentPIDEnv is gone, checking every interval.  If there is no parent
// identity the channel is never closed.  Watching ends with ctx.
func WatchParent(ctx context.Context, interval time.Duration) <-chan struct{} {
	gone := make(chan struct{})
	pid, ok := ParentPID()
	if !ok {
		return gone
	}
	if interval <= 0 {
		interval = time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			if !alive(pid) {
				close(gone)
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
	return gone
}
