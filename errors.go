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

package procvisor

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("Trigger not permitted in current state")
	ErrNoExecutable      = errors.New("No executable path configured")
	ErrBadRunType        = errors.New("Bad run type")
	ErrBadState          = errors.New("Bad state name")
	ErrBadManifest       = errors.New("Bad manifest")
	ErrClosed            = errors.New("Supervisor is closed")
)

// InvalidTransitionError is returned when a caller fires a trigger that
// the current state does not permit, such as calling Stop on a process that
// is not running.  It always matches ErrInvalidTransition.
type InvalidTransitionError struct {
	State   State
	Trigger string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s not permitted in state %s",
		ErrInvalidTransition.Error(), e.Trigger, e.State)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
