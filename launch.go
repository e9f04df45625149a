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
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"

	"github.com/gdamore/procvisor/shutdown"
)

// maxLine is the longest partial line we buffer before emitting it anyway.
const maxLine = 64 * 1024

// launch is the entry action for Running.  On failure it records the error
// and queues StartError, so the caller sees StartFailed when Start returns.
func (s *Supervisor) launch() {
	runID := uuid.NewString()
	stdout := s.newLineWriter(runID, Stdout)
	stderr := s.newLineWriter(runID, Stderr)

	cmd, e := s.command()
	if e == nil {
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		e = cmd.Start()
	}
	if e != nil {
		s.logger.Error("Failed to start process", "path", s.cfg.Path,
			"dir", s.cfg.Dir, "error", e)
		s.metrics.startFailure()
		s.mu.Lock()
		s.err = e
		s.info = nil
		s.proc = nil
		s.exited = nil
		s.mu.Unlock()
		s.enqueue(request{trig: trigStartError})
		return
	}

	info := &ProcessInfo{
		RunID:     runID,
		PID:       cmd.Process.Pid,
		StartedAt: time.Now(),
	}
	exited := make(chan struct{})

	s.mu.Lock()
	s.info = info
	s.proc = cmd.Process
	s.exited = exited
	s.mu.Unlock()

	s.metrics.started()
	s.logger.Info("Process started", "pid", info.PID, "path", cmd.Path,
		"run_id", runID)

	go s.wait(cmd, info, exited, stdout, stderr)
}

func (s *Supervisor) command() (*exec.Cmd, error) {
	if s.cfg.Path == "" {
		return nil, ErrNoExecutable
	}
	args := s.cfg.ArgList
	if args == nil && s.cfg.Args != "" {
		var e error
		if args, e = shellquote.Split(s.cfg.Args); e != nil {
			return nil, fmt.Errorf("bad argument string: %w", e)
		}
	}
	cmd := exec.Command(s.cfg.Path, args...)
	cmd.Dir = s.cfg.Dir
	cmd.Env = s.environ()
	cmd.WaitDelay = s.cfg.WaitDelay
	return cmd, nil
}

// environ merges the configured variables over our own environment.
// exec.Cmd keeps the last of any duplicate keys.
func (s *Supervisor) environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(s.cfg.Env))
	for k := range s.cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+s.cfg.Env[k])
	}
	if s.cfg.ParentPID > 0 {
		env = append(env,
			shutdown.ParentPIDEnv+"="+strconv.Itoa(s.cfg.ParentPID))
	}
	return env
}

// wait is the exit notification.  It records the exit code before firing
// ProcessExit, so the guards see it.
func (s *Supervisor) wait(cmd *exec.Cmd, info *ProcessInfo, exited chan struct{},
	outs ...*lineWriter) {

	e := cmd.Wait()
	for _, w := range outs {
		w.Flush()
	}

	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	var ee *exec.ExitError
	if e != nil && !errors.As(e, &ee) {
		s.logger.Warn("Error waiting for process", "pid", info.PID, "error", e)
	}

	s.mu.Lock()
	info.Exited = true
	info.ExitCode = code
	info.ExitedAt = time.Now()
	s.mu.Unlock()
	close(exited)

	s.logger.Info("Process exited", "pid", info.PID, "exit_code", code)

	if e := s.fire(request{trig: trigProcessExit}); e != nil {
		s.logger.Error("Exit notification rejected", "pid", info.PID,
			"error", e)
	}
}

// lineWriter splits what the child writes into lines, and hands each one
// to emit.
type lineWriter struct {
	buf  []byte
	emit func(string)
	lock sync.Mutex
}

func (s *Supervisor) newLineWriter(runID string, stream Stream) *lineWriter {
	return &lineWriter{
		emit: func(line string) {
			s.logger.Debug("Process output", "stream", string(stream),
				"line", line)
			s.publishOutput(OutputLine{
				RunID:  runID,
				Stream: stream,
				Text:   line,
				Time:   time.Now(),
			})
		},
	}
}

func (w *lineWriter) Write(b []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.buf = append(w.buf, b...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(string(bytes.TrimSuffix(w.buf[:i], []byte{'\r'})))
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) >= maxLine {
		w.emit(string(w.buf))
		w.buf = nil
	}
	return len(b), nil
}

// Flush emits any trailing text that had no line terminator.
func (w *lineWriter) Flush() {
	w.lock.Lock()
	defer w.lock.Unlock()
	if len(w.buf) != 0 {
		w.emit(string(w.buf))
		w.buf = nil
	}
}
