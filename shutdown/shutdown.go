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
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// ParentPIDEnv carries the supervising process's ID to the child.
	ParentPIDEnv = "PROCVISOR_PARENT_PID"

	// DirEnv overrides the directory holding listener sockets.
	DirEnv = "PROCVISOR_SHUTDOWN_DIR"

	requestExit = "exit"
	replyOK     = "ok"
)

var (
	ErrNoListener = errors.New("shutdown: process is not listening")
	ErrRefused    = errors.New("shutdown: request refused")
	ErrBadPID     = errors.New("shutdown: bad process id")
)

// Dir returns the directory where listener sockets live.
func Dir() string {
	if d := os.Getenv(DirEnv); d != "" {
		return d
	}
	return os.TempDir()
}

// Address returns the socket path for pid within dir.  An empty dir means
// Dir().
func Address(dir string, pid int) string {
	if dir == "" {
		dir = Dir()
	}
	return filepath.Join(dir, "procvisor-"+strconv.Itoa(pid)+".sock")
}

// Client sends shutdown requests.  The zero value uses Dir().
type Client struct {
	Dir string
}

// Signal asks the process pid to exit, using the default Client.
func Signal(ctx context.Context, pid int) error {
	return Client{}.Signal(ctx, pid)
}

// Signal delivers one exit request to pid.  It returns nil once the
// listener has accepted it, ErrNoListener if nobody is listening, or the
// context's error if ctx ends first.
func (c Client) Signal(ctx context.Context, pid int) error {
	if pid <= 0 {
		return ErrBadPID
	}
	var d net.Dialer
	conn, e := d.DialContext(ctx, "unix", Address(c.Dir, pid))
	if e != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrNoListener, e)
	}
	defer conn.Close()

	// Unblock the read below if ctx ends first.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, e = conn.Write([]byte(requestExit + "\n")); e == nil {
		var line string
		line, e = bufio.NewReader(conn).ReadString('\n')
		if e == nil {
			if strings.TrimSpace(line) != replyOK {
				return ErrRefused
			}
			return nil
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return e
}

// Listener receives shutdown requests for one process.
type Listener struct {
	l         net.Listener
	path      string
	requested chan struct{}
	once      sync.Once
	wg        sync.WaitGroup
}

// ListenSelf listens on behalf of the calling process.
func ListenSelf() (*Listener, error) {
	return Listen("", os.Getpid())
}

// Listen opens the channel for pid in dir (empty for Dir()).  A stale
// socket left behind by an earlier process with the same ID is removed.
func Listen(dir string, pid int) (*Listener, error) {
	if pid <= 0 {
		return nil, ErrBadPID
	}
	path := Address(dir, pid)
	if e := os.Remove(path); e != nil && !errors.Is(e, os.ErrNotExist) {
		return nil, e
	}
	l, e := net.Listen("unix", path)
	if e != nil {
		return nil, e
	}
	ln := &Listener{
		l:         l,
		path:      path,
		requested: make(chan struct{}),
	}
	ln.wg.Add(1)
	go ln.serve()
	return ln, nil
}

// Requested is closed when the first exit request arrives.
func (ln *Listener) Requested() <-chan struct{} {
	return ln.requested
}

// Path returns the socket path we listen on.
func (ln *Listener) Path() string {
	return ln.path
}

// Close stops listening and removes the socket.
func (ln *Listener) Close() error {
	e := ln.l.Close()
	ln.wg.Wait()
	return e
}

func (ln *Listener) serve() {
	defer ln.wg.Done()
	for {
		conn, e := ln.l.Accept()
		if e != nil {
			return
		}
		ln.wg.Add(1)
		go ln.handle(conn)
	}
}

func (ln *Listener) handle(conn net.Conn) {
	defer ln.wg.Done()
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(10 * time.Second))
	line, e := bufio.NewReader(conn).ReadString('\n')
	if e != nil {
		return
	}
	if strings.TrimSpace(line) != requestExit {
		conn.Write([]byte("error unknown request\n"))
		return
	}
	ln.once.Do(func() { close(ln.requested) })
	conn.Write([]byte(replyOK + "\n"))
}
