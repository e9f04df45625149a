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

// Command procvisord supervises the process described by a manifest and
// serves the REST API for it.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"

	"github.com/gdamore/procvisor"
	"github.com/gdamore/procvisor/rest"
)

type options struct {
	addr      string
	manifest  string
	start     bool
	auth      []string
	maxConns  int
	logFormat string
	logLevel  string
	logFile   string
}

func main() {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "procvisord",
		Short:        "Supervise one process and serve its REST API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.addr, "addr", "a", "127.0.0.1:8321", "listen address")
	f.StringVarP(&opts.manifest, "manifest", "m", "", "process manifest (.toml or .json)")
	f.BoolVarP(&opts.start, "start", "s", false, "start the process immediately")
	f.StringArrayVar(&opts.auth, "auth", nil, "user:bcrypt-hash permitted to use the API (repeatable)")
	f.IntVar(&opts.maxConns, "max-conns", 0, "limit on concurrent connections, 0 for none")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	f.StringVar(&opts.logFile, "log-file", "", "also log to this file, reopened on SIGHUP")
	cmd.MarkFlagRequired("manifest")

	if e := cmd.Execute(); e != nil {
		os.Exit(1)
	}
}

// newLogger returns a logger writing to stderr and, in text form, to the
// daemon log that REST clients can read.
func newLogger(opts *options, hopts *slog.HandlerOptions, daemon *procvisor.Log) (*slog.Logger, *procvisor.MultiHandler, error) {
	var stderr slog.Handler
	switch opts.logFormat {
	case "text":
		stderr = slog.NewTextHandler(os.Stderr, hopts)
	case "json":
		stderr = slog.NewJSONHandler(os.Stderr, hopts)
	default:
		return nil, nil, fmt.Errorf("bad log format %q", opts.logFormat)
	}
	mh := procvisor.NewMultiHandler(stderr, slog.NewTextHandler(daemon, hopts))
	return slog.New(mh), mh, nil
}

// logFile is an optional extra log destination.  Reopening it swaps the
// handler in place, so loggers already handed out follow the new file.
type logFile struct {
	path string
	opts *slog.HandlerOptions
	mh   *procvisor.MultiHandler
	file *os.File
	h    slog.Handler
	mu   sync.Mutex
}

func (lf *logFile) reopen() error {
	f, e := os.OpenFile(lf.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if e != nil {
		return e
	}
	h := slog.NewTextHandler(f, lf.opts)

	lf.mu.Lock()
	defer lf.mu.Unlock()
	lf.mh.AddHandler(h)
	if lf.h != nil {
		lf.mh.DelHandler(lf.h)
		lf.file.Close()
	}
	lf.file, lf.h = f, h
	return nil
}

func (lf *logFile) Close() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if lf.h == nil {
		return nil
	}
	lf.mh.DelHandler(lf.h)
	lf.h = nil
	return lf.file.Close()
}

func run(ctx context.Context, opts *options) error {
	daemonLog := procvisor.NewLog(0)
	var level slog.Level
	if e := level.UnmarshalText([]byte(opts.logLevel)); e != nil {
		return fmt.Errorf("bad log level: %w", e)
	}
	hopts := &slog.HandlerOptions{Level: level}
	logger, mh, e := newLogger(opts, hopts, daemonLog)
	if e != nil {
		return e
	}
	if opts.logFile != "" {
		lf := &logFile{path: opts.logFile, opts: hopts, mh: mh}
		if e := lf.reopen(); e != nil {
			return fmt.Errorf("cannot open log file: %w", e)
		}
		defer lf.Close()

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go func() {
			for range hup {
				if e := lf.reopen(); e != nil {
					logger.Error("Failed to reopen log file", "path", lf.path, "error", e)
				} else {
					logger.Info("Reopened log file", "path", lf.path)
				}
			}
		}()
	}

	m, e := procvisor.LoadManifest(opts.manifest)
	if e != nil {
		logger.Error("Failed to load manifest", "path", opts.manifest, "error", e)
		return e
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := procvisor.NewFromManifest(m, procvisor.Config{
		Logger:  logger.With("process", m.Name),
		Metrics: procvisor.NewMetrics(reg),
	})
	defer s.Close()

	output := procvisor.NewLog(0)
	unfollow := output.Follow(s)
	defer unfollow()

	h := rest.NewHandler(s, output)
	h.SetDescription(m.Name, m.Description)
	h.SetStopTimeout(time.Duration(m.StopTimeout))
	h.SetDaemonLog(daemonLog)
	h.SetGatherer(reg)
	for _, a := range opts.auth {
		user, hash, ok := strings.Cut(a, ":")
		if !ok || user == "" {
			return fmt.Errorf("bad --auth value %q, want user:hash", a)
		}
		if e := h.AddUser(user, []byte(hash)); e != nil {
			return fmt.Errorf("bad password hash for %s: %w", user, e)
		}
	}

	ln, e := net.Listen("tcp", opts.addr)
	if e != nil {
		logger.Error("Failed to listen", "addr", opts.addr, "error", e)
		return e
	}
	if opts.maxConns > 0 {
		ln = netutil.LimitListener(ln, opts.maxConns)
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("Serving", "addr", ln.Addr().String(), "manifest", opts.manifest)

	if opts.start {
		if e := s.Start(); e != nil {
			logger.Error("Failed to start", "error", e)
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case e := <-errCh:
		logger.Error("Server failed", "error", e)
		return e
	}

	// Stop taking requests before stopping the process.  Long polls would hold Shutdown for
	// minutes; give them a moment and then cut them off.
	sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if e := srv.Shutdown(sctx); e != nil {
		srv.Close()
	}

	timeout := time.Duration(m.StopTimeout)
	if s.State() == procvisor.Running {
		sctx, cancel := context.WithTimeout(context.Background(), timeout+10*time.Second)
		if e := s.Stop(sctx, timeout); e != nil && !errors.Is(e, procvisor.ErrInvalidTransition) {
			logger.Warn("Stop did not finish", "error", e)
		}
		if st, e := s.Wait(sctx); e != nil {
			logger.Warn("Process still running at exit", "state", st)
		}
		cancel()
	}
	return nil
}
