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

// Package ui is the terminal user interface of the procvisor client.
package ui

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/views"

	"github.com/gdamore/procvisor/rest"
)

// App is the root widget.  Pollers store their results under lock and
// ask for a redraw; panels read them while drawing.
type App struct {
	app       *views.Application
	view      views.View
	panel     views.Widget
	help      *HelpPanel
	log       *LogPanel
	main      *MainPanel
	graph     *GraphPanel
	client    *rest.Client
	logger    *slog.Logger
	status    *rest.ProcessStatus
	err       error
	actionErr error
	logDaemon bool
	logInfo   *rest.LogInfo
	logErr    error
	logCancel context.CancelFunc
	dot       string
	dotErr    error
	lock      sync.Mutex

	views.WidgetWatchers
}

func (a *App) show(w views.Widget) {
	if w != a.panel {
		a.panel.SetView(nil)
		a.panel = w
	}
	a.panel.SetView(a.view)
	a.panel.Resize()
	a.app.Refresh()
}

func (a *App) ShowHelp() {
	a.show(a.help)
}

func (a *App) ShowLog(daemon bool) {
	if a.logCancel != nil {
		a.logCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.lock.Lock()
	a.logInfo = nil
	a.logErr = nil
	a.logDaemon = daemon
	a.lock.Unlock()
	a.logCancel = cancel
	a.log.SetDaemon(daemon)
	go a.refreshLog(ctx, daemon)

	a.show(a.log)
}

func (a *App) ShowGraph() {
	a.lock.Lock()
	a.dot = ""
	a.dotErr = nil
	a.lock.Unlock()
	go func() {
		dot, e := a.client.Graph()
		a.lock.Lock()
		a.dot, a.dotErr = dot, e
		a.lock.Unlock()
		a.app.Update()
	}()
	a.show(a.graph)
}

func (a *App) ShowMain() {
	a.show(a.main)
}

// action runs a request off the event goroutine and records its error
// for the main panel.
func (a *App) action(name string, fn func() error) {
	go func() {
		e := fn()
		if e != nil {
			a.logger.Warn("Request failed", "action", name, "error", e)
		}
		a.lock.Lock()
		a.actionErr = e
		a.lock.Unlock()
		a.app.Update()
	}()
}

func (a *App) StartProcess() {
	a.action("start", func() error {
		_, e := a.client.Start()
		return e
	})
}

// StopProcess stops the process.  With kill set the process is killed at
// once; otherwise the daemon's configured stop timeout applies.
func (a *App) StopProcess(kill bool) {
	timeout := time.Duration(-1)
	if kill {
		timeout = 0
	}
	a.action("stop", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, e := a.client.Stop(ctx, timeout, false)
		return e
	})
}

func (a *App) ClearLog() {
	a.action("clear", a.client.ClearLog)
}

func (a *App) Quit() {
	/* This just posts the quit event. */
	a.app.Quit()
}

func (a *App) SetLogger(logger *slog.Logger) {
	a.logger = logger
}

func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		// Intercept a few control keys up front, for global handling.
		case tcell.KeyCtrlC:
			a.Quit()
			return true
		case tcell.KeyCtrlL:
			a.app.Refresh()
			return true
		}
	}

	if a.panel != nil {
		return a.panel.HandleEvent(ev)
	}
	return false
}

func (a *App) Draw() {
	if a.panel != nil {
		a.panel.Draw()
	}
}

func (a *App) Resize() {
	if a.panel != nil {
		a.panel.Resize()
	}
}

func (a *App) SetView(view views.View) {
	a.view = view
	if a.panel != nil {
		a.panel.SetView(view)
	}
}

func (a *App) Size() (int, int) {
	if a.panel != nil {
		return a.panel.Size()
	}
	return 0, 0
}

func (a *App) GetAppName() string {
	return "Procvisor v1.0"
}

func NewApp(client *rest.Client, url string) *App {
	app := &App{}
	app.app = &views.Application{}
	app.client = client
	app.logger = slog.New(slog.DiscardHandler)
	app.help = NewHelpPanel(app)
	app.log = NewLogPanel(app)
	app.graph = NewGraphPanel(app)
	app.main = NewMainPanel(app, url)
	app.panel = app.main
	return app
}

// refresh keeps the status current with long polls.
func (a *App) refresh(ctx context.Context) {
	var last *rest.ProcessStatus
	for {
		st, e := a.client.WatchStatus(ctx, last)
		if ctx.Err() != nil {
			return
		}
		a.lock.Lock()
		a.status = st
		a.err = e
		a.lock.Unlock()
		a.app.Update()
		if e != nil {
			a.logger.Debug("Status poll failed", "error", e)
			last = nil
			time.Sleep(2 * time.Second)
			continue
		}
		last = st
	}
}

func (a *App) refreshLog(ctx context.Context, daemon bool) {
	info, e := a.client.GetLog(daemon)

	for {
		a.lock.Lock()
		if a.logDaemon == daemon {
			a.logInfo = info
			a.logErr = e
		}
		a.lock.Unlock()
		a.app.Update()
		if ctx.Err() != nil {
			return
		}
		if e != nil {
			time.Sleep(2 * time.Second)
		}
		info, e = a.client.WatchLog(ctx, daemon, info)
	}
}

func (a *App) GetStatus() (*rest.ProcessStatus, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.status, a.err
}

func (a *App) ActionErr() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.actionErr
}

func (a *App) GetLog(daemon bool) (*rest.LogInfo, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.logDaemon == daemon {
		return a.logInfo, a.logErr
	}
	return nil, nil
}

func (a *App) GetGraph() (string, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.dot, a.dotErr
}

func (a *App) Run() error {
	a.logger.Info("Starting up user interface")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.refresh(ctx)

	a.app.SetRootWidget(a)
	a.ShowMain()
	go func() {
		// Give us periodic updates, for uptime.
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				a.app.Update()
			}
		}
	}()
	e := a.app.Run()
	if a.logCancel != nil {
		a.logCancel()
	}
	return e
}
