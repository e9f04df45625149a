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

package ui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/views"

	"github.com/gdamore/procvisor/procvisor/util"
)

// LogPanel follows either the process output or the daemon log.
type LogPanel struct {
	text   *views.TextArea
	daemon bool

	Panel
}

func NewLogPanel(app *App) *LogPanel {
	p := &LogPanel{}

	p.Panel.Init(app)

	// We don't change the keybar, so set it once
	p.SetKeys([]string{"[ESC] Main", "[C] Clear", "[H] Help"})

	p.text = views.NewTextArea()
	p.text.EnableCursor(false)
	p.text.SetStyle(StyleNormal)
	p.SetContent(p.text)

	return p
}

func (p *LogPanel) Draw() {
	p.update()
	p.Panel.Draw()
}

func (p *LogPanel) HandleEvent(ev tcell.Event) bool {
	if ev, ok := ev.(*tcell.EventKey); ok && ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case 'Q', 'q':
			p.app.ShowMain()
			return true
		case 'H', 'h':
			p.app.ShowHelp()
			return true
		case 'C', 'c':
			// The daemon log cannot be cleared.
			if !p.daemon {
				p.app.ClearLog()
			}
			return true
		}
	}
	return p.Panel.HandleEvent(ev)
}

func (p *LogPanel) SetDaemon(daemon bool) {
	p.SetTitle("Loading")
	p.text.SetLines(nil)
	p.daemon = daemon
}

func (p *LogPanel) update() {
	if p.daemon {
		p.SetTitle("Daemon log")
	} else {
		p.SetTitle("Process output")
	}

	info, err := p.app.GetLog(p.daemon)
	if info == nil {
		if err != nil {
			p.SetStatus(fmt.Sprintf("No data: %v", err))
			p.SetSeverity(util.Bad)
		} else {
			p.SetStatus("Loading ...")
			p.SetSeverity(util.Normal)
		}
		p.text.SetLines([]string{""})
		return
	}

	p.SetStatus(fmt.Sprintf("%d lines", len(info.Records)))
	p.SetSeverity(util.Normal)
	lines := make([]string, 0, len(info.Records))
	for _, r := range info.Records {
		line := fmt.Sprintf("%s %s", r.Time.Format(time.StampMilli), r.Text)
		if r.Stream != "" {
			line = fmt.Sprintf("%s %-6s %s", r.Time.Format(time.StampMilli), r.Stream, r.Text)
		}
		lines = append(lines, line)
	}
	p.text.SetLines(lines)
}
