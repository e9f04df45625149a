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

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/views"

	"github.com/gdamore/procvisor"
	"github.com/gdamore/procvisor/procvisor/util"
)

var (
	StyleNormal = tcell.StyleDefault.
		Foreground(tcell.ColorSilver).
		Background(tcell.ColorBlack)
)

// MainPanel shows the details of the supervised process, and offers the
// start and stop actions that its state permits.
type MainPanel struct {
	text *views.TextArea

	Panel
}

func NewMainPanel(app *App, server string) *MainPanel {
	m := &MainPanel{}

	m.Panel.Init(app)
	m.text = views.NewTextArea()
	m.text.EnableCursor(false)
	m.text.SetStyle(StyleNormal)
	m.SetContent(m.text)

	m.SetTitle(server)
	m.SetKeys([]string{"[Q] Quit"})

	return m
}

func (m *MainPanel) Draw() {
	m.update()
	m.Panel.Draw()
}

func (m *MainPanel) HandleEvent(ev tcell.Event) bool {
	app := m.App()
	if ev, ok := ev.(*tcell.EventKey); ok && ev.Key() == tcell.KeyRune {
		st, _ := app.GetStatus()
		switch ev.Rune() {
		case 'Q', 'q':
			app.Quit()
			return true
		case 'H', 'h':
			app.ShowHelp()
			return true
		case 'L', 'l':
			app.ShowLog(false)
			return true
		case 'D', 'd':
			app.ShowLog(true)
			return true
		case 'G', 'g':
			app.ShowGraph()
			return true
		case 'S', 's':
			if st != nil && !st.State.Active() {
				app.StartProcess()
				return true
			}
		case 'T', 't':
			if st != nil && st.State == procvisor.Running {
				app.StopProcess(false)
				return true
			}
		case 'K', 'k':
			if st != nil && st.State == procvisor.Running {
				app.StopProcess(true)
				return true
			}
		}
	}
	return m.Panel.HandleEvent(ev)
}

func (m *MainPanel) update() {
	st, err := m.App().GetStatus()
	words := []string{"[Q] Quit", "[H] Help", "[L] Log", "[D] Daemon log", "[G] Graph"}

	if st == nil {
		if err != nil {
			m.SetStatus(fmt.Sprintf("Cannot load status: %v", err))
			m.SetSeverity(util.Bad)
		} else {
			m.SetStatus("Loading ...")
			m.SetSeverity(util.Normal)
		}
		m.text.SetLines(nil)
		m.SetKeys(words)
		return
	}

	if st.Name != "" {
		m.SetTitle(st.Name)
	}
	if e := m.App().ActionErr(); e != nil {
		m.SetStatus(fmt.Sprintf("Request failed: %v", e))
		m.SetSeverity(util.Warn)
	} else {
		m.SetStatus(util.Status(st))
		m.SetSeverity(util.StatusSeverity(st))
	}
	m.text.SetLines(util.InfoLines(st))

	switch {
	case st.State == procvisor.Running:
		words = append(words, "[T] Stop", "[K] Kill")
	case !st.State.Active():
		words = append(words, "[S] Start")
	}
	m.SetKeys(words)
}
