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
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/views"

	"github.com/gdamore/procvisor/procvisor/util"
)

// GraphPanel shows the state machine in DOT form, with the current state
// highlighted by the server.
type GraphPanel struct {
	text *views.TextArea

	Panel
}

func NewGraphPanel(app *App) *GraphPanel {
	g := &GraphPanel{}

	g.Panel.Init(app)
	g.SetTitle("State machine")
	g.SetKeys([]string{"[ESC] Main", "[H] Help", "[R] Reload"})

	g.text = views.NewTextArea()
	g.text.EnableCursor(false)
	g.text.SetStyle(StyleNormal)
	g.SetContent(g.text)

	return g
}

func (g *GraphPanel) Draw() {
	g.update()
	g.Panel.Draw()
}

func (g *GraphPanel) HandleEvent(ev tcell.Event) bool {
	if ev, ok := ev.(*tcell.EventKey); ok && ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case 'Q', 'q':
			g.app.ShowMain()
			return true
		case 'H', 'h':
			g.app.ShowHelp()
			return true
		case 'R', 'r':
			g.app.ShowGraph()
			return true
		}
	}
	return g.Panel.HandleEvent(ev)
}

func (g *GraphPanel) update() {
	dot, err := g.app.GetGraph()
	switch {
	case err != nil:
		g.SetStatus(fmt.Sprintf("No data: %v", err))
		g.SetSeverity(util.Bad)
		g.text.SetLines(nil)
	case dot == "":
		g.SetStatus("Loading ...")
		g.SetSeverity(util.Normal)
		g.text.SetLines(nil)
	default:
		g.SetStatus("Render with: procvisor graph | dot -Tsvg")
		g.SetSeverity(util.Normal)
		g.text.SetLines(strings.Split(strings.TrimRight(dot, "\n"), "\n"))
	}
}
