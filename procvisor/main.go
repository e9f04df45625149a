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

// Command procvisor is the client for procvisord.  It uses subcommands:
//
//	status              - one line summary of the process
//	info                - detailed process information
//	start               - start the process
//	stop [--timeout d]  - stop the process
//	log [--daemon]      - print the process output, or the daemon log
//	graph               - print the state machine in DOT form
//	ui                  - interactive terminal interface (the default)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gdamore/procvisor/procvisor/ui"
	"github.com/gdamore/procvisor/procvisor/util"
	"github.com/gdamore/procvisor/rest"
)

var (
	addr    = "http://127.0.0.1:8321"
	auth    = ""
	logFile = ""
)

func newClient() (*rest.Client, error) {
	client := rest.NewClient(nil, addr)
	if auth != "" {
		user, pass, ok := strings.Cut(auth, ":")
		if !ok {
			return nil, fmt.Errorf("bad user:pass supplied")
		}
		client.SetAuth(user, pass)
	}
	return client, nil
}

func showStatus(s *rest.ProcessStatus) {
	up := ""
	if s.Process != nil {
		up = util.FormatDuration(s.Process.Uptime())
	}
	fmt.Printf("%-20s %-20s %10s %s\n", s.Name, s.State, up, util.Status(s))
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show a one line summary of the process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, e := newClient()
			if e != nil {
				return e
			}
			s, e := c.GetStatus()
			if e != nil {
				return e
			}
			showStatus(s)
			return nil
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show detailed process information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, e := newClient()
			if e != nil {
				return e
			}
			s, e := c.GetStatus()
			if e != nil {
				return e
			}
			for _, l := range util.InfoLines(s) {
				fmt.Println(l)
			}
			return nil
		},
	}
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, e := newClient()
			if e != nil {
				return e
			}
			s, e := c.Start()
			if e != nil {
				return e
			}
			showStatus(s)
			if s.Error != "" {
				return fmt.Errorf("start failed: %s", s.Error)
			}
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	var timeout time.Duration
	var wait bool
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the process",
		Long: `Stop the process.  A positive timeout asks the process to exit and
kills it if the request cannot be delivered in time.  A timeout of zero
kills it at once.  Without --timeout the daemon's default is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, e := newClient()
			if e != nil {
				return e
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = -1
			}
			s, e := c.Stop(cmd.Context(), timeout, wait)
			if e != nil {
				return e
			}
			showStatus(s)
			return nil
		},
	}
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "time allowed for a cooperative exit")
	cmd.Flags().BoolVarP(&wait, "wait", "w", true, "wait for the shutdown to finish")
	return cmd
}

func logCmd() *cobra.Command {
	var daemon, follow bool
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the process output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, e := newClient()
			if e != nil {
				return e
			}
			info, e := c.GetLog(daemon)
			if e != nil {
				return e
			}
			var seen int64
			for {
				for _, r := range info.Records {
					if r.Id <= seen {
						continue
					}
					seen = r.Id
					if r.Stream != "" {
						fmt.Printf("%s %-6s %s\n", r.Time.Format(time.StampMilli), r.Stream, r.Text)
					} else {
						fmt.Println(r.Text)
					}
				}
				if !follow {
					return nil
				}
				if info, e = c.WatchLog(cmd.Context(), daemon, info); e != nil {
					return e
				}
			}
		},
	}
	cmd.Flags().BoolVarP(&daemon, "daemon", "d", false, "show the daemon log instead")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing new lines")
	return cmd
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard the captured process output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, e := newClient()
			if e != nil {
				return e
			}
			return c.ClearLog()
		},
	}
}

func graphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the state machine in Graphviz DOT form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, e := newClient()
			if e != nil {
				return e
			}
			dot, e := c.Graph()
			if e != nil {
				return e
			}
			fmt.Print(dot)
			return nil
		},
	}
}

func doUI(cmd *cobra.Command, args []string) error {
	c, e := newClient()
	if e != nil {
		return e
	}
	app := ui.NewApp(c, addr)
	if logFile != "" {
		f, e := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if e != nil {
			return e
		}
		defer f.Close()
		app.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	return app.Run()
}

func uiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Run the interactive terminal interface",
		Args:  cobra.NoArgs,
		RunE:  doUI,
	}
	cmd.Flags().StringVar(&logFile, "debug-log", "", "write UI diagnostics to this file")
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:          "procvisor",
		Short:        "Client for procvisord",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         doUI,
	}
	root.PersistentFlags().StringVarP(&addr, "addr", "a", addr, "procvisord address")
	root.PersistentFlags().StringVarP(&auth, "user", "u", auth, "user:pass authentication")
	root.AddCommand(statusCmd(), infoCmd(), startCmd(), stopCmd(), logCmd(), clearCmd(),
		graphCmd(), uiCmd())

	if e := root.ExecuteContext(context.Background()); e != nil {
		os.Exit(1)
	}
}
