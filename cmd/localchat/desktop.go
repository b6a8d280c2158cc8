package main

import (
	"os"

	"github.com/spf13/cobra"

	"localchat/internal/desktop"
)

func newDesktopCmd(g *globalFlags) *cobra.Command {
	var opts desktop.Options
	cmd := &cobra.Command{
		Use:   "desktop",
		Short: "Start the server as a child process and open it in the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(os.Stderr, g.logLevel, g.logFormat)
			if err != nil {
				return err
			}
			opts.Args = childArgs(g)
			return desktop.New(opts, log.With().Str("component", "desktop").Logger()).Run(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.Port, "port", 0, "Loopback port for the server (0 = pick a free one)")
	f.DurationVar(&opts.StartTimeout, "start-timeout", desktop.DefaultStartTimeout, "How long to wait for the server to become healthy")
	f.DurationVar(&opts.StopGrace, "stop-grace", desktop.DefaultStopGrace, "How long the server may take to exit before it is killed")
	f.BoolVar(&opts.NoBrowser, "no-browser", false, "Do not open the browser")
	return cmd
}

// childArgs forwards the global flags to "localchat serve". The child logs
// plain lines so they read well when relayed.
func childArgs(g *globalFlags) []string {
	args := []string{"--log-format", "console"}
	if g.configPath != "" {
		args = append(args, "--config", g.configPath)
	}
	if g.logLevel != "" {
		args = append(args, "--log-level", g.logLevel)
	}
	return args
}
