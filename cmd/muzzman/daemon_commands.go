package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"muzzman/internal/daemonctl"
	"muzzman/internal/preflight"
)

const (
	daemonStartTimeout = 10 * time.Second
	daemonStopGrace    = 5 * time.Second
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Start, stop or inspect muzzmand",
	}

	var logLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Launch muzzmand in the background unless it is already running",
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := daemonctl.ResolveExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), ctx.socketPath(), exe, daemonctl.LaunchOptions{
				ConfigPath: strings.TrimSpace(*ctx.configFlag),
				LogLevel:   logLevel,
			}, daemonStartTimeout)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(stdout, "Daemon already running (pid %d)\n", result.PID)
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level passed to muzzmand")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop muzzmand (SIGTERM, then SIGKILL after a grace period)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cmd.Context(), cfg, ctx.socketPath(), daemonStopGrace)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit in %s; killed pid %d\n", daemonStopGrace, result.PID)
				return nil
			}
			fmt.Fprintf(stdout, "Daemon stopped (pid %d)\n", result.PID)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether muzzmand is reachable and check its paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := daemonctl.Probe(cmd.Context(), ctx.socketPath(), cfg.ConnectTimeout())
			if err != nil {
				return err
			}
			checks := preflight.RunAll(cfg)
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"running": status.Running,
					"pid":     status.PID,
					"version": status.Version,
					"socket":  status.Socket,
					"checks":  checks,
				})
			}

			running := "no"
			pid := "-"
			if status.Running {
				running = "yes"
				pid = strconv.Itoa(status.PID)
			}
			rows := [][]string{
				{"Daemon", running},
				{"PID", pid},
				{"Version", orDash(status.Version)},
				{"Socket", status.Socket},
			}
			for _, check := range checks {
				rows = append(rows, []string{check.Name, checkLabel(check)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Result"}, rows))
			return nil
		},
	}

	daemonCmd.AddCommand(startCmd, stopCmd, statusCmd)
	return daemonCmd
}

func checkLabel(r preflight.Result) string {
	if r.Passed {
		return "ok: " + r.Detail
	}
	return "FAIL: " + r.Detail
}
