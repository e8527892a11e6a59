package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"muzzman/internal/modules"
	"muzzman/internal/session"
)

func newLoadModuleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load-module <name> [index]",
		Short: "Load a module manifest from the modules directory",
		Long: "Lists manifests in the modules directory whose path contains <name>. " +
			"Pass the index of one match to load it into the daemon.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(c context.Context, sess *session.Session) error {
				paths, err := modules.Discover(cfg.Paths.ModulesDir)
				if err != nil {
					return fmt.Errorf("list modules directory: %w", err)
				}
				matches := modules.Match(paths, args[0])
				if len(matches) == 0 {
					return fmt.Errorf("no module manifest in %s matches %q", cfg.Paths.ModulesDir, args[0])
				}

				out := cmd.OutOrStdout()
				if len(args) == 1 {
					for i, path := range matches {
						fmt.Fprintf(out, "%d: %s\n", i, path)
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Choose one with: muzzman load-module %s <index>\n", args[0])
					return nil
				}

				index, err := parseIndex(args[1], len(matches))
				if err != nil {
					return err
				}
				mod, err := sess.LoadModule(c, matches[index])
				if err != nil {
					return err
				}
				name, err := mod.Name(c)
				if err != nil {
					return err
				}
				desc, err := mod.Desc(c)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Loaded module: %s\n", name)
				fmt.Fprintf(out, "Desc: %s\n", desc)
				return nil
			})
		},
	}
}

type moduleView struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Desc        string `json:"desc,omitempty"`
	DefaultName string `json:"default_name,omitempty"`
	DefaultDesc string `json:"default_desc,omitempty"`
	Proxy       int    `json:"proxy"`
}

func newGetModulesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get-modules [index]",
		Short: "List loaded modules or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, sess *session.Session) error {
				n, err := sess.ModulesLen(c)
				if err != nil {
					return err
				}
				mods, err := sess.Modules(c, 0, n)
				if err != nil {
					return err
				}

				if len(args) == 0 {
					views := make([]moduleView, 0, len(mods))
					for i, mod := range mods {
						name, err := mod.Name(c)
						if err != nil {
							return err
						}
						views = append(views, moduleView{Index: i, ID: mod.ID().String(), Name: name})
					}
					if ctx.jsonOutput() {
						return writeJSON(cmd, views)
					}
					out := cmd.OutOrStdout()
					if len(views) == 0 {
						fmt.Fprintln(out, "No modules loaded")
						return nil
					}
					for _, v := range views {
						fmt.Fprintf(out, "%d: %s\n", v.Index, v.Name)
					}
					return nil
				}

				index, err := parseIndex(args[0], len(mods))
				if err != nil {
					return err
				}
				view, err := describeModule(c, index, mods[index])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, view)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderFields([]field{
					{"ID", view.ID},
					{"Name", view.Name},
					{"Desc", orDash(view.Desc)},
					{"Default Name", view.DefaultName},
					{"Default Desc", orDash(view.DefaultDesc)},
					{"Proxy", strconv.Itoa(view.Proxy)},
				}))
				return nil
			})
		},
	}
}

func describeModule(ctx context.Context, index int, mod session.ModuleRef) (moduleView, error) {
	view := moduleView{Index: index, ID: mod.ID().String()}
	var err error
	if view.Name, err = mod.Name(ctx); err != nil {
		return view, err
	}
	if view.Desc, err = mod.Desc(ctx); err != nil {
		return view, err
	}
	if view.DefaultName, err = mod.DefaultName(ctx); err != nil {
		return view, err
	}
	if view.DefaultDesc, err = mod.DefaultDesc(ctx); err != nil {
		return view, err
	}
	if view.Proxy, err = mod.Proxy(ctx); err != nil {
		return view, err
	}
	return view, nil
}

func parseIndex(raw string, n int) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: not a number", raw)
	}
	if index < 0 || index >= n {
		return 0, fmt.Errorf("invalid index %d: expected 0..%d", index, n-1)
	}
	return index, nil
}
