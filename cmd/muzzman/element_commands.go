package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"muzzman/internal/failure"
	"muzzman/internal/ids"
	"muzzman/internal/resolve"
	"muzzman/internal/session"
	"muzzman/internal/value"
)

func newResolvCommand(ctx *commandContext) *cobra.Command {
	var showProgress bool

	cmd := &cobra.Command{
		Use:   "resolv <url> [name] [location-id]",
		Short: "Create an element for a url and start it",
		Long: "Creates an element in the given location (default location when omitted), " +
			"binds the first module that accepts the url, initializes it and enables it. " +
			"With --progress the command follows the run until the element is disabled.",
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req := resolve.Request{URL: args[0]}
			if len(args) > 1 {
				req.Name = args[1]
			}
			if len(args) > 2 {
				id, err := ids.ParseLocationID(args[2])
				if err != nil {
					return fmt.Errorf("invalid location id %q: %w", args[2], err)
				}
				req.Location = &id
			}

			return ctx.withSession(cmd, func(c context.Context, sess *session.Session) error {
				resolver := resolve.New(sess, resolve.Options{
					PollInterval: cfg.PollInterval(),
					Logger:       ctx.logger(),
				})
				result, err := resolver.Resolve(c, req)
				if err != nil {
					if errors.Is(err, failure.ErrCannotResolve) {
						return fmt.Errorf("no loaded module can handle %s: %w", req.URL, err)
					}
					if result.Stage > resolve.StageCreated {
						return fmt.Errorf("element %s stopped at %s: %w", result.Element.ID(), result.Stage, err)
					}
					return err
				}

				out := cmd.OutOrStdout()
				if ctx.jsonOutput() && !showProgress {
					return writeJSON(cmd, map[string]string{
						"id":    result.Element.ID().String(),
						"name":  result.Name,
						"stage": result.Stage.String(),
					})
				}
				fmt.Fprintln(out, result.Element.ID().String())
				if !showProgress {
					return nil
				}

				printer := newProgressPrinter(out)
				err = resolver.Observe(c, result.Element, printer.print)
				printer.finish()
				if err != nil {
					return err
				}
				status, err := result.Element.StatusMsg(c)
				if err != nil {
					return err
				}
				progress, err := result.Element.Progress(c)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Finished: %s, Status: %s\n", formatProgress(progress), orDash(status))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&showProgress, "progress", "p", false, "Follow progress until the element stops")
	return cmd
}

type elementView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Desc        string     `json:"desc,omitempty"`
	Meta        string     `json:"meta,omitempty"`
	Location    string     `json:"location"`
	Module      string     `json:"module,omitempty"`
	Initialized bool       `json:"initialized"`
	Enabled     bool       `json:"enabled"`
	Progress    float64    `json:"progress"`
	Status      string     `json:"status,omitempty"`
	ElementData value.Data `json:"element_data"`
	ModuleData  value.Data `json:"module_data"`
	Data        value.Data `json:"data"`
}

func newGetElementCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get-element <id>",
		Short: "Show an element's fields and data stores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ids.ParseElementID(args[0])
			if err != nil {
				return fmt.Errorf("invalid element id %q: %w", args[0], err)
			}
			return ctx.withSession(cmd, func(c context.Context, sess *session.Session) error {
				el, err := sess.Element(c, id)
				if err != nil {
					return err
				}
				view, err := describeElement(c, el)
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
					{"Meta", orDash(view.Meta)},
					{"Location", view.Location},
					{"Module", orDash(view.Module)},
					{"Initialized", yesNo(view.Initialized)},
					{"Enabled", yesNo(view.Enabled)},
					{"Progress", formatProgress(view.Progress)},
					{"Status", orDash(view.Status)},
					{"Element Data", formatData(view.ElementData)},
					{"Module Data", formatData(view.ModuleData)},
					{"Data", formatData(view.Data)},
				}))
				return nil
			})
		},
	}
}

func describeElement(ctx context.Context, el session.ElementRef) (elementView, error) {
	view := elementView{ID: el.ID().String()}
	var err error
	if view.Name, err = el.Name(ctx); err != nil {
		return view, err
	}
	if view.Desc, err = el.Desc(ctx); err != nil {
		return view, err
	}
	if view.Meta, err = el.Meta(ctx); err != nil {
		return view, err
	}
	info, err := el.Info(ctx)
	if err != nil {
		return view, err
	}
	view.Location = info.Location.String()
	if info.Module != nil {
		view.Module = info.Module.String()
	}
	view.Initialized = info.Initialized
	view.Enabled = info.Enabled
	if view.Progress, err = el.Progress(ctx); err != nil {
		return view, err
	}
	if view.Status, err = el.StatusMsg(ctx); err != nil {
		return view, err
	}
	if view.ElementData, err = el.ElementData(ctx); err != nil {
		return view, err
	}
	if view.ModuleData, err = el.ModuleData(ctx); err != nil {
		return view, err
	}
	if view.Data, err = el.Data(ctx); err != nil {
		return view, err
	}
	return view, nil
}

func newDestroyElementCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy-element <id>",
		Short: "Stop and remove an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ids.ParseElementID(args[0])
			if err != nil {
				return fmt.Errorf("invalid element id %q: %w", args[0], err)
			}
			return ctx.withSession(cmd, func(c context.Context, sess *session.Session) error {
				el, err := sess.Element(c, id)
				if err != nil {
					return err
				}
				if err := el.Destroy(c); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Result: ok")
				return nil
			})
		},
	}
}
