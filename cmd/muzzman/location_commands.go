package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"muzzman/internal/ids"
	"muzzman/internal/session"
)

func newGetDefaultLocationCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get-default-location",
		Short: "Print the id of the daemon's default location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, sess *session.Session) error {
				loc, err := sess.DefaultLocation(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]string{"id": loc.ID().String()})
				}
				fmt.Fprintln(cmd.OutOrStdout(), loc.ID().String())
				return nil
			})
		},
	}
}

func newCreateLocationCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create-location <name> [parent-location-id]",
		Short: "Create a child location, under the default location unless a parent is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var parentID *ids.LocationID
			if len(args) == 2 {
				id, err := ids.ParseLocationID(args[1])
				if err != nil {
					return fmt.Errorf("invalid location id %q: %w", args[1], err)
				}
				parentID = &id
			}
			return ctx.withSession(cmd, func(c context.Context, sess *session.Session) error {
				var parent session.LocationRef
				var err error
				if parentID == nil {
					parent, err = sess.DefaultLocation(c)
				} else {
					parent, err = sess.Location(c, *parentID)
				}
				if err != nil {
					return err
				}
				child, err := parent.CreateLocation(c, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]string{"id": child.ID().String(), "parent": parent.ID().String()})
				}
				fmt.Fprintln(cmd.OutOrStdout(), child.ID().String())
				return nil
			})
		},
	}
}

type locationView struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Desc       string   `json:"desc,omitempty"`
	Path       string   `json:"path"`
	ShouldSave bool     `json:"should_save"`
	Locations  []string `json:"locations"`
	Elements   []string `json:"elements"`
}

func newGetLocationCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get-location <id>",
		Short: "Show a location with its child locations and elements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ids.ParseLocationID(args[0])
			if err != nil {
				return fmt.Errorf("invalid location id %q: %w", args[0], err)
			}
			return ctx.withSession(cmd, func(c context.Context, sess *session.Session) error {
				loc, err := sess.Location(c, id)
				if err != nil {
					return err
				}
				view, err := describeLocation(c, loc)
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
					{"Path", view.Path},
					{"Should Save", yesNo(view.ShouldSave)},
					{"Locations", joinOrDash(view.Locations)},
					{"Elements", joinOrDash(view.Elements)},
				}))
				return nil
			})
		},
	}
}

func describeLocation(ctx context.Context, loc session.LocationRef) (locationView, error) {
	view := locationView{ID: loc.ID().String()}
	var err error
	if view.Name, err = loc.Name(ctx); err != nil {
		return view, err
	}
	if view.Desc, err = loc.Desc(ctx); err != nil {
		return view, err
	}
	if view.Path, err = loc.Path(ctx); err != nil {
		return view, err
	}
	if view.ShouldSave, err = loc.ShouldSave(ctx); err != nil {
		return view, err
	}

	n, err := loc.LocationsLen(ctx)
	if err != nil {
		return view, err
	}
	children, err := loc.Locations(ctx, 0, n)
	if err != nil {
		return view, err
	}
	view.Locations = make([]string, 0, len(children))
	for _, child := range children {
		view.Locations = append(view.Locations, child.ID().String())
	}

	if n, err = loc.ElementsLen(ctx); err != nil {
		return view, err
	}
	elements, err := loc.Elements(ctx, 0, n)
	if err != nil {
		return view, err
	}
	view.Elements = make([]string, 0, len(elements))
	for _, el := range elements {
		view.Elements = append(view.Elements, el.ID().String())
	}
	return view, nil
}
