package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"zerowaste/internal/dashboard"
	"zerowaste/internal/listing"
	"zerowaste/internal/model"
	"zerowaste/internal/projection"
	"zerowaste/internal/seed"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// actorFlags identify the organization the command acts as.
type actorFlags struct {
	kind string
	id   string
}

func (f *actorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "kind", "", "Actor kind (ESTABLISHMENT or FOOD_BANK)")
	cmd.Flags().StringVar(&f.id, "id", "", "Actor organization ID")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("id")
}

func (f *actorFlags) actor() (model.Actor, error) {
	kind, err := model.ParseActorKind(f.kind)
	if err != nil {
		return model.Actor{}, err
	}
	id, err := uuid.Parse(f.id)
	if err != nil {
		return model.Actor{}, fmt.Errorf("invalid actor id %q: %w", f.id, err)
	}
	return model.Actor{Kind: kind, ID: id}, nil
}

// openBoard opens the store and loads the dashboard of the flagged actor.
func openBoard(ctx context.Context, flags *actorFlags, sample bool) (*dashboard.Board, func(), error) {
	actor, err := flags.actor()
	if err != nil {
		return nil, nil, err
	}
	a, cfg, logger, err := openApp(ctx)
	if err != nil {
		return nil, nil, err
	}
	if sample {
		if _, err := a.Importer(nil, logger).Apply(ctx, seed.Sample()); err != nil {
			a.Close()
			return nil, nil, err
		}
	}

	board := dashboard.NewBoard(actor, a.Loader, a.Coordinator, cfg.Listing.PageSize, logger)
	if err := board.Refresh(ctx); err != nil {
		a.Close()
		return nil, nil, err
	}
	return board, a.Close, nil
}

func newDashboardCmd() *cobra.Command {
	var (
		flags     actorFlags
		tab       string
		sortKey   string
		dir       string
		query     string
		page      int
		history   bool
		sample    bool
		distances string
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print one page of an organization's dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := listing.ParseSortKey(sortKey)
			if !ok {
				return fmt.Errorf("unknown sort key %q", sortKey)
			}
			dist, err := projection.ParseDistances(distances)
			if err != nil {
				return err
			}

			board, closeFn, err := openBoard(cmd.Context(), &flags, sample)
			if err != nil {
				return err
			}
			defer closeFn()

			board.SetOptions(projection.Options{
				IncludeHistory: history || tab == string(projection.TabHistory),
				Distances:      dist,
			})
			if tab != "" {
				board.SelectTab(projection.Tab(tab))
			}
			if key != listing.SortNone {
				board.SortBy(key)
				if listing.ParseDirection(dir) == listing.Desc {
					board.SortBy(key)
				}
			}
			board.Search(query)
			board.GoTo(page)

			p, err := board.Page()
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), p)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&tab, "tab", "", "Tab to show (active, completed, available, reservations, history)")
	cmd.Flags().StringVar(&sortKey, "sort", "", "Sort key (date, distance, status, name)")
	cmd.Flags().StringVar(&dir, "dir", "asc", "Sort direction (asc or desc)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Case- and accent-insensitive search text")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().BoolVar(&history, "history", false, "Include completed pickups of a food bank")
	cmd.Flags().BoolVar(&sample, "sample", false, "Import the sample data set first (useful with --driver memory)")
	cmd.Flags().StringVar(&distances, "distances", "", "Comma-separated donation-id:km pairs used by --sort distance")
	return cmd
}

func newTransitionCmd(name, short string) *cobra.Command {
	var (
		flags  actorFlags
		sample bool
	)
	cmd := &cobra.Command{
		Use:   name + " <donation-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid donation id %q: %w", args[0], err)
			}

			board, closeFn, err := openBoard(cmd.Context(), &flags, sample)
			if err != nil {
				return err
			}
			defer closeFn()

			var d *model.Donation
			switch name {
			case "accept":
				d, err = board.Accept(cmd.Context(), id)
			case "cancel":
				d, err = board.Cancel(cmd.Context(), id)
			case "complete":
				d, err = board.Complete(cmd.Context(), id)
			}
			if err != nil {
				return fmt.Errorf("%s %s: %w", name, id, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", d.ID, d.Status)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&sample, "sample", false, "Import the sample data set first (useful with --driver memory)")
	return cmd
}

func printPage(out io.Writer, p listing.Page) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tPRODUCT\tQUANTITY\tEXPIRES\tSTATUS\tCOUNTERPART\n")
	for _, c := range p.Items {
		fmt.Fprintf(tw, "%s\t%s\t%g %s\t%s\t%s\t%s\n",
			c.ID, c.ProductName, c.Quantity, c.Unit,
			c.ExpirationDate.Format("2006-01-02 15:04"), c.Status, c.CounterpartName)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sort := "none"
	if p.State.Sort != listing.SortNone {
		sort = fmt.Sprintf("%s %s", p.State.Sort, p.State.Direction)
	}
	_, err := fmt.Fprintf(out, "\n%s: page %d of %d, %d items, sort %s%s\n",
		p.State.Tab, p.State.Page, max(p.TotalPages, 1), p.TotalItems, sort, queryNote(p.State.Query))
	return err
}

func queryNote(q string) string {
	if strings.TrimSpace(q) == "" {
		return ""
	}
	return fmt.Sprintf(", matching %q", q)
}
