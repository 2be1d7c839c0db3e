package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"moviebook-cli/booking"
	"moviebook-cli/logging"
	"moviebook-cli/seating"
	"moviebook-cli/store"
)

func newSeatsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seats <showID>",
		Short: "Print the seat map and prices of a show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			show, err := e.client.GetShow(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sel := seating.NewSelectionWithPrices(show.BookedSeats, show.Prices(e.cfg.Prices))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s • %s • %s\n\n", show.MovieId.Label(), show.TheatreId.Label(), show.Timings)
			fmt.Fprint(out, seatMapText(sel))
			fmt.Fprintln(out)
			renderPriceTable(out, sel.Prices())
			return nil
		},
	}
}

func newBookCmd(e *env) *cobra.Command {
	var (
		seats    []string
		dateFlag string
		yes      bool
	)
	cmd := &cobra.Command{
		Use:   "book <showID>",
		Short: "Book seats for a show",
		Example: `  moviebook book 652f1c --seats K05,K06
  moviebook book 652f1c --seats b3,f4 --date 2026-10-18 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids := parseSeatList(seats)
			if len(ids) == 0 {
				return booking.ErrNoSeats
			}
			session, err := e.requireSession(ctx)
			if err != nil {
				return err
			}

			var date time.Time
			if dateFlag != "" {
				date, err = booking.ParseDate(dateFlag, time.Local)
				if err != nil {
					return err
				}
			}

			show, err := e.client.GetShow(ctx, args[0])
			if err != nil {
				return err
			}
			sel := seating.NewSelectionWithPrices(show.BookedSeats, show.Prices(e.cfg.Prices))
			for _, id := range ids {
				if sel.IsBooked(id) {
					return fmt.Errorf("seat %s is already booked", id)
				}
				if _, err := sel.Toggle(id); err != nil {
					return err
				}
			}

			flow := booking.NewFlow(show, date, sel, e.client)
			if err := flow.Gate().Err(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s • %s • %s %s\n", show.MovieId.Label(), show.TheatreId.Label(), flow.Date().Format(time.DateOnly), show.Timings)
			renderSelection(out, sel)

			if !yes {
				prompt := promptui.Prompt{Label: "Book these seats", IsConfirm: true}
				if _, err := prompt.Run(); err != nil {
					if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
						fmt.Fprintln(out, "Cancelled.")
						return nil
					}
					return err
				}
			}

			created, err := flow.Submit(ctx, session.Token)
			if err != nil {
				return err
			}
			if err := store.RememberTheatre(show.TheatreId); err != nil {
				logging.Warn().Err(err).Msg("remember theatre")
			}
			status := created.NormalizedStatus()
			if status == "" {
				status = "created"
			}
			fmt.Fprintf(out, "Booking %s %s.", created.Id, strings.ToLower(status))
			if created.AwaitingPayment() {
				fmt.Fprintf(out, " Pay with `%s pay %s`.", appName, created.Id)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&seats, "seats", nil, "seat ids, e.g. K05,K06")
	cmd.Flags().StringVar(&dateFlag, "date", "", "show date (YYYY-MM-DD), defaults to the listed date or today")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// parseSeatList normalizes ids and drops blanks and repeats; a repeated id
// would otherwise toggle the seat back off.
func parseSeatList(values []string) []string {
	seen := map[string]bool{}
	var ids []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			id := seating.Normalize(part)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// seatMapText draws the auditorium with the screen at the bottom.
func seatMapText(sel *seating.Selection) string {
	width := 0
	for _, row := range seating.Layout {
		if w := rowTextWidth(row); w > width {
			width = w
		}
	}

	var b strings.Builder
	var tier seating.Tier
	for _, row := range seating.Layout {
		if row.Tier != tier {
			tier = row.Tier
			fmt.Fprintf(&b, "   %s · Rs. %.0f\n", tier.Label(), sel.Prices().Price(tier))
		}
		pad := (width - rowTextWidth(row)) / 2
		fmt.Fprintf(&b, "%c  %s", row.Letter, strings.Repeat(" ", pad))
		for gi, group := range row.Seats() {
			if gi > 0 {
				b.WriteString("   ")
			}
			for si, id := range group {
				if si > 0 {
					b.WriteString(" ")
				}
				switch sel.Status(id) {
				case seating.Booked:
					b.WriteString("XX")
				case seating.Selected:
					b.WriteString("##")
				default:
					b.WriteString(id[1:])
				}
			}
		}
		fmt.Fprintf(&b, "%s  %c\n", strings.Repeat(" ", width-rowTextWidth(row)-pad), row.Letter)
	}
	screen := " SCREEN "
	left := (width - len(screen)) / 2
	if left < 0 {
		left = 0
	}
	fmt.Fprintf(&b, "\n   %s%s\n", strings.Repeat(" ", left), screen)
	fmt.Fprintf(&b, "   %s\n", strings.Repeat("‾", width))
	b.WriteString("   XX sold • ## selected • numbers are available seats\n")
	return b.String()
}

func rowTextWidth(row seating.Row) int {
	width := 0
	for gi, group := range row.Seats() {
		if gi > 0 {
			width += 3
		}
		width += len(group)*3 - 1
	}
	return width
}

func renderPriceTable(out io.Writer, prices seating.PriceTable) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Tier", "Rows", "Price"})
	for _, tier := range seating.Tiers {
		var letters []string
		for _, row := range seating.RowsOf(tier) {
			letters = append(letters, string(row.Letter))
		}
		t.AppendRow(table.Row{tier.Label(), strings.Join(letters, " "), fmt.Sprintf("Rs. %.0f", prices.Price(tier))})
	}
	t.Render()
}

func renderSelection(out io.Writer, sel *seating.Selection) {
	snap := sel.Snapshot()
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Seat", "Tier", "Price"})
	for _, id := range snap.Seats {
		tier, err := seating.TierOf(id)
		if err != nil {
			continue
		}
		t.AppendRow(table.Row{id, tier.Label(), fmt.Sprintf("Rs. %.0f", sel.Prices().Price(tier))})
	}
	t.AppendFooter(table.Row{"", "Total", fmt.Sprintf("Rs. %.0f", snap.TotalCost)})
	t.Render()
}
