package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"moviebook-cli/booking"
	"moviebook-cli/model"
)

func newBookingsCmd(e *env) *cobra.Command {
	var pending bool
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List your bookings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, err := e.requireSession(ctx)
			if err != nil {
				return err
			}
			bookings, err := e.client.GetBookings(ctx, session.Token)
			if err != nil {
				return err
			}
			if pending {
				kept := bookings[:0]
				for _, b := range bookings {
					if b.AwaitingPayment() {
						kept = append(kept, b)
					}
				}
				bookings = kept
			}
			if len(bookings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bookings.")
				return nil
			}
			renderBookings(cmd.OutOrStdout(), bookings)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "only bookings awaiting payment")
	return cmd
}

func newPayCmd(e *env) *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   "pay <bookingID>",
		Short: "Pay for a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, err := e.requireSession(ctx)
			if err != nil {
				return err
			}
			b, err := e.client.GetBooking(ctx, session.Token, args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(amount) == "" {
				amount = strconv.FormatFloat(b.TotalCost, 'f', -1, 64)
			}

			out := cmd.OutOrStdout()
			payment, err := booking.Pay(ctx, e.client, session.Token, &b, amount)
			if err != nil {
				if booking.IsExpiredPaymentError(err) {
					fmt.Fprintf(out, "Booking %s has expired. Please book again.\n", b.Id)
					return nil
				}
				return err
			}
			paid := payment.Amount
			if paid == 0 {
				paid, _ = strconv.ParseFloat(amount, 64)
			}
			fmt.Fprintf(out, "Paid Rs. %.2f for booking %s. Status: %s\n", paid, b.Id, b.NormalizedStatus())
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount to pay, defaults to the booking total")
	return cmd
}

func renderBookings(out io.Writer, bookings []model.Booking) {
	sorted := make([]model.Booking, len(bookings))
	copy(sorted, bookings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"ID", "Movie", "Theatre", "Date", "Time", "Seats", "Total", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 24},
		{Number: 3, WidthMax: 24},
	})
	for _, b := range sorted {
		date := ""
		if !b.BookingDate.IsZero() {
			date = b.BookingDate.Local().Format(time.DateOnly)
		}
		t.AppendRow(table.Row{
			b.Id,
			b.MovieId.Label(),
			b.TheatreId.Label(),
			date,
			b.Timings,
			strings.Join(b.Seats, ", "),
			fmt.Sprintf("Rs. %.0f", b.TotalCost),
			b.NormalizedStatus(),
		})
	}
	t.Render()
}
