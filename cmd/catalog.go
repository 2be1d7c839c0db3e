package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"moviebook-cli/booking"
	"moviebook-cli/model"
	"moviebook-cli/service"
	"moviebook-cli/store"
)

func newMoviesCmd(e *env) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "movies",
		Short: "List movies now showing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if strings.TrimSpace(query) != "" {
				result, err := e.client.Search(ctx, query)
				if err != nil {
					return err
				}
				renderMovies(cmd.OutOrStdout(), result.Movies)
				if len(result.Theatres) > 0 {
					renderTheatres(cmd.OutOrStdout(), result.Theatres, nil)
				}
				return nil
			}
			movies, err := loadMovies(ctx, e.client)
			if err != nil {
				return err
			}
			renderMovies(cmd.OutOrStdout(), movies)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "search movies and theatres by name")
	return cmd
}

func newTheatresCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theatres",
		Short: "List theatres, your city first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			theatres, err := loadTheatres(cmd.Context(), e.client)
			if err != nil {
				return err
			}
			service.SortTheatresByCity(theatres, e.cfg.City)
			hidden, err := store.LoadHiddenTheatres()
			if err != nil {
				return err
			}
			renderTheatres(cmd.OutOrStdout(), theatres, hidden)
			return nil
		},
	}
	cmd.AddCommand(newTheatreVisibilityCmd("hide", "Hide a theatre from show listings", true))
	cmd.AddCommand(newTheatreVisibilityCmd("unhide", "Show a hidden theatre again", false))
	return cmd
}

func newTheatreVisibilityCmd(use, short string, hidden bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <theatreID>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.SetTheatreHidden(args[0], hidden); err != nil {
				return err
			}
			state := "visible"
			if hidden {
				state = "hidden"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theatre %s is now %s.\n", args[0], state)
			return nil
		},
	}
}

func newShowsCmd(e *env) *cobra.Command {
	var (
		theatreID string
		timeOfDay string
		priceBand int
		dateFlag  string
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "shows <movieID>",
		Short: "List shows of a movie grouped by theatre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			filter := booking.ShowFilter{}
			if timeOfDay != "" {
				tod, err := parseTimeOfDay(timeOfDay)
				if err != nil {
					return err
				}
				filter.Times = []booking.TimeOfDay{tod}
			}
			if priceBand > 0 {
				if priceBand > len(booking.PriceRanges) {
					return fmt.Errorf("price band must be between 1 and %d", len(booking.PriceRanges))
				}
				filter.Prices = []booking.PriceRange{booking.PriceRanges[priceBand-1]}
			}
			var day *time.Time
			if dateFlag != "" {
				d, err := booking.ParseDate(dateFlag, time.Local)
				if err != nil {
					return err
				}
				day = &d
			}

			movie, err := e.client.GetMovie(ctx, args[0])
			if err != nil {
				return err
			}
			shows, err := e.client.GetShows(ctx, service.ShowQuery{MovieID: args[0], TheatreID: theatreID})
			if err != nil {
				return err
			}
			if len(shows) > 0 && theatreID == "" {
				_ = store.SaveShowCache(args[0], shows)
			}
			hidden, err := store.LoadHiddenTheatres()
			if err != nil {
				return err
			}
			visible := make([]model.Show, 0, len(shows))
			for _, s := range filter.Apply(shows) {
				if hidden[s.TheatreId.ID] && !all {
					continue
				}
				if day != nil && s.Date != nil && !sameDay(*s.Date, *day) {
					continue
				}
				visible = append(visible, s)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", movie.Name)
			if len(visible) == 0 {
				fmt.Fprintln(out, "No shows match.")
				return nil
			}
			renderShows(out, visible, day, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVar(&theatreID, "theatre", "", "only shows at this theatre")
	cmd.Flags().StringVar(&timeOfDay, "time", "", "morning, afternoon, evening or night")
	cmd.Flags().IntVar(&priceBand, "price", 0, priceBandHelp())
	cmd.Flags().StringVar(&dateFlag, "date", "", "only shows on this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&all, "all", false, "include hidden theatres")
	return cmd
}

func priceBandHelp() string {
	labels := make([]string, 0, len(booking.PriceRanges))
	for i, r := range booking.PriceRanges {
		labels = append(labels, fmt.Sprintf("%d=%s", i+1, r.Label))
	}
	return "price band: " + strings.Join(labels, ", ")
}

func parseTimeOfDay(value string) (booking.TimeOfDay, error) {
	for _, t := range booking.TimesOfDay {
		if strings.EqualFold(string(t), strings.TrimSpace(value)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown time of day %q", value)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func loadMovies(ctx context.Context, client *service.Client) ([]model.Movie, error) {
	if cached, fresh, err := store.LoadMovieCache(); err == nil && fresh && len(cached) > 0 {
		return cached, nil
	}
	movies, err := client.GetMovies(ctx)
	if err != nil {
		return nil, err
	}
	if len(movies) > 0 {
		_ = store.SaveMovieCache(movies)
	}
	return movies, nil
}

func loadTheatres(ctx context.Context, client *service.Client) ([]model.Theatre, error) {
	if cached, fresh, err := store.LoadTheatreCache(); err == nil && fresh && len(cached) > 0 {
		return cached, nil
	}
	theatres, err := client.GetTheatres(ctx)
	if err != nil {
		return nil, err
	}
	if len(theatres) > 0 {
		_ = store.SaveTheatreCache(theatres)
	}
	return theatres, nil
}

func renderMovies(out io.Writer, movies []model.Movie) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"ID", "Movie", "Language", "Director", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 30},
	})
	for _, m := range movies {
		t.AppendRow(table.Row{m.Id, m.Name, m.Language, m.Director, m.ReleaseStatus})
	}
	t.Render()
}

func renderTheatres(out io.Writer, theatres []model.Theatre, hidden map[string]bool) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"ID", "Theatre", "City", "Pincode", "Hidden"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 30},
	})
	for _, th := range theatres {
		mark := ""
		if hidden[th.Id] {
			mark = "yes"
		}
		t.AppendRow(table.Row{th.Id, th.Name, th.City, th.Pincode, mark})
	}
	t.Render()
}

func renderShows(out io.Writer, shows []model.Show, day *time.Time, now time.Time) {
	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Theatre", "Show ID", "Time", "Format", "Price", "Note"}, rowConfigAutoMerge)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true, WidthMax: 24},
	})
	t.Style().Options.SeparateRows = true

	for _, group := range booking.GroupByTheatre(shows) {
		var rows []table.Row
		for _, s := range group.Shows {
			note := ""
			if expired, err := booking.Expired(booking.ResolveBookingDate(day, s, now), s.Timings, now); err != nil {
				note = "unknown start"
			} else if expired {
				note = "started"
			}
			rows = append(rows, table.Row{group.Theatre.Label(), s.Id, s.Timings, s.Format, fmt.Sprintf("Rs. %.0f", s.Price), note})
		}
		t.AppendRows(rows, rowConfigAutoMerge)
		t.AppendSeparator()
	}
	t.Render()
}
