package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"moviebook-cli/booking"
	"moviebook-cli/model"
	"moviebook-cli/seating"
	"moviebook-cli/store"
)

type dateItem struct {
	date  time.Time
	today time.Time
}

func (d dateItem) Title() string {
	if isSameDay(d.date, d.today) {
		return fmt.Sprintf("%s • %s (Today)", d.date.Format("Mon"), d.date.Format("02/01"))
	}
	return fmt.Sprintf("%s • %s", d.date.Format("Mon"), d.date.Format("02/01"))
}

func (d dateItem) Description() string {
	return d.date.Format(time.DateOnly)
}

func (d dateItem) FilterValue() string {
	return d.Title()
}

func buildDateItems(base time.Time, now time.Time) []list.Item {
	start := truncateDate(base)
	if today := truncateDate(now); start.Before(today) {
		start = today
	}
	items := make([]list.Item, 0, 7)
	for i := 0; i < 7; i++ {
		items = append(items, dateItem{date: start.AddDate(0, 0, i), today: now})
	}
	return items
}

func isSameDay(a time.Time, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

type movieItem struct {
	movie model.Movie
}

func (m movieItem) Title() string {
	return m.movie.Name
}

func (m movieItem) Description() string {
	parts := []string{}
	for _, p := range []string{m.movie.Language, m.movie.Director, m.movie.ReleaseStatus} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " • ")
}

func (m movieItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{m.movie.Name, m.movie.Language, m.movie.Director}, " "))
}

func buildMovieItems(movies []model.Movie) []list.Item {
	items := make([]list.Item, 0, len(movies))
	for _, movie := range movies {
		items = append(items, movieItem{movie: movie})
	}
	return items
}

type showItem struct {
	show      model.Show
	hidden    bool
	recent    bool
	expired   bool
	seatsLeft int
}

func (s showItem) Title() string {
	return fmt.Sprintf("%s • %s", s.show.Timings, s.show.TheatreId.Label())
}

func (s showItem) Description() string {
	parts := []string{}
	if tod, err := booking.TimeOfDayOf(s.show.Timings); err == nil {
		parts = append(parts, string(tod))
	}
	if s.show.Format != "" {
		parts = append(parts, s.show.Format)
	}
	if s.show.Price > 0 {
		parts = append(parts, formatPrice(s.show.Price))
	}
	parts = append(parts, fmt.Sprintf("%d seats left", s.seatsLeft))
	if s.show.TheatreId.City != "" {
		parts = append(parts, s.show.TheatreId.City)
	}
	if s.recent {
		parts = append(parts, "recent")
	}
	if s.expired {
		parts = append(parts, "started")
	}
	if s.hidden {
		parts = append(parts, "hidden")
	}
	return strings.Join(parts, " • ")
}

func (s showItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{s.show.TheatreId.Label(), s.show.TheatreId.City, s.show.Timings, s.show.Format}, " "))
}

type showListOptions struct {
	filter     booking.ShowFilter
	hidden     map[string]bool
	showHidden bool
	recent     []store.RecentTheatre
	city       string
	day        time.Time
	dayChosen  bool
	now        time.Time
}

// onDay keeps shows listed for the chosen day. Shows without a date run daily.
func (o showListOptions) onDay(shows []model.Show) []model.Show {
	if !o.dayChosen {
		return shows
	}
	out := make([]model.Show, 0, len(shows))
	for _, show := range shows {
		if show.Date == nil || show.Date.IsZero() || isSameDay(*show.Date, o.day) {
			out = append(out, show)
		}
	}
	return out
}

func (o showListOptions) theatreRank(theatre model.Ref) int {
	for i, r := range o.recent {
		if r.TheatreID == theatre.ID {
			return i
		}
	}
	if o.city != "" && strings.EqualFold(strings.TrimSpace(theatre.City), o.city) {
		return len(o.recent)
	}
	return len(o.recent) + 1
}

// buildShowItems lists shows grouped by theatre: recently used theatres
// first, then theatres in the user's city, then the rest in listing order.
func buildShowItems(shows []model.Show, opts showListOptions) []list.Item {
	shows = opts.filter.Apply(opts.onDay(shows))

	visible := make([]model.Show, 0, len(shows))
	for _, show := range shows {
		if opts.hidden[show.TheatreId.ID] && !opts.showHidden {
			continue
		}
		visible = append(visible, show)
	}

	groups := booking.GroupByTheatre(visible)
	sort.SliceStable(groups, func(i, j int) bool {
		return opts.theatreRank(groups[i].Theatre) < opts.theatreRank(groups[j].Theatre)
	})

	items := make([]list.Item, 0, len(visible))
	for _, group := range groups {
		recent := opts.theatreRank(group.Theatre) < len(opts.recent)
		for _, show := range group.Shows {
			date := booking.ResolveBookingDate(nil, show, opts.now)
			if opts.dayChosen {
				date = opts.day
			}
			expired, _ := booking.Expired(date, show.Timings, opts.now)
			items = append(items, showItem{
				show:      show,
				hidden:    opts.hidden[show.TheatreId.ID],
				recent:    recent,
				expired:   expired,
				seatsLeft: seatsLeft(show),
			})
		}
	}
	return items
}

func seatsLeft(show model.Show) int {
	sel := seating.NewSelectionWithPrices(show.BookedSeats, show.Prices(seating.PriceTable{}))
	left := 0
	for _, id := range seating.AllSeats() {
		if !sel.IsBooked(id) {
			left++
		}
	}
	return left
}

type bookingItem struct {
	booking model.Booking
}

func (b bookingItem) Title() string {
	return fmt.Sprintf("%s • %s", b.booking.MovieId.Label(), b.booking.TheatreId.Label())
}

func (b bookingItem) Description() string {
	parts := []string{}
	if !b.booking.BookingDate.IsZero() {
		parts = append(parts, b.booking.BookingDate.Local().Format(time.DateOnly))
	}
	if b.booking.Timings != "" {
		parts = append(parts, b.booking.Timings)
	}
	if len(b.booking.Seats) > 0 {
		parts = append(parts, strings.Join(b.booking.Seats, ", "))
	}
	parts = append(parts, formatPrice(b.booking.TotalCost))
	status := b.booking.NormalizedStatus()
	if b.booking.AwaitingPayment() {
		status += " (enter to pay)"
	}
	parts = append(parts, status)
	return strings.Join(parts, " • ")
}

func (b bookingItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{b.booking.MovieId.Label(), b.booking.TheatreId.Label(), b.booking.Status}, " "))
}

func buildBookingItems(bookings []model.Booking) []list.Item {
	sorted := make([]model.Booking, len(bookings))
	copy(sorted, bookings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	items := make([]list.Item, 0, len(sorted))
	for _, b := range sorted {
		items = append(items, bookingItem{booking: b})
	}
	return items
}

func formatPrice(price float64) string {
	if price == float64(int64(price)) {
		return fmt.Sprintf("Rs. %d", int64(price))
	}
	return fmt.Sprintf("Rs. %.2f", price)
}
