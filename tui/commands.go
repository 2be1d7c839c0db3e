package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"moviebook-cli/booking"
	"moviebook-cli/logging"
	"moviebook-cli/model"
	"moviebook-cli/service"
	"moviebook-cli/store"
)

func (m appModel) fetchMoviesCmd() tea.Cmd {
	return func() tea.Msg {
		if cached, fresh, err := store.LoadMovieCache(); err == nil && fresh && len(cached) > 0 {
			return moviesMsg{movies: cached}
		}
		if m.client == nil {
			return moviesMsg{err: booking.ErrNoBackend}
		}
		ctx := context.Background()
		movies, err := m.client.GetMovies(ctx)
		if err == nil && len(movies) > 0 {
			_ = store.SaveMovieCache(movies)
		}
		return moviesMsg{movies: movies, err: err}
	}
}

func (m appModel) fetchShowsCmd(movieID string) tea.Cmd {
	return func() tea.Msg {
		if cached, fresh, err := store.LoadShowCache(movieID); err == nil && fresh && len(cached) > 0 {
			return showsMsg{shows: cached}
		}
		if m.client == nil {
			return showsMsg{err: booking.ErrNoBackend}
		}
		ctx := context.Background()
		shows, err := m.client.GetShows(ctx, service.ShowQuery{MovieID: movieID})
		if err != nil {
			if service.IsNotFound(err) {
				return showsMsg{}
			}
			return showsMsg{err: err}
		}
		if len(shows) > 0 {
			_ = store.SaveShowCache(movieID, shows)
		}
		return showsMsg{shows: shows}
	}
}

// fetchSeatMapCmd always goes to the backend so booked seats are current.
func (m appModel) fetchSeatMapCmd(showID string) tea.Cmd {
	return func() tea.Msg {
		if m.client == nil {
			return seatMapMsg{err: booking.ErrNoBackend}
		}
		ctx := context.Background()
		show, err := m.client.GetShow(ctx, showID)
		return seatMapMsg{show: show, err: err}
	}
}

// submitCmd sends a request already admitted by Flow.Begin.
func (m appModel) submitCmd(flow *booking.Flow, token string, req model.BookingRequest) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		created, err := flow.Send(ctx, token, req)
		return bookingCreatedMsg{booking: created, err: err}
	}
}

func (m appModel) fetchBookingsCmd(token string) tea.Cmd {
	return func() tea.Msg {
		if m.client == nil {
			return bookingsMsg{err: booking.ErrNoBackend}
		}
		ctx := context.Background()
		bookings, err := m.client.GetBookings(ctx, token)
		return bookingsMsg{bookings: bookings, err: err}
	}
}

func (m appModel) payCmd(b model.Booking, token string, amount string) tea.Cmd {
	return func() tea.Msg {
		if m.client == nil {
			return paymentMsg{booking: b, err: booking.ErrNoBackend}
		}
		ctx := context.Background()
		payment, err := booking.Pay(ctx, m.client, token, &b, amount)
		if err != nil {
			logging.Warn().Err(err).Str("booking", b.Id).Msg("payment failed")
		}
		return paymentMsg{booking: b, payment: payment, err: err}
	}
}
