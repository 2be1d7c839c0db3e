package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"moviebook-cli/booking"
	"moviebook-cli/model"
)

func (m appModel) openBookings() (tea.Model, tea.Cmd, bool) {
	token := m.token()
	if token == "" {
		return m, errCmd(booking.ErrNotLoggedIn), true
	}
	m.state = stateLoadingBookings
	return m, tea.Batch(m.fetchBookingsCmd(token), m.spinner.Tick), true
}

func (m appModel) openPayment(b model.Booking) (tea.Model, tea.Cmd, bool) {
	if !b.AwaitingPayment() {
		m.notice = fmt.Sprintf("This booking is %s and cannot be paid.", strings.ToLower(b.NormalizedStatus()))
		return m, nil, true
	}
	m.paying = b
	m.payInput.SetValue(strconv.FormatFloat(b.TotalCost, 'f', -1, 64))
	m.payInput.CursorEnd()
	cmd := m.payInput.Focus()
	m.notice = ""
	m.state = statePayment
	return m, cmd, true
}

func (m appModel) updatePayment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.payInput.Blur()
		m.notice = ""
		m.state = stateBookings
		return m, nil
	case "enter":
		if _, err := booking.CheckPaymentAmount(m.payInput.Value(), m.paying.TotalCost); err != nil {
			m.notice = booking.UserMessage(err)
			return m, nil
		}
		token := m.token()
		if token == "" {
			m.notice = booking.UserMessage(booking.ErrNotLoggedIn)
			return m, nil
		}
		m.payInput.Blur()
		m.notice = ""
		m.state = statePaying
		return m, tea.Batch(m.payCmd(m.paying, token, m.payInput.Value()), m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.payInput, cmd = m.payInput.Update(msg)
	return m, cmd
}

func (m appModel) handlePayment(msg paymentMsg) (tea.Model, tea.Cmd) {
	for i := range m.bookings {
		if m.bookings[i].Id == msg.booking.Id {
			m.bookings[i] = msg.booking
		}
	}
	index := m.bookingList.Index()
	m.bookingList.SetItems(buildBookingItems(m.bookings))
	m.bookingList.Select(index)
	m.state = stateBookings

	amount := msg.payment.Amount
	if amount == 0 {
		amount = msg.booking.TotalCost
	}
	switch {
	case msg.err == nil:
		m.notice = fmt.Sprintf("Payment of %s received. Booking confirmed.", formatPrice(amount))
	case booking.IsExpiredPaymentError(msg.err):
		m.notice = "This booking has expired. Please book again."
	default:
		m.notice = booking.UserMessage(msg.err)
	}
	return m, nil
}

func (m appModel) paymentView() string {
	b := m.paying
	title := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Pay for %s", b.MovieId.Label()))
	lines := []string{
		title,
		hint(fmt.Sprintf("%s • %s %s", b.TheatreId.Label(), b.BookingDate.Local().Format(time.DateOnly), b.Timings)),
		fmt.Sprintf("Seats: %s", strings.Join(b.Seats, ", ")),
		fmt.Sprintf("Total: %s", formatPrice(b.TotalCost)),
		"",
		m.payInput.View(),
	}
	return strings.Join(lines, "\n") + m.noticeLine()
}
