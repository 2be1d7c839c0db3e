package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"moviebook-cli/booking"
	"moviebook-cli/logging"
	"moviebook-cli/model"
	"moviebook-cli/seating"
	"moviebook-cli/store"
)

const (
	seatCellWidth = 2
	seatGroupGap  = "   "
)

var (
	seatStyleAvailable = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	seatStyleSelected  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("5")).Bold(true)
	seatStyleBooked    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Faint(true)
	seatStyleCursor    = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")).Bold(true)
	tierStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
)

// openSeatMap starts a booking session for a freshly fetched show.
func (m *appModel) openSeatMap(show model.Show) {
	var date time.Time
	if m.dateChosen {
		date = m.date
	}
	var creator booking.Creator
	if m.client != nil {
		creator = m.client
	}
	selection := seating.NewSelectionWithPrices(show.BookedSeats, show.Prices(m.prices))
	flow := booking.NewFlow(show, date, selection, creator)
	flow.SetClock(m.now)

	m.flow = flow
	m.cursorRow = 0
	m.cursorCol = 0
	m.notice = ""
	m.state = stateSeatMap
	logging.Debug().Str("show", show.Id).Int("booked", len(show.BookedSeats)).Msg("seat map opened")
}

func (m appModel) handleSeatMapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if m.flow == nil {
		return m, nil, false
	}
	switch msg.String() {
	case "up", "k":
		m.moveCursor(-1, 0)
	case "down", "j":
		m.moveCursor(1, 0)
	case "left", "h":
		m.moveCursor(0, -1)
	case "right", "l":
		m.moveCursor(0, 1)
	case " ", "enter":
		m.toggleCursorSeat()
	case "c":
		m.flow.Selection().Clear()
		m.notice = ""
	case "n":
		m.showSeatNumbers = !m.showSeatNumbers
	case "b", "ctrl+s":
		return m.submitBooking()
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m *appModel) moveCursor(dRow, dCol int) {
	row := m.cursorRow + dRow
	if row < 0 {
		row = 0
	}
	if row >= len(seating.Layout) {
		row = len(seating.Layout) - 1
	}
	seats := seating.Layout[row].Flat()
	col := m.cursorCol + dCol
	if col < 0 {
		col = 0
	}
	if col >= len(seats) {
		col = len(seats) - 1
	}
	m.cursorRow = row
	m.cursorCol = col
}

func (m appModel) cursorSeat() string {
	if m.cursorRow < 0 || m.cursorRow >= len(seating.Layout) {
		return ""
	}
	seats := seating.Layout[m.cursorRow].Flat()
	if m.cursorCol < 0 || m.cursorCol >= len(seats) {
		return ""
	}
	return seats[m.cursorCol]
}

func (m *appModel) toggleCursorSeat() {
	id := m.cursorSeat()
	if id == "" {
		return
	}
	sel := m.flow.Selection()
	if sel.IsBooked(id) {
		m.notice = fmt.Sprintf("Seat %s is already booked.", id)
		return
	}
	if _, err := sel.Toggle(id); err != nil {
		m.notice = booking.UserMessage(err)
		return
	}
	m.notice = ""
}

// submitBooking admits the submission synchronously so the selection is
// never read off the UI loop, then sends it in the background.
func (m appModel) submitBooking() (tea.Model, tea.Cmd, bool) {
	token := m.token()
	if token == "" {
		m.notice = booking.UserMessage(booking.ErrNotLoggedIn)
		return m, nil, true
	}
	req, err := m.flow.Begin()
	if err != nil {
		m.notice = booking.UserMessage(err)
		return m, nil, true
	}
	m.notice = ""
	m.state = stateSubmitting
	return m, tea.Batch(m.submitCmd(m.flow, token, req), m.spinner.Tick), true
}

func (m appModel) handleBookingCreated(msg bookingCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.state = stateSeatMap
		m.notice = booking.UserMessage(msg.err)
		return m, nil
	}
	seats := msg.booking.Seats
	total := msg.booking.TotalCost
	if m.flow != nil {
		snap := m.flow.Selection().Snapshot()
		if len(seats) == 0 {
			seats = snap.Seats
		}
		if total == 0 {
			total = snap.TotalCost
		}
		if err := store.RememberTheatre(m.flow.Show().TheatreId); err != nil {
			logging.Warn().Err(err).Msg("remember theatre")
		}
	}
	m.notice = fmt.Sprintf("Booked %s for %s. Select the booking to pay.", strings.Join(seats, ", "), formatPrice(total))
	m.flow = nil
	m.state = stateLoadingBookings
	return m, tea.Batch(m.fetchBookingsCmd(m.token()), m.spinner.Tick)
}

func groupWidth(count int) int {
	if count <= 0 {
		return 0
	}
	return count*(seatCellWidth+1) - 1
}

func rowWidth(row seating.Row) int {
	width := 0
	for i, g := range row.Seats() {
		if i > 0 {
			width += len(seatGroupGap)
		}
		width += groupWidth(len(g))
	}
	return width
}

func (m appModel) renderSeatMap() string {
	if m.flow == nil {
		return "No seat map data."
	}
	sel := m.flow.Selection()
	prices := sel.Prices()
	cursor := m.cursorSeat()

	gridWidth := 0
	for _, row := range seating.Layout {
		gridWidth = max(gridWidth, rowWidth(row))
	}
	labelWidth := 2
	indent := strings.Repeat(" ", labelWidth+1)

	available, booked, total := 0, 0, 0
	var b strings.Builder
	var tier seating.Tier
	for i, row := range seating.Layout {
		if row.Tier != tier {
			tier = row.Tier
			if i > 0 {
				b.WriteString("\n")
			}
			heading := fmt.Sprintf("%s · %s", tier.Label(), formatPrice(prices.Price(tier)))
			b.WriteString(indent)
			b.WriteString(tierStyle.Render(padCell(heading, gridWidth)))
			b.WriteString("\n")
		}

		label := string(row.Letter)
		pad := gridWidth - rowWidth(row)
		b.WriteString(fmt.Sprintf("%*s ", labelWidth, label))
		b.WriteString(strings.Repeat(" ", pad/2))
		for gi, group := range row.Seats() {
			if gi > 0 {
				b.WriteString(seatGroupGap)
			}
			for si, id := range group {
				if si > 0 {
					b.WriteString(" ")
				}
				status := sel.Status(id)
				total++
				switch status {
				case seating.Booked:
					booked++
				case seating.Available:
					available++
				}
				b.WriteString(m.renderSeat(id, status, id == cursor))
			}
		}
		b.WriteString(strings.Repeat(" ", pad-pad/2))
		b.WriteString(fmt.Sprintf(" %-*s\n", labelWidth, label))
	}

	screenStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("214"))
	screenBorderStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Background(lipgloss.Color("236"))

	screenBar := screenBarBlock(gridWidth, "SCREEN")

	b.WriteString("\n")
	b.WriteString(indent)
	b.WriteString(screenBorderStyle.Render(screenBar.top))
	b.WriteString("\n")
	b.WriteString(indent)
	b.WriteString(screenStyle.Render(screenBar.mid))
	b.WriteString("\n")
	b.WriteString(indent)
	b.WriteString(screenBorderStyle.Render(screenBar.bot))
	b.WriteString("\n")
	b.WriteString(indent)
	b.WriteString(hint("All eyes this way"))
	b.WriteString("\n\n")

	b.WriteString(m.seatMapFooter(cursor))
	b.WriteString("\n\n")

	legend := "Legend: [] available • ■■ selected • XX sold"
	if m.showSeatNumbers {
		legend = "Legend: color shows status • numbers are seat labels"
	}
	snap := sel.Snapshot()
	counts := fmt.Sprintf("Available: %d • Selected: %d • Sold: %d • Total: %d", available, snap.Count(), booked, total)
	return b.String() + hint(legend) + "\n" + hint(counts)
}

func (m appModel) renderSeat(id string, status seating.Status, focused bool) string {
	text := "[]"
	style := seatStyleAvailable
	switch status {
	case seating.Selected:
		text = "■■"
		style = seatStyleSelected
	case seating.Booked:
		text = "XX"
		style = seatStyleBooked
	}
	if m.showSeatNumbers {
		text = id[1:]
	}
	if focused {
		style = seatStyleCursor
	}
	return style.Render(padCell(text, seatCellWidth))
}

func (m appModel) seatMapFooter(cursor string) string {
	sel := m.flow.Selection()
	lines := []string{}

	if cursor != "" {
		line := fmt.Sprintf("Seat %s", cursor)
		if tier, err := seating.TierOf(cursor); err == nil {
			line += fmt.Sprintf(" • %s • %s", tier.Label(), formatPrice(sel.Prices().Price(tier)))
		}
		line += " • " + sel.Status(cursor).String()
		lines = append(lines, hint(line))
	}

	snap := sel.Snapshot()
	if snap.Count() > 0 {
		lines = append(lines, lipgloss.NewStyle().Bold(true).Render(
			fmt.Sprintf("Selected (%d): %s • Total: %s", snap.Count(), strings.Join(snap.Seats, ", "), formatPrice(snap.TotalCost)),
		))
	} else {
		lines = append(lines, "No seats selected")
	}

	if err := m.flow.Gate().Err(); err != nil {
		lines = append(lines, hint(booking.UserMessage(err)))
	} else {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true).Render(
			fmt.Sprintf("Press b to book %d seat(s) for %s", snap.Count(), formatPrice(snap.TotalCost)),
		))
	}
	if m.notice != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render(m.notice))
	}
	return strings.Join(lines, "\n")
}

func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if text == "" {
		return strings.Repeat(" ", width)
	}
	n := lipgloss.Width(text)
	if n >= width {
		return text
	}
	padding := width - n
	left := padding / 2
	right := padding - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

type screenBlock struct {
	top string
	mid string
	bot string
}

func screenBarBlock(width int, label string) screenBlock {
	if width < len(label)+4 {
		width = len(label) + 4
	}
	if width < 10 {
		width = 10
	}

	border := "╭" + strings.Repeat("─", width-2) + "╮"
	bottom := "╰" + strings.Repeat("─", width-2) + "╯"

	labelText := " " + label + " "
	padding := width - len(labelText) - 2
	left := padding / 2
	right := padding - left
	mid := "│" + strings.Repeat(" ", left) + labelText + strings.Repeat(" ", right) + "│"
	return screenBlock{top: border, mid: mid, bot: bottom}
}
