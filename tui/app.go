package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"moviebook-cli/auth"
	"moviebook-cli/booking"
	"moviebook-cli/logging"
	"moviebook-cli/model"
	"moviebook-cli/seating"
	"moviebook-cli/service"
	"moviebook-cli/store"
)

type appState int

const (
	stateLoadingMovies appState = iota
	stateSelectMovie
	stateLoadingShows
	stateSelectShow
	stateSelectDate
	stateLoadingSeatMap
	stateSeatMap
	stateSubmitting
	stateLoadingBookings
	stateBookings
	statePayment
	statePaying
	stateError
)

// Deps are the collaborators the interactive app needs.
type Deps struct {
	Client *service.Client
	Auth   *auth.Manager
	// Prices is the fallback tier table for shows without their own.
	Prices seating.PriceTable
	// City moves theatres in this city to the top of show listings.
	City string
	Now  func() time.Time
}

type appModel struct {
	client *service.Client
	auth   *auth.Manager
	prices seating.PriceTable
	city   string
	now    func() time.Time

	state     appState
	lastState appState
	err       error
	notice    string

	width  int
	height int

	movies   []model.Movie
	shows    []model.Show
	bookings []model.Booking

	movie              model.Movie
	date               time.Time
	dateChosen         bool
	dateReturnState    appState
	dateReturnStateSet bool

	timeFilter     booking.TimeOfDay
	priceFilter    int
	hiddenTheatres map[string]bool
	showHidden     bool
	recent         []store.RecentTheatre

	movieList   list.Model
	showList    list.Model
	bookingList list.Model
	dateList    list.Model

	flow            *booking.Flow
	cursorRow       int
	cursorCol       int
	showSeatNumbers bool

	payInput textinput.Model
	paying   model.Booking

	spinner spinner.Model

	errorSuggestNextDay bool
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
	suggestNextDay bool
}

type moviesMsg struct {
	movies []model.Movie
	err    error
}

type showsMsg struct {
	shows []model.Show
	err   error
}

type seatMapMsg struct {
	show model.Show
	err  error
}

type bookingCreatedMsg struct {
	booking model.Booking
	err     error
}

type bookingsMsg struct {
	bookings []model.Booking
	err      error
}

type paymentMsg struct {
	booking model.Booking
	payment model.Payment
	err     error
}

// New builds the interactive booking app.
func New(deps Deps) tea.Model {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	m := appModel{
		client:      deps.Client,
		auth:        deps.Auth,
		prices:      deps.Prices.OrDefault(),
		city:        strings.TrimSpace(deps.City),
		now:         now,
		state:       stateLoadingMovies,
		date:        truncateDate(now()),
		priceFilter: -1,
	}

	m.movieList = newList("Select Movie")
	m.showList = newList("Shows")
	m.bookingList = newList("My Bookings")
	m.dateList = newList("Select Date")

	m.showSeatNumbers = false
	m.hiddenTheatres = make(map[string]bool)

	input := textinput.New()
	input.Prompt = "Rs. "
	input.Placeholder = "amount"
	input.CharLimit = 12
	m.payInput = input

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.fetchMoviesCmd(), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.state == statePayment {
			return m.updatePayment(msg)
		}
		if m.handleFilterInput(msg) {
			return m, nil
		}
		var handled bool
		m, cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}
		// fallthrough to component update
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		if msg.returnStateSet {
			m.lastState = msg.returnState
		} else {
			m.lastState = recoverStateFrom(m.state)
		}
		m.errorSuggestNextDay = msg.suggestNextDay
		m.state = stateError
		return m, nil

	case moviesMsg:
		if msg.err != nil {
			return m, errCmd(msg.err)
		}
		m.movies = msg.movies
		m.movieList.SetItems(buildMovieItems(msg.movies))
		m.state = stateSelectMovie
		return m, nil

	case showsMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateSelectMovie, false)
		}
		m.shows = msg.shows
		if len(m.shows) == 0 {
			return m, errWithOptionsCmd(fmt.Errorf("no shows listed for %s", m.movie.Name), stateSelectMovie, false)
		}
		hidden, err := store.LoadHiddenTheatres()
		if err != nil {
			logging.Warn().Err(err).Msg("load hidden theatres")
		} else {
			m.hiddenTheatres = hidden
		}
		if recent, err := store.LoadRecentTheatres(); err == nil {
			m.recent = recent
		}
		return m.openShowList()

	case seatMapMsg:
		if msg.err != nil {
			return m, errCmd(msg.err)
		}
		m.openSeatMap(msg.show)
		return m, nil

	case bookingCreatedMsg:
		return m.handleBookingCreated(msg)

	case bookingsMsg:
		if msg.err != nil {
			return m, errCmd(msg.err)
		}
		m.bookings = msg.bookings
		m.bookingList.SetItems(buildBookingItems(msg.bookings))
		m.state = stateBookings
		return m, nil

	case paymentMsg:
		return m.handlePayment(msg)
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectMovie:
		m.movieList, cmd = m.movieList.Update(msg)
	case stateSelectShow:
		m.showList, cmd = m.showList.Update(msg)
	case stateBookings:
		m.bookingList, cmd = m.bookingList.Update(msg)
	case stateSelectDate:
		m.dateList, cmd = m.dateList.Update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoadingMovies, stateLoadingShows, stateLoadingSeatMap, stateSubmitting, stateLoadingBookings, statePaying:
		return header + "\n\n" + m.loadingView()
	case stateSelectMovie:
		return header + "\n\n" + m.movieList.View()
	case stateSelectShow:
		return header + "\n\n" + m.showList.View()
	case stateSelectDate:
		return header + "\n\n" + m.dateList.View()
	case stateSeatMap:
		return header + "\n\n" + m.renderSeatMap()
	case stateBookings:
		return header + "\n\n" + m.bookingList.View() + m.noticeLine()
	case statePayment:
		return header + "\n\n" + m.paymentView()
	case stateError:
		if m.errorSuggestNextDay {
			return header + "\n\n" + m.errorRecoveryView()
		}
		return header + "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(booking.UserMessage(m.err)) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Movie Booking")
	sub := []string{}
	if session := m.session(); session != nil {
		sub = append(sub, fmt.Sprintf("User: %s", session.User.Label()))
	} else {
		sub = append(sub, "Not logged in")
	}
	if m.city != "" {
		sub = append(sub, fmt.Sprintf("City: %s", m.city))
	}
	if m.movie.Name != "" && m.state != stateBookings && m.state != statePayment {
		sub = append(sub, fmt.Sprintf("Movie: %s", m.movie.Name))
	}
	if m.dateChosen && (m.state == stateSelectMovie || m.state == stateSelectShow || m.state == stateSelectDate) {
		sub = append(sub, fmt.Sprintf("Date: %s", m.date.Format(time.DateOnly)))
	}
	if m.state == stateSelectShow {
		if m.timeFilter != "" {
			sub = append(sub, fmt.Sprintf("Time: %s", m.timeFilter))
		}
		if r, ok := m.priceRange(); ok {
			sub = append(sub, fmt.Sprintf("Price: %s", r.Label))
		}
	}
	if m.flow != nil && (m.state == stateSeatMap || m.state == stateSubmitting) {
		show := m.flow.Show()
		sub = append(sub, fmt.Sprintf("Theatre: %s", show.TheatreId.Label()))
		sub = append(sub, fmt.Sprintf("Show: %s %s", m.flow.Date().Format(time.DateOnly), show.Timings))
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + lipgloss.NewStyle().Faint(true).Render(meta)
	}
	hints := "ctrl+c quit • esc back • type to filter • ctrl+d pick date • ctrl+b my bookings"
	switch m.state {
	case stateSelectShow:
		hints = "ctrl+c quit • esc back • type to filter • enter seat map • ctrl+t time • ctrl+p price • ctrl+x hide theatre • ctrl+a show hidden • ctrl+d pick date"
	case stateSelectDate:
		hints = "ctrl+c quit • esc back • enter select date"
	case stateSeatMap:
		hints = "ctrl+c quit • esc back • arrows/hjkl move • space toggle • c clear • n numbers • b book"
	case stateBookings:
		hints = "ctrl+c quit • esc back • type to filter • enter pay • ctrl+r refresh"
	case statePayment:
		hints = "ctrl+c quit • esc cancel • enter pay"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) errorRecoveryView() string {
	nextDate := truncateDate(m.date.AddDate(0, 0, 1))
	headerChip := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("63")).
		Padding(0, 2)
	actionChip := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("63")).
		Width(8).
		Align(lipgloss.Center).
		Padding(0, 1)
	actionText := lipgloss.NewStyle().Bold(true)

	title := headerChip.Render("No Shows")
	message := lipgloss.NewStyle().
		Foreground(lipgloss.Color("203")).
		Bold(true).
		Render(fmt.Sprintf("No shows of %s on %s.", m.movie.Name, m.date.Format(time.DateOnly)))
	sub := hint("Press ENTER to try the next day, or CTRL+D to pick another date.")

	enterAction := lipgloss.JoinHorizontal(
		lipgloss.Top,
		actionChip.Render("ENTER"),
		"  ",
		actionText.Render(fmt.Sprintf("Try %s", nextDate.Format(time.DateOnly))),
	)
	dateAction := lipgloss.JoinHorizontal(
		lipgloss.Top,
		actionChip.Render("CTRL+D"),
		"  ",
		"Pick any other date",
	)
	footer := hint("ESC back • CTRL+C quit")

	content := strings.Join([]string{
		title,
		"",
		message,
		"",
		sub,
		"",
		enterAction,
		"",
		dateAction,
		"",
		footer,
	}, "\n")

	panelStyle := lipgloss.NewStyle().
		Padding(1, 3).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("63")).
		MarginTop(1)
	if m.width > 56 {
		cardWidth := m.width - 8
		if cardWidth > 84 {
			cardWidth = 84
		}
		panelStyle = panelStyle.Width(cardWidth)
	}
	panel := panelStyle.Render(content)
	if m.width > 0 {
		panel = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, panel)
	}

	return lipgloss.NewStyle().
		Padding(0, 1).
		Render(panel)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit, true
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		model, cmd := m.goBack()
		return model, cmd, true
	}

	if m.state == stateSeatMap {
		return m.handleSeatMapKey(msg)
	}

	switch msg.String() {
	case "ctrl+b":
		if m.state == stateSelectMovie || m.state == stateSelectShow {
			return m.openBookings()
		}
	case "ctrl+r":
		if m.state == stateBookings {
			return m.openBookings()
		}
	case "ctrl+t":
		if m.state == stateSelectShow {
			m.timeFilter = booking.NextTimeOfDay(m.timeFilter)
			m.refreshShowList()
			return m, nil, true
		}
	case "ctrl+p":
		if m.state == stateSelectShow {
			m.priceFilter++
			if m.priceFilter >= len(booking.PriceRanges) {
				m.priceFilter = -1
			}
			m.refreshShowList()
			return m, nil, true
		}
	case "ctrl+x":
		if m.state == stateSelectShow {
			return m.toggleTheatreVisibility()
		}
	case "ctrl+a":
		if m.state == stateSelectShow {
			m.showHidden = !m.showHidden
			m.refreshShowList()
			return m, nil, true
		}
	}

	if msg.String() == "ctrl+d" && (m.state == stateSelectMovie || m.state == stateSelectShow) {
		m.openDatePicker(m.state)
		return m, nil, true
	}
	if msg.String() == "ctrl+d" && m.state == stateError && m.errorSuggestNextDay {
		m.openDatePicker(stateSelectShow)
		return m, nil, true
	}

	if msg.Type == tea.KeyEnter {
		if m.state == stateError && m.errorSuggestNextDay {
			return m.advanceToNextDayFromError()
		}
		switch m.state {
		case stateSelectMovie:
			item, ok := m.movieList.SelectedItem().(movieItem)
			if !ok {
				return m, nil, true
			}
			m.movie = item.movie
			m.showList.Title = fmt.Sprintf("Shows • %s", item.movie.Name)
			m.showList.ResetFilter()
			m.state = stateLoadingShows
			return m, tea.Batch(m.fetchShowsCmd(m.movie.Id), m.spinner.Tick), true
		case stateSelectShow:
			item, ok := m.showList.SelectedItem().(showItem)
			if !ok {
				return m, nil, true
			}
			m.state = stateLoadingSeatMap
			return m, tea.Batch(m.fetchSeatMapCmd(item.show.Id), m.spinner.Tick), true
		case stateBookings:
			item, ok := m.bookingList.SelectedItem().(bookingItem)
			if !ok {
				return m, nil, true
			}
			return m.openPayment(item.booking)
		case stateSelectDate:
			item, ok := m.dateList.SelectedItem().(dateItem)
			if !ok {
				return m, nil, true
			}
			m.date = item.date
			m.dateChosen = true
			returnState := stateSelectShow
			if m.dateReturnStateSet {
				returnState = m.dateReturnState
				m.dateReturnStateSet = false
			}
			if returnState == stateSelectShow && len(m.shows) > 0 {
				model, cmd := m.openShowList()
				return model, cmd, true
			}
			m.state = stateSelectMovie
			return m, nil, true
		}
	}
	return m, nil, false
}

func (m appModel) goBack() (tea.Model, tea.Cmd) {
	switch m.state {
	case stateSelectShow:
		m.state = stateSelectMovie
	case stateSeatMap:
		m.flow = nil
		m.notice = ""
		m.state = stateSelectShow
	case stateBookings:
		m.notice = ""
		if len(m.shows) > 0 {
			m.state = stateSelectShow
		} else {
			m.state = stateSelectMovie
		}
	case stateSelectDate:
		if m.dateReturnStateSet {
			m.state = m.dateReturnState
			m.dateReturnStateSet = false
		} else {
			m.state = stateSelectShow
		}
	case stateError:
		m.state = m.lastState
		m.errorSuggestNextDay = false
	default:
		return m, nil
	}
	return m, nil
}

// openShowList rebuilds the listing and shows it, or suggests another day
// when the chosen date has nothing.
func (m appModel) openShowList() (tea.Model, tea.Cmd) {
	m.refreshShowList()
	if m.dateChosen && len(m.showList.Items()) == 0 && len(m.filterOptions().onDay(m.shows)) == 0 {
		return m, errWithOptionsCmd(
			fmt.Errorf("no shows of %s on %s", m.movie.Name, m.date.Format(time.DateOnly)),
			stateSelectMovie,
			true,
		)
	}
	m.state = stateSelectShow
	return m, nil
}

func (m appModel) advanceToNextDayFromError() (tea.Model, tea.Cmd, bool) {
	m.date = truncateDate(m.date.AddDate(0, 0, 1))
	m.dateChosen = true
	m.errorSuggestNextDay = false
	model, cmd := m.openShowList()
	return model, cmd, true
}

func (m *appModel) refreshShowList() {
	index := m.showList.Index()
	m.showList.SetItems(buildShowItems(m.shows, m.filterOptions()))
	if count := len(m.showList.Items()); count > 0 {
		if index >= count {
			index = count - 1
		}
		m.showList.Select(index)
	}
}

func (m appModel) filterOptions() showListOptions {
	filter := booking.ShowFilter{}
	if m.timeFilter != "" {
		filter.Times = []booking.TimeOfDay{m.timeFilter}
	}
	if r, ok := m.priceRange(); ok {
		filter.Prices = []booking.PriceRange{r}
	}
	return showListOptions{
		filter:     filter,
		hidden:     m.hiddenTheatres,
		showHidden: m.showHidden,
		recent:     m.recent,
		city:       m.city,
		day:        m.date,
		dayChosen:  m.dateChosen,
		now:        m.now(),
	}
}

func (m appModel) priceRange() (booking.PriceRange, bool) {
	if m.priceFilter < 0 || m.priceFilter >= len(booking.PriceRanges) {
		return booking.PriceRange{}, false
	}
	return booking.PriceRanges[m.priceFilter], true
}

func (m appModel) toggleTheatreVisibility() (tea.Model, tea.Cmd, bool) {
	item, ok := m.showList.SelectedItem().(showItem)
	if !ok {
		return m, nil, true
	}
	theatreID := item.show.TheatreId.ID
	hidden := !m.hiddenTheatres[theatreID]
	if err := store.SetTheatreHidden(theatreID, hidden); err != nil {
		return m, errCmd(err), true
	}
	if m.hiddenTheatres == nil {
		m.hiddenTheatres = map[string]bool{}
	}
	if hidden {
		m.hiddenTheatres[theatreID] = true
	} else {
		delete(m.hiddenTheatres, theatreID)
	}
	m.refreshShowList()
	return m, nil, true
}

func (m appModel) session() *store.Session {
	if m.auth == nil {
		return nil
	}
	return m.auth.Current()
}

func (m appModel) token() string {
	if m.auth == nil {
		return ""
	}
	return m.auth.Token()
}

func (m appModel) noticeLine() string {
	if m.notice == "" {
		return ""
	}
	return "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render(m.notice)
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	current := listPtr.FilterValue()
	listPtr.SetFilterText(current + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := listPtr.FilterValue()
	if value == "" {
		return
	}
	value = trimLastRune(value)
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func (m *appModel) openDatePicker(returnState appState) {
	m.dateReturnState = returnState
	m.dateReturnStateSet = true
	m.state = stateSelectDate
	m.dateList.SetItems(buildDateItems(m.date, m.now()))
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateSelectMovie:
		return &m.movieList
	case stateSelectShow:
		return &m.showList
	case stateBookings:
		return &m.bookingList
	default:
		return nil
	}
}

func (m appModel) isLoadingState() bool {
	return m.state == stateLoadingMovies ||
		m.state == stateLoadingShows ||
		m.state == stateLoadingSeatMap ||
		m.state == stateSubmitting ||
		m.state == stateLoadingBookings ||
		m.state == statePaying
}

func (m appModel) loadingView() string {
	title := "Loading"
	switch m.state {
	case stateLoadingMovies:
		title = "Loading movies"
	case stateLoadingShows:
		title = "Loading shows"
	case stateLoadingSeatMap:
		title = "Loading seat map"
	case stateSubmitting:
		title = "Submitting booking"
	case stateLoadingBookings:
		title = "Loading bookings"
	case statePaying:
		title = "Processing payment"
	}

	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Talking to the booking service..."))
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 6
	if h < 6 {
		h = 6
	}
	m.movieList.SetSize(m.width, h)
	m.showList.SetSize(m.width, h)
	m.bookingList.SetSize(m.width, h-1)
	m.dateList.SetSize(m.width, h)
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{
			err:            err,
			returnState:    0,
			returnStateSet: false,
			suggestNextDay: false,
		}
	}
}

func errWithOptionsCmd(err error, returnState appState, suggestNextDay bool) tea.Cmd {
	return func() tea.Msg {
		return errMsg{
			err:            err,
			returnState:    returnState,
			returnStateSet: true,
			suggestNextDay: suggestNextDay,
		}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingMovies:
		return stateSelectMovie
	case stateLoadingShows:
		return stateSelectMovie
	case stateLoadingSeatMap:
		return stateSelectShow
	case stateLoadingBookings, statePaying:
		return stateBookings
	case stateSubmitting:
		return stateSeatMap
	case stateError:
		return stateSelectMovie
	default:
		return state
	}
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}
