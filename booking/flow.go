package booking

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"moviebook-cli/logging"
	"moviebook-cli/model"
	"moviebook-cli/seating"
)

// Creator creates bookings on the backend.
type Creator interface {
	CreateBooking(ctx context.Context, token string, req model.BookingRequest) (model.Booking, error)
}

// Flow is one show-booking session: a show, the day being booked and the
// seat selection. At most one submission is in flight at a time.
type Flow struct {
	show       model.Show
	date       time.Time
	selection  *seating.Selection
	creator    Creator
	now        func() time.Time
	submitting atomic.Bool
}

// NewFlow starts a booking session for show on date. A zero date resolves to
// the show's listed date, then today.
func NewFlow(show model.Show, date time.Time, selection *seating.Selection, creator Creator) *Flow {
	f := &Flow{
		show:      show,
		selection: selection,
		creator:   creator,
		now:       time.Now,
	}
	var explicit *time.Time
	if !date.IsZero() {
		explicit = &date
	}
	f.date = ResolveBookingDate(explicit, show, f.now())
	return f
}

// SetClock replaces the wall clock used for expiry checks.
func (f *Flow) SetClock(now func() time.Time) {
	if now != nil {
		f.now = now
	}
}

func (f *Flow) Show() model.Show              { return f.show }
func (f *Flow) Date() time.Time               { return f.date }
func (f *Flow) Selection() *seating.Selection { return f.selection }
func (f *Flow) Submitting() bool              { return f.submitting.Load() }

// Gate describes the current submission state.
func (f *Flow) Gate() Gate {
	return Gate{
		Seats:      len(f.selection.Snapshot().Seats),
		Date:       f.date,
		Timings:    f.show.Timings,
		Now:        f.now(),
		Submitting: f.submitting.Load(),
	}
}

// Expired reports whether the show has started. Unparseable timings are an error.
func (f *Flow) Expired() (bool, error) {
	return Expired(f.date, f.show.Timings, f.now())
}

// Begin checks the gate, marks the flow as submitting and returns the request
// to send. Every successful Begin must be followed by Send.
func (f *Flow) Begin() (model.BookingRequest, error) {
	if !f.submitting.CompareAndSwap(false, true) {
		return model.BookingRequest{}, ErrSubmitInFlight
	}
	gate := f.Gate()
	gate.Submitting = false
	if err := gate.Err(); err != nil {
		f.submitting.Store(false)
		return model.BookingRequest{}, err
	}
	req := BuildRequest(f.show, f.date, f.selection.Snapshot())
	if err := ValidateRequest(req); err != nil {
		f.submitting.Store(false)
		return model.BookingRequest{}, err
	}
	return req, nil
}

// Send posts req once and clears the submitting mark. Failures are not
// retried and leave the selection untouched.
func (f *Flow) Send(ctx context.Context, token string, req model.BookingRequest) (model.Booking, error) {
	defer f.submitting.Store(false)

	if strings.TrimSpace(token) == "" {
		return model.Booking{}, ErrNotLoggedIn
	}
	if f.creator == nil {
		return model.Booking{}, ErrNoBackend
	}
	log := logging.With().Str("component", "booking").Str("show", req.ShowId).Logger()
	log.Info().Strs("seats", req.Seats).Float64("total", req.TotalCost).Msg("submitting booking")

	booking, err := f.creator.CreateBooking(ctx, token, req)
	if err != nil {
		log.Warn().Err(err).Msg("booking failed")
		return model.Booking{}, err
	}
	log.Info().Str("booking", booking.Id).Msg("booking created")
	return booking, nil
}

// Submit runs Begin and Send.
func (f *Flow) Submit(ctx context.Context, token string) (model.Booking, error) {
	req, err := f.Begin()
	if err != nil {
		return model.Booking{}, err
	}
	return f.Send(ctx, token, req)
}
