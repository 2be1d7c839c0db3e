package booking

import (
	"errors"
	"time"
)

var (
	ErrNoSeats        = errors.New("select at least one seat")
	ErrShowExpired    = errors.New("this show has already started")
	ErrSubmitInFlight = errors.New("a booking is already being submitted")
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrNoBackend      = errors.New("booking service is not configured")
)

// Gate holds everything that decides whether a booking may be submitted.
type Gate struct {
	Seats      int
	Date       time.Time
	Timings    string
	Now        time.Time
	Submitting bool
}

// Err returns nil when submission is allowed, otherwise the first reason it is not.
func (g Gate) Err() error {
	if g.Submitting {
		return ErrSubmitInFlight
	}
	if g.Seats <= 0 {
		return ErrNoSeats
	}
	expired, err := Expired(g.Date, g.Timings, g.Now)
	if err != nil {
		return err
	}
	if expired {
		return ErrShowExpired
	}
	return nil
}

// Open reports whether submission is allowed.
func (g Gate) Open() bool {
	return g.Err() == nil
}
