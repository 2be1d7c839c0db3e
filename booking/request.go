package booking

import (
	"fmt"
	"slices"
	"time"

	"moviebook-cli/model"
	"moviebook-cli/seating"
	"moviebook-cli/validation"
)

// BuildRequest packages a selection snapshot for POST /bookings.
func BuildRequest(show model.Show, date time.Time, snap seating.Snapshot) model.BookingRequest {
	return model.BookingRequest{
		MovieId:     show.MovieId.ID,
		TheatreId:   show.TheatreId.ID,
		ShowId:      show.Id,
		BookingDate: date,
		Timings:     show.Timings,
		NoOfSeats:   len(snap.Seats),
		Seats:       slices.Clone(snap.Seats),
		TotalCost:   snap.TotalCost,
	}
}

// ValidateRequest checks field rules and that the seat count matches the seats.
func ValidateRequest(req model.BookingRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	if req.NoOfSeats != len(req.Seats) {
		return fmt.Errorf("noOfSeats %d does not match %d seats", req.NoOfSeats, len(req.Seats))
	}
	return nil
}
