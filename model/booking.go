package model

import (
	"strings"
	"time"
)

// BookingStatus values as reported by the backend (case varies).
const (
	BookingProcessing = "PROCESSING"
	BookingSuccessful = "SUCCESSFUL"
	BookingCancelled  = "CANCELLED"
	BookingExpired    = "EXPIRED"
)

// BookingRequest is the payload for POST /bookings.
type BookingRequest struct {
	MovieId     string    `json:"movieId" validate:"required"`
	TheatreId   string    `json:"theatreId" validate:"required"`
	ShowId      string    `json:"showId" validate:"required"`
	BookingDate time.Time `json:"bookingDate" validate:"required"`
	Timings     string    `json:"timings" validate:"required"`
	NoOfSeats   int       `json:"noOfSeats" validate:"min=1"`
	Seats       []string  `json:"seats" validate:"min=1,unique,dive,len=3"`
	TotalCost   float64   `json:"totalCost" validate:"gte=0"`
}

type Booking struct {
	Id          string    `json:"_id"`
	MovieId     Ref       `json:"movieId"`
	TheatreId   Ref       `json:"theatreId"`
	ShowId      Ref       `json:"showId"`
	UserId      Ref       `json:"userId"`
	Timings     string    `json:"timings"`
	BookingDate time.Time `json:"bookingDate"`
	NoOfSeats   int       `json:"noOfSeats"`
	Seats       []string  `json:"seats"`
	TotalCost   float64   `json:"totalCost"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NormalizedStatus upper-cases the status so callers can compare against the constants.
func (b Booking) NormalizedStatus() string {
	return strings.ToUpper(strings.TrimSpace(b.Status))
}

// AwaitingPayment reports whether the booking can still be paid for.
func (b Booking) AwaitingPayment() bool {
	return b.NormalizedStatus() == BookingProcessing
}

// PaymentRequest is the payload for POST /payments.
type PaymentRequest struct {
	Amount    float64 `json:"amount" validate:"gt=0"`
	BookingId string  `json:"bookingId" validate:"required"`
}

type Payment struct {
	Id        string    `json:"_id"`
	BookingId Ref       `json:"bookingId"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
