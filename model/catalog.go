package model

import (
	"time"

	"moviebook-cli/seating"
)

type Movie struct {
	Id            string   `json:"_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Casts         []string `json:"casts"`
	TrailerUrl    string   `json:"trailerUrl"`
	Language      string   `json:"language"`
	ReleaseDate   string   `json:"releaseDate"`
	Director      string   `json:"director"`
	ReleaseStatus string   `json:"releaseStatus"`
	Poster        string   `json:"poster"`
}

type Theatre struct {
	Id          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	City        string `json:"city"`
	Pincode     int    `json:"pincode"`
	Address     string `json:"address"`
	Location    string `json:"location"`
}

// Show is one scheduled screening. BookedSeats and TicketPrice drive the seat map.
type Show struct {
	Id          string              `json:"_id"`
	MovieId     Ref                 `json:"movieId"`
	TheatreId   Ref                 `json:"theatreId"`
	Timings     string              `json:"timings"`
	Date        *time.Time          `json:"date,omitempty"`
	NoOfSeats   int                 `json:"noOfSeats"`
	Format      string              `json:"format"`
	Price       float64             `json:"price"`
	BookedSeats []string            `json:"bookedSeats"`
	TicketPrice *seating.PriceTable `json:"ticketPrice,omitempty"`
}

// Prices returns the show's own tier table when it carries one, even an
// all-zero one, and fallback otherwise.
func (s Show) Prices(fallback seating.PriceTable) *seating.PriceTable {
	table := fallback.OrDefault()
	if s.TicketPrice != nil {
		table = *s.TicketPrice
	}
	return &table
}

// IsOrphan reports a show whose movie or theatre has been deleted.
func (s Show) IsOrphan() bool {
	return s.MovieId.IsZero() || s.TheatreId.IsZero()
}

type SearchResult struct {
	Movies   []Movie   `json:"movies"`
	Theatres []Theatre `json:"theatres"`
}
