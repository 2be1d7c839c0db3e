package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"moviebook-cli/model"
)

// GetBookings lists the caller's bookings.
func (c *Client) GetBookings(ctx context.Context, token string) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := c.getJSON(ctx, c.baseURL+"/bookings", token, "Failed to fetch bookings", &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// GetBooking fetches one booking.
func (c *Client) GetBooking(ctx context.Context, token, id string) (model.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return model.Booking{}, errors.New("booking id is required")
	}
	var booking model.Booking
	endpoint := fmt.Sprintf("%s/bookings/%s", c.baseURL, url.PathEscape(id))
	if err := c.getJSON(ctx, endpoint, token, "Failed to fetch booking", &booking); err != nil {
		return model.Booking{}, err
	}
	return booking, nil
}

// CreateBooking posts a booking request once.
func (c *Client) CreateBooking(ctx context.Context, token string, req model.BookingRequest) (model.Booking, error) {
	var booking model.Booking
	if err := c.sendJSON(ctx, http.MethodPost, c.baseURL+"/bookings", token, "Failed to create booking", req, &booking); err != nil {
		return model.Booking{}, err
	}
	return booking, nil
}

// CreatePayment pays for a booking.
func (c *Client) CreatePayment(ctx context.Context, token string, req model.PaymentRequest) (model.Payment, error) {
	var payment model.Payment
	if err := c.sendJSON(ctx, http.MethodPost, c.baseURL+"/payments", token, "Payment failed", req, &payment); err != nil {
		return model.Payment{}, err
	}
	return payment, nil
}
