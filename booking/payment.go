package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"moviebook-cli/model"
	"moviebook-cli/validation"
)

var (
	ErrInvalidAmount = errors.New("enter a valid amount")
	ErrNotPayable    = errors.New("booking is not awaiting payment")
)

// AmountTooLowError reports a payment below the booking total.
type AmountTooLowError struct {
	Amount    float64
	TotalCost float64
}

func (e *AmountTooLowError) Error() string {
	return fmt.Sprintf("amount must be at least Rs. %.2f", e.TotalCost)
}

// Payer records payments on the backend.
type Payer interface {
	CreatePayment(ctx context.Context, token string, req model.PaymentRequest) (model.Payment, error)
}

// CheckPaymentAmount parses the entered amount and requires it to cover totalCost.
func CheckPaymentAmount(entered string, totalCost float64) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(entered), 64)
	if err != nil || amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if amount < totalCost {
		return 0, &AmountTooLowError{Amount: amount, TotalCost: totalCost}
	}
	return amount, nil
}

// IsExpiredPaymentError reports errors the backend raises for a lapsed booking.
func IsExpiredPaymentError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "expired")
}

// Pay submits a payment for b. When the backend reports the booking as
// expired, b is marked EXPIRED so the listing stops offering payment.
func Pay(ctx context.Context, payer Payer, token string, b *model.Booking, entered string) (model.Payment, error) {
	if strings.TrimSpace(token) == "" {
		return model.Payment{}, ErrNotLoggedIn
	}
	if !b.AwaitingPayment() {
		return model.Payment{}, ErrNotPayable
	}
	amount, err := CheckPaymentAmount(entered, b.TotalCost)
	if err != nil {
		return model.Payment{}, err
	}
	req := model.PaymentRequest{Amount: amount, BookingId: b.Id}
	if err := validation.Struct(req); err != nil {
		return model.Payment{}, err
	}

	payment, err := payer.CreatePayment(ctx, token, req)
	if err != nil {
		if IsExpiredPaymentError(err) {
			b.Status = model.BookingExpired
		}
		return model.Payment{}, err
	}
	if status := strings.ToUpper(payment.Status); status == model.BookingSuccessful || status == "" {
		b.Status = model.BookingSuccessful
	}
	return payment, nil
}

// UserMessage turns an error into the line shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotLoggedIn):
		return "You are not logged in. Run `moviebook login` first."
	case errors.Is(err, ErrInvalidTiming):
		return "Cannot determine show start time."
	case errors.Is(err, ErrNoSeats):
		return "Select at least one seat."
	case errors.Is(err, ErrShowExpired):
		return "This show has already started."
	case errors.Is(err, ErrSubmitInFlight):
		return "A booking is already being submitted."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Please try again."
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Error()
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "Something went wrong."
	}
	return msg
}
