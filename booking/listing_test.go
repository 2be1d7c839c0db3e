package booking

import (
	"context"
	"errors"
	"testing"

	"moviebook-cli/model"
)

func TestTimeOfDayOf(t *testing.T) {
	cases := map[string]TimeOfDay{
		"6:00 AM":  Morning,
		"11:59 AM": Morning,
		"12:00 PM": Afternoon,
		"3:59 PM":  Afternoon,
		"4:00 PM":  Evening,
		"7:59 PM":  Evening,
		"8:00 PM":  Night,
		"12:30 AM": Night,
		"5:59 AM":  Night,
	}
	for in, want := range cases {
		got, err := TimeOfDayOf(in)
		if err != nil {
			t.Fatalf("TimeOfDayOf(%q): expected nil error, got %v", in, err)
		}
		if got != want {
			t.Fatalf("TimeOfDayOf(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestPriceRanges(t *testing.T) {
	cases := []struct {
		price float64
		label string
	}{
		{0, "Rs. 0-100"},
		{100, "Rs. 0-100"},
		{101, "Rs. 101-200"},
		{200, "Rs. 101-200"},
		{250, "Rs. 201-300"},
		{350, "Rs. 301-350"},
		{351, "Rs. 351+"},
	}
	for _, c := range cases {
		var hits []string
		for _, r := range PriceRanges {
			if r.Contains(c.price) {
				hits = append(hits, r.Label)
			}
		}
		if len(hits) != 1 || hits[0] != c.label {
			t.Fatalf("price %v: expected [%s], got %v", c.price, c.label, hits)
		}
	}
}

func TestShowFilter(t *testing.T) {
	shows := []model.Show{
		{Id: "1", Timings: "9:00 AM", Price: 150},
		{Id: "2", Timings: "1:00 PM", Price: 250},
		{Id: "3", Timings: "9:30 PM", Price: 150},
		{Id: "4", Timings: "later", Price: 150},
	}
	got := ShowFilter{Times: []TimeOfDay{Morning, Night}, Prices: []PriceRange{PriceRanges[1]}}.Apply(shows)
	if len(got) != 2 || got[0].Id != "1" || got[1].Id != "3" {
		t.Fatalf("unexpected filtered shows: %+v", got)
	}
	if all := (ShowFilter{}).Apply(shows); len(all) != 4 {
		t.Fatalf("expected empty filter to keep all, got %d", len(all))
	}
}

func TestGroupByTheatre_KeepsFirstSeenOrder(t *testing.T) {
	shows := []model.Show{
		{Id: "1", TheatreId: model.Ref{ID: "b", Name: "Beta"}},
		{Id: "2", TheatreId: model.Ref{ID: "a", Name: "Alpha"}},
		{Id: "3", TheatreId: model.Ref{ID: "b", Name: "Beta"}},
	}
	groups := GroupByTheatre(shows)
	if len(groups) != 2 || groups[0].Theatre.ID != "b" || groups[1].Theatre.ID != "a" {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	if len(groups[0].Shows) != 2 || groups[0].Shows[1].Id != "3" {
		t.Fatalf("unexpected shows in first group: %+v", groups[0].Shows)
	}
}

func TestNextTimeOfDay_Cycles(t *testing.T) {
	var cur TimeOfDay
	seen := []TimeOfDay{}
	for i := 0; i < 5; i++ {
		cur = NextTimeOfDay(cur)
		seen = append(seen, cur)
	}
	if seen[0] != Morning || seen[3] != Night || seen[4] != "" {
		t.Fatalf("unexpected cycle: %v", seen)
	}
}

type fakePayer struct {
	err error
	req model.PaymentRequest
}

func (f *fakePayer) CreatePayment(ctx context.Context, token string, req model.PaymentRequest) (model.Payment, error) {
	f.req = req
	if f.err != nil {
		return model.Payment{}, f.err
	}
	return model.Payment{Id: "p1", Amount: req.Amount, Status: "SUCCESSFUL"}, nil
}

func TestCheckPaymentAmount(t *testing.T) {
	if _, err := CheckPaymentAmount("abc", 100); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	var low *AmountTooLowError
	if _, err := CheckPaymentAmount("99.5", 100); !errors.As(err, &low) {
		t.Fatalf("expected AmountTooLowError, got %v", err)
	}
	got, err := CheckPaymentAmount(" 100 ", 100)
	if err != nil || got != 100 {
		t.Fatalf("expected 100, got %v (%v)", got, err)
	}
}

func TestPay_MarksExpired(t *testing.T) {
	b := &model.Booking{Id: "b1", TotalCost: 340, Status: "processing"}
	payer := &fakePayer{err: errors.New("Booking has expired")}

	if _, err := Pay(context.Background(), payer, "tok", b, "340"); err == nil {
		t.Fatal("expected error")
	}
	if b.Status != model.BookingExpired {
		t.Fatalf("expected EXPIRED, got %s", b.Status)
	}
	if _, err := Pay(context.Background(), payer, "tok", b, "340"); !errors.Is(err, ErrNotPayable) {
		t.Fatalf("expected ErrNotPayable, got %v", err)
	}
}

func TestPay_Success(t *testing.T) {
	b := &model.Booking{Id: "b1", TotalCost: 340, Status: model.BookingProcessing}
	payer := &fakePayer{}
	if _, err := Pay(context.Background(), payer, "tok", b, "340"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if payer.req.BookingId != "b1" || payer.req.Amount != 340 {
		t.Fatalf("unexpected payment request %+v", payer.req)
	}
	if b.Status != model.BookingSuccessful {
		t.Fatalf("expected SUCCESSFUL, got %s", b.Status)
	}
}
