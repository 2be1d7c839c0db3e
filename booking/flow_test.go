package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"moviebook-cli/model"
	"moviebook-cli/seating"
)

type fakeCreator struct {
	mu      sync.Mutex
	calls   []model.BookingRequest
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeCreator) CreateBooking(ctx context.Context, token string, req model.BookingRequest) (model.Booking, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return model.Booking{}, f.err
	}
	return model.Booking{Id: "b1", Seats: req.Seats, TotalCost: req.TotalCost, Status: model.BookingProcessing}, nil
}

func (f *fakeCreator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var day = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func testShow() model.Show {
	return model.Show{
		Id:          "s1",
		MovieId:     model.Ref{ID: "m1"},
		TheatreId:   model.Ref{ID: "t1"},
		Timings:     "10:00 AM",
		BookedSeats: []string{"A01", "A02"},
	}
}

func newTestFlow(creator Creator, now time.Time) *Flow {
	show := testShow()
	sel := seating.NewSelection(show.BookedSeats, seating.PriceTable{})
	f := NewFlow(show, day, sel, creator)
	f.SetClock(func() time.Time { return now })
	return f
}

func TestGate_SubmissionScenario(t *testing.T) {
	creator := &fakeCreator{}
	f := newTestFlow(creator, day.Add(9*time.Hour))

	if err := f.Gate().Err(); !errors.Is(err, ErrNoSeats) {
		t.Fatalf("expected ErrNoSeats, got %v", err)
	}
	if _, err := f.Submit(context.Background(), "tok"); !errors.Is(err, ErrNoSeats) {
		t.Fatalf("expected ErrNoSeats, got %v", err)
	}
	if creator.count() != 0 {
		t.Fatalf("expected no backend calls, got %d", creator.count())
	}

	if _, err := f.Selection().Toggle("K05"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !f.Gate().Open() {
		t.Fatalf("expected gate open, got %v", f.Gate().Err())
	}
	if _, err := f.Submit(context.Background(), "tok"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	req := creator.calls[0]
	if req.TotalCost != 340 || req.NoOfSeats != 1 || len(req.Seats) != 1 || req.Seats[0] != "K05" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.MovieId != "m1" || req.TheatreId != "t1" || req.ShowId != "s1" || req.Timings != "10:00 AM" {
		t.Fatalf("unexpected ids: %+v", req)
	}
	if !req.BookingDate.Equal(day) {
		t.Fatalf("expected booking date %v, got %v", day, req.BookingDate)
	}
}

func TestGate_ExpiredShowBlocked(t *testing.T) {
	creator := &fakeCreator{}
	f := newTestFlow(creator, day.Add(11*time.Hour))
	_, _ = f.Selection().Toggle("B03")

	if _, err := f.Submit(context.Background(), "tok"); !errors.Is(err, ErrShowExpired) {
		t.Fatalf("expected ErrShowExpired, got %v", err)
	}
	if creator.count() != 0 {
		t.Fatalf("expected no backend calls, got %d", creator.count())
	}
}

func TestGate_InvalidTimingBlocked(t *testing.T) {
	g := Gate{Seats: 1, Date: day, Timings: "evening", Now: day}
	if err := g.Err(); !errors.Is(err, ErrInvalidTiming) {
		t.Fatalf("expected ErrInvalidTiming, got %v", err)
	}
}

func TestSubmit_RequiresToken(t *testing.T) {
	creator := &fakeCreator{}
	f := newTestFlow(creator, day)
	_, _ = f.Selection().Toggle("C04")

	if _, err := f.Submit(context.Background(), " "); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if f.Submitting() {
		t.Fatal("expected submitting flag to be cleared")
	}
}

func TestSubmit_FailureKeepsSelectionAndDoesNotRetry(t *testing.T) {
	creator := &fakeCreator{err: errors.New("Seat F04 is already booked")}
	f := newTestFlow(creator, day)
	_, _ = f.Selection().Toggle("B03")
	_, _ = f.Selection().Toggle("F04")

	_, err := f.Submit(context.Background(), "tok")
	if err == nil || UserMessage(err) != "Seat F04 is already booked" {
		t.Fatalf("expected backend message, got %v", err)
	}
	if creator.count() != 1 {
		t.Fatalf("expected exactly one attempt, got %d", creator.count())
	}
	snap := f.Selection().Snapshot()
	if len(snap.Seats) != 2 || snap.TotalCost != 350 {
		t.Fatalf("expected selection intact, got %+v", snap)
	}

	creator.err = nil
	if _, err := f.Submit(context.Background(), "tok"); err != nil {
		t.Fatalf("expected manual retry to succeed, got %v", err)
	}
	if creator.count() != 2 {
		t.Fatalf("expected two attempts, got %d", creator.count())
	}
}

func TestSubmit_SingleInFlight(t *testing.T) {
	creator := &fakeCreator{entered: make(chan struct{}), release: make(chan struct{})}
	f := newTestFlow(creator, day)
	_, _ = f.Selection().Toggle("K05")

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background(), "tok")
		done <- err
	}()
	<-creator.entered

	if !f.Submitting() {
		t.Fatal("expected submitting flag while request is in flight")
	}
	if f.Gate().Open() {
		t.Fatal("expected gate closed while submitting")
	}
	if _, err := f.Submit(context.Background(), "tok"); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(creator.release)
	if err := <-done; err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if creator.count() != 1 {
		t.Fatalf("expected one backend call, got %d", creator.count())
	}
	if f.Submitting() {
		t.Fatal("expected submitting flag cleared")
	}
}

func TestFlow_EndToEndScenario(t *testing.T) {
	f := newTestFlow(&fakeCreator{}, day)
	var last seating.Snapshot
	calls := 0
	f.Selection().OnChange(func(s seating.Snapshot) {
		last = s
		calls++
	})

	for _, id := range []string{"A01", "B03", "F04"} {
		if _, err := f.Selection().Toggle(id); err != nil {
			t.Fatalf("toggle %s: expected nil error, got %v", id, err)
		}
	}
	if f.Selection().Status("A01") != seating.Booked {
		t.Fatalf("expected A01 booked, got %v", f.Selection().Status("A01"))
	}
	if calls != 2 {
		t.Fatalf("expected 2 change notifications, got %d", calls)
	}
	if len(last.Seats) != 2 || last.Seats[0] != "B03" || last.Seats[1] != "F04" || last.TotalCost != 350 {
		t.Fatalf("expected ([B03 F04], 350), got %+v", last)
	}

	req, err := f.Begin()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if req.NoOfSeats != 2 || req.TotalCost != 350 {
		t.Fatalf("unexpected request %+v", req)
	}
	if _, err := f.Send(context.Background(), "tok", req); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestNewFlow_DateFallsBackToShowDate(t *testing.T) {
	listed := time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)
	show := testShow()
	show.Date = &listed
	f := NewFlow(show, time.Time{}, seating.NewSelection(nil, seating.PriceTable{}), &fakeCreator{})
	y, mo, d := f.Date().Date()
	if y != 2024 || mo != time.July || d != 4 || f.Date().Location() != time.Local {
		t.Fatalf("expected local 2024-07-04, got %v", f.Date())
	}
}

func TestFlow_ListedUTCDateExpiresInLocalZone(t *testing.T) {
	var show model.Show
	raw := `{"_id":"s1","movieId":"m1","theatreId":"t1","timings":"10:00 AM","date":"2026-10-16T00:00:00.000Z"}`
	if err := json.Unmarshal([]byte(raw), &show); err != nil {
		t.Fatalf("decode show: %v", err)
	}
	ist := time.FixedZone("IST", 5*3600+1800)

	f := NewFlow(show, time.Time{}, seating.NewSelection(nil, seating.PriceTable{}), &fakeCreator{})
	f.SetClock(func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, ist) })
	if _, err := f.Selection().Toggle("K05"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := f.Gate().Err(); !errors.Is(err, ErrShowExpired) {
		t.Fatalf("expected ErrShowExpired two hours after a 10:00 AM start, got %v", err)
	}

	f.SetClock(func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, ist) })
	if err := f.Gate().Err(); err != nil {
		t.Fatalf("expected open gate before the show, got %v", err)
	}
}

func TestValidateRequest_SeatCountMismatch(t *testing.T) {
	req := BuildRequest(testShow(), day, seating.Snapshot{Seats: []string{"K05"}, TotalCost: 340})
	req.NoOfSeats = 2
	if err := ValidateRequest(req); err == nil {
		t.Fatal("expected mismatch error")
	}
}
