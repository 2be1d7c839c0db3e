package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"moviebook-cli/booking"
	"moviebook-cli/model"
	"moviebook-cli/seating"
	"moviebook-cli/store"
)

func setTestEnv(t *testing.T, backend string) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", root)
	t.Setenv("XDG_CACHE_HOME", root)
	t.Setenv("MOVIEBOOK_CONFIG", "")
	t.Setenv("MOVIEBOOK_BACKEND_URL", backend)
	t.Setenv("MOVIEBOOK_BACKEND_MAX_ATTEMPTS", "1")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd("1.2.3", "abc123")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

const showJSON = `{"data":{"_id":"s1","movieId":{"_id":"m1","name":"Interstellar"},"theatreId":{"_id":"t1","name":"PVR Phoenix","city":"Pune"},"timings":"11:00 PM","format":"IMAX","price":200,"bookedSeats":["K01","a2"]}}`

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if strings.TrimSpace(out) != "moviebook 1.2.3 (abc123)" {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestParseSeatList(t *testing.T) {
	got := parseSeatList([]string{"k5, K06", "", "b3,K05"})
	if strings.Join(got, ",") != "K05,K06,B03" {
		t.Fatalf("expected K05,K06,B03, got %v", got)
	}
}

func TestSeatMapText(t *testing.T) {
	sel := seating.NewSelection([]string{"K01"}, seating.PriceTable{})
	if _, err := sel.Toggle("A09"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	text := seatMapText(sel)
	for _, want := range []string{"RECLINERS · Rs. 340", "CLASSIC · Rs. 150", "SCREEN", "XX", "##", "12"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected seat map to contain %q:\n%s", want, text)
		}
	}
	lines := strings.Split(text, "\n")
	var kRow string
	for _, line := range lines {
		if strings.HasPrefix(line, "K ") {
			kRow = line
		}
	}
	if !strings.Contains(kRow, "XX 02") {
		t.Fatalf("expected K01 sold next to K02, got %q", kRow)
	}
}

func TestSeatsCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mba/api/v1/shows/s1" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(showJSON))
	}))
	defer server.Close()
	setTestEnv(t, server.URL)

	out, err := runCLI(t, "seats", "s1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, want := range []string{"Interstellar", "PVR Phoenix", "PRIME PLUS", "Rs. 200", "J H G F"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestBookCommand_SubmitsSelection(t *testing.T) {
	var got model.BookingRequest
	var posts int
	mux := http.NewServeMux()
	mux.HandleFunc("/mba/api/v1/user/verify", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-access-token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"_id":"u1","name":"Asha","email":"asha@example.com","userRole":"CUSTOMER"}}`))
	})
	mux.HandleFunc("/mba/api/v1/shows/s1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(showJSON))
	})
	mux.HandleFunc("/mba/api/v1/bookings", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		posts++
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"_id":"b1","status":"PROCESSING","seats":["B03","F04"],"totalCost":350}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	setTestEnv(t, server.URL)

	if err := store.SaveSession(store.Session{Token: "tok", User: model.User{Id: "u1"}}); err != nil {
		t.Fatalf("save session: %v", err)
	}

	out, err := runCLI(t, "book", "s1", "--seats", "b3,F04", "--date", "2099-01-01", "--yes")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if posts != 1 {
		t.Fatalf("expected one booking request, got %d", posts)
	}
	if strings.Join(got.Seats, ",") != "B03,F04" || got.NoOfSeats != 2 {
		t.Fatalf("unexpected seats in request: %+v", got)
	}
	if got.TotalCost != 350 {
		t.Fatalf("expected total 350, got %v", got.TotalCost)
	}
	if got.ShowId != "s1" || got.MovieId != "m1" || got.TheatreId != "t1" || got.Timings != "11:00 PM" {
		t.Fatalf("unexpected request ids: %+v", got)
	}
	if !strings.Contains(out, "Booking b1 processing.") || !strings.Contains(out, "pay b1") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	recent, err := store.LoadRecentTheatres()
	if err != nil || len(recent) != 1 || recent[0].TheatreID != "t1" {
		t.Fatalf("expected theatre remembered, got %+v (%v)", recent, err)
	}
}

func TestBookCommand_RejectsBookedSeat(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mba/api/v1/user/verify", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"_id":"u1","name":"Asha"}`))
	})
	mux.HandleFunc("/mba/api/v1/shows/s1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(showJSON))
	})
	mux.HandleFunc("/mba/api/v1/bookings", func(w http.ResponseWriter, r *http.Request) {
		t.Error("booking must not be posted")
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	setTestEnv(t, server.URL)
	if err := store.SaveSession(store.Session{Token: "tok"}); err != nil {
		t.Fatalf("save session: %v", err)
	}

	_, err := runCLI(t, "book", "s1", "--seats", "A02", "--yes")
	if err == nil || !strings.Contains(err.Error(), "A02") {
		t.Fatalf("expected booked seat error, got %v", err)
	}
}

func TestBookingsCommand_RequiresLogin(t *testing.T) {
	setTestEnv(t, "http://127.0.0.1:1")

	_, err := runCLI(t, "bookings")
	if !errors.Is(err, booking.ErrNotLoggedIn) {
		t.Fatalf("expected not logged in, got %v", err)
	}
}

func TestTheatresHide(t *testing.T) {
	setTestEnv(t, "http://127.0.0.1:1")

	out, err := runCLI(t, "theatres", "hide", "t9")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !strings.Contains(out, "t9 is now hidden") {
		t.Fatalf("unexpected output %q", out)
	}
	hidden, err := store.LoadHiddenTheatres()
	if err != nil || !hidden["t9"] {
		t.Fatalf("expected t9 hidden, got %+v (%v)", hidden, err)
	}
}
